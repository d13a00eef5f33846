package json

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/bububa/ljson"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/effective-security/agentloop/pkg/schema"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Encoder struct {
	reqType reflect.Type
}

func NewEncoder(req any) *Encoder {
	return &Encoder{
		reqType: reflect.TypeOf(req),
	}
}

func (e *Encoder) Marshal(req any) ([]byte, error) {
	return json.Marshal(req)
}

// Unmarshal decodes the JSON, the prefixes and postfixes around the JSON
// value are trimmed, and the lenient decoder accepts numbers as strings.
func (e *Encoder) Unmarshal(bs []byte, ret any) error {
	data := llmutils.CleanJSON(bs)
	return ljson.Unmarshal(data, ret)
}

// Validate checks the `validate` tags of structs, other values are not checked.
func (e *Encoder) Validate(req any) error {
	return ValidateStruct(req)
}

// GetFormatInstructions returns the JSON schema of the type,
// or empty string if the schema can not be derived.
func (e *Encoder) GetFormatInstructions() string {
	s, err := e.Schema()
	if err != nil {
		return ""
	}
	var b bytes.Buffer
	b.WriteString("\nRespond with JSON in the following JSON schema:\n")
	b.WriteString("```json\n")
	b.WriteString(s.String())
	b.WriteString("\n```")
	b.WriteString("\nMake sure to return an instance of the JSON, not the schema itself.\n")
	b.WriteString("Use the exact field names as they are defined in the schema.\n")
	return b.String()
}

// Schema returns the derived schema of the type
func (e *Encoder) Schema() (*schema.Schema, error) {
	return schema.New(e.reqType)
}

// ValidateStruct checks the `validate` tags of a struct, or a pointer to struct.
func ValidateStruct(req any) error {
	v := reflect.ValueOf(req)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	return validate.Struct(req)
}
