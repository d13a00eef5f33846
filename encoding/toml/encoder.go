package toml

import (
	"bytes"
	"reflect"

	"github.com/BurntSushi/toml"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/cockroachdb/errors"
	jsonenc "github.com/effective-security/agentloop/encoding/json"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/effective-security/agentloop/pkg/schema"
)

type Encoder struct {
	reqType reflect.Type
}

func NewEncoder(req any) *Encoder {
	return &Encoder{
		reqType: reflect.TypeOf(req),
	}
}

// Marshal encodes the value as TOML, the value must be a struct or a map.
func (e *Encoder) Marshal(v any) ([]byte, error) {
	switch kind := reflect.Indirect(reflect.ValueOf(v)).Kind(); kind {
	case reflect.Struct, reflect.Map:
		return toml.Marshal(v)
	default:
		return nil, errors.Errorf("toml: unsupported value of kind %s, want struct or map", kind)
	}
}

func (e *Encoder) Unmarshal(bs []byte, ret any) error {
	data := llmutils.BytesTrimBackticks(bs)
	return toml.Unmarshal(data, ret)
}

func (e *Encoder) Validate(req any) error {
	return jsonenc.ValidateStruct(req)
}

// GetFormatInstructions returns a generated sample of the type
func (e *Encoder) GetFormatInstructions() string {
	if e.reqType == nil {
		return ""
	}
	tValue := reflect.New(e.reqType)
	instance := tValue.Interface()
	if f, ok := tValue.Elem().Interface().(schema.Faker); ok {
		instance = f.Fake()
	} else {
		_ = gofakeit.Struct(instance)
	}
	bs, err := e.Marshal(instance)
	if err != nil {
		return ""
	}
	var b bytes.Buffer
	b.WriteString("\nRespond with TOML in the following TOML schema:\n")
	b.WriteString("```toml\n")
	b.Write(bs)
	b.WriteString("```")
	b.WriteString("\nMake sure to return an instance of the TOML, not the schema itself.\n")
	return b.String()
}
