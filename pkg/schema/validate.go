package schema

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrValidation is returned when arguments do not match the parameters schema.
var ErrValidation = errors.New("arguments validation failed")

const paramsResource = "params.json"

var printer = message.NewPrinter(language.English)

// Validator checks tool arguments against a compiled parameters schema.
type Validator struct {
	params *jsonschema.Schema
	sch    *jsv.Schema
}

// NewValidator compiles the parameters schema.
func NewValidator(params *jsonschema.Schema) (*Validator, error) {
	js, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode parameters schema")
	}
	doc, err := jsv.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode parameters schema")
	}

	c := jsv.NewCompiler()
	if err = c.AddResource(paramsResource, doc); err != nil {
		return nil, errors.Wrap(err, "failed to add parameters schema")
	}
	sch, err := c.Compile(paramsResource)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile parameters schema")
	}
	return &Validator{params: params, sch: sch}, nil
}

// Validate checks the decoded arguments object.
// Numbers may be decoded either as float64 or as json.Number,
// the optional properties sent as null are ignored.
func (v *Validator) Validate(args map[string]any) error {
	err := v.sch.Validate(dropOptionalNulls(v.params, args))
	if err == nil {
		return nil
	}
	var verr *jsv.ValidationError
	if !errors.As(err, &verr) {
		return errors.Mark(err, ErrValidation)
	}
	return errors.WithMessage(ErrValidation, describe(verr))
}

// Validate checks the decoded arguments object against the parameters schema.
func Validate(params *jsonschema.Schema, args map[string]any) error {
	if params == nil {
		return nil
	}
	v, err := NewValidator(params)
	if err != nil {
		return err
	}
	return v.Validate(args)
}

// describe returns the message of the first leaf error,
// prefixed with the dotted path of the offending value.
func describe(verr *jsv.ValidationError) string {
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	msg := leaf.ErrorKind.LocalizedString(printer)
	if len(leaf.InstanceLocation) == 0 {
		return msg
	}
	return strings.Join(leaf.InstanceLocation, ".") + ": " + msg
}

// dropOptionalNulls returns a copy of the object without the null values
// of the optional properties, models often send them for missing values.
func dropOptionalNulls(s *jsonschema.Schema, obj map[string]any) map[string]any {
	if s == nil || obj == nil {
		return obj
	}
	res := make(map[string]any, len(obj))
	for name, val := range obj {
		var prop *jsonschema.Schema
		if s.Properties != nil {
			prop, _ = s.Properties.Get(name)
		}
		if val == nil {
			if prop != nil && !slices.Contains(s.Required, name) {
				continue
			}
			res[name] = val
			continue
		}
		if nested, ok := val.(map[string]any); ok && prop != nil {
			val = dropOptionalNulls(prop, nested)
		}
		res[name] = val
	}
	return res
}
