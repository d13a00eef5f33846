package encoding

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/chatmodel"
)

// TypedParser decodes the text produced by the model into Go structs,
// for example the arguments of a typed tool.
type TypedParser[T any] struct {
	enc      SchemaEncoder
	name     string
	validate bool
}

// NewTypedParser creates a parser for T with the encoder of the mode.
// Validation of the `validate` struct tags is enabled by default.
func NewTypedParser[T any](mode Mode) (*TypedParser[T], error) {
	var target T
	enc, err := PredefinedSchemaEncoder(mode, target)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create encoder")
	}

	return &TypedParser[T]{
		enc:      enc,
		name:     fmt.Sprintf("%T parser", target),
		validate: true,
	}, nil
}

// WithValidation enables or disables validation of the decoded values
func (p *TypedParser[T]) WithValidation(validate bool) *TypedParser[T] {
	p.validate = validate
	return p
}

// Parse decodes the text.
// Decoding errors are marked as chatmodel.ErrFailedUnmarshalInput,
// validation errors as chatmodel.ErrInvalidToolArguments.
func (p *TypedParser[T]) Parse(text string) (*T, error) {
	var target T
	if err := p.enc.Unmarshal([]byte(text), &target); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to decode: %s", p.name), chatmodel.ErrFailedUnmarshalInput)
	}
	if validator, ok := p.enc.(Validator); ok && p.validate {
		if err := validator.Validate(&target); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "failed to validate: %s", p.name), chatmodel.ErrInvalidToolArguments)
		}
	}
	return &target, nil
}

// GetFormatInstructions returns a string describing the format of the input.
func (p *TypedParser[T]) GetFormatInstructions() string {
	return p.enc.GetFormatInstructions()
}

// Type returns the string type key uniquely identifying this class of parser
func (p *TypedParser[T]) Type() string {
	return p.name
}
