package tools

import (
	"context"
	"reflect"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/chatmodel"
	"github.com/effective-security/agentloop/encoding"
	"github.com/effective-security/agentloop/pkg/schema"
	"github.com/invopop/jsonschema"
)

// Function is a typed tool backed by a Go function.
// The arguments schema is derived from I,
// the result O is rendered with the result encoder.
type Function[I any, O any] struct {
	name        string
	description string
	fn          func(context.Context, I) (O, error)

	params  *jsonschema.Schema
	parser  *encoding.TypedParser[I]
	encoder encoding.SchemaEncoder
}

// FunctionOption configures a Function
type FunctionOption func(*functionOptions)

type functionOptions struct {
	resultMode encoding.Mode
	validate   bool
}

// WithResultMode sets the encoding of the results that are not strings,
// the default is encoding.ModeDefault.
func WithResultMode(mode encoding.Mode) FunctionOption {
	return func(o *functionOptions) {
		o.resultMode = mode
	}
}

// WithStructValidation enables or disables the check of the `validate` tags
// on the decoded arguments, enabled by default.
func WithStructValidation(validate bool) FunctionOption {
	return func(o *functionOptions) {
		o.validate = validate
	}
}

var _ Tool[struct{}, struct{}] = (*Function[struct{}, struct{}])(nil)

// NewFunction returns a tool for the function.
// If name is empty, the name of the Go function is used.
// The input type I must be a struct, and its schema must be derivable,
// otherwise ErrConfiguration is returned.
func NewFunction[I any, O any](name, description string, fn func(context.Context, I) (O, error), opts ...FunctionOption) (*Function[I, O], error) {
	if fn == nil {
		return nil, errors.Mark(errors.New("function is nil"), chatmodel.ErrConfiguration)
	}
	if name == "" {
		name = FuncName(fn)
	}

	o := functionOptions{
		resultMode: encoding.ModeDefault,
		validate:   true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var in I
	sc, err := schema.New(reflect.TypeOf(in))
	if err != nil {
		return nil, errors.Mark(errors.WithMessagef(err, "tool %s", name), chatmodel.ErrConfiguration)
	}

	parser, err := encoding.NewTypedParser[I](encoding.ModeJSON)
	if err != nil {
		return nil, errors.Mark(err, chatmodel.ErrConfiguration)
	}

	var out O
	enc, err := encoding.PredefinedSchemaEncoder(o.resultMode, out)
	if err != nil {
		return nil, errors.Mark(errors.WithMessagef(err, "tool %s", name), chatmodel.ErrConfiguration)
	}

	return &Function[I, O]{
		name:        name,
		description: description,
		fn:          fn,
		params:      sc.Parameters,
		parser:      parser.WithValidation(o.validate),
		encoder:     enc,
	}, nil
}

func (f *Function[I, O]) Name() string {
	return f.name
}

func (f *Function[I, O]) Description() string {
	return f.description
}

func (f *Function[I, O]) Parameters() *jsonschema.Schema {
	return f.params
}

// Run calls the function with the decoded arguments.
func (f *Function[I, O]) Run(ctx context.Context, in *I) (*O, error) {
	if in == nil {
		in = new(I)
	}
	out, err := f.fn(ctx, *in)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Call decodes the JSON arguments, runs the function and renders the result.
// The error of the function is returned as is.
func (f *Function[I, O]) Call(ctx context.Context, args string) (string, error) {
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	in, err := f.parser.Parse(args)
	if err != nil {
		return "", errors.WithMessagef(err, "tool %s", f.name)
	}

	out, err := f.Run(ctx, in)
	if err != nil {
		return "", err
	}
	return f.render(*out)
}

func (f *Function[I, O]) render(out O) (string, error) {
	switch v := any(out).(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}

	rv := reflect.ValueOf(out)
	if !rv.IsValid() || (isNillable(rv.Kind()) && rv.IsNil()) {
		return "", nil
	}

	switch v := any(out).(type) {
	case chatmodel.ContentProvider:
		return v.GetContent(), nil
	case chatmodel.Stringer:
		return v.String(), nil
	}

	bs, err := f.encoder.Marshal(out)
	if err != nil {
		return "", errors.Wrapf(err, "tool %s: failed to encode result", f.name)
	}
	return string(bs), nil
}

func isNillable(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// FuncName returns the name of the Go function without the package path.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return ""
	}
	name := rf.Name()
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
