package schema

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrUnsupportedType is returned when a parameters schema
// can not be derived from the type.
var ErrUnsupportedType = errors.New("unsupported type")

// Faker is a interface for generating structures
// with fake data, it is used for generating format samples.
type Faker interface {
	Fake() any
}

var (
	cache   = make(map[reflect.Type]*Schema)
	cacheMu sync.Mutex
)

// Schema is a derived parameters schema of a Go type.
type Schema struct {
	RawSchema *jsonschema.Schema
	// Parameters represents the Function parameters definition
	Parameters *jsonschema.Schema
}

// New creates a new schema from the given type.
// The type must be a struct, or a pointer to a struct,
// and must not contain channels, functions or complex numbers.
func New(t reflect.Type) (*Schema, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if s, ok := cache[t]; ok {
		return s, nil
	}

	s, err := buildSchema(t)
	if err != nil {
		return nil, err
	}
	cache[t] = s

	return s, nil
}

func (s *Schema) String() string {
	js, _ := json.MarshalIndent(s.Parameters, "", "\t")
	return string(js)
}

func buildSchema(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, errors.WithMessage(ErrUnsupportedType, "nil type")
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.WithMessagef(ErrUnsupportedType, "%s: parameters must be a struct", t.String())
	}
	if err := checkType(t, t.String(), map[reflect.Type]bool{}); err != nil {
		return nil, err
	}

	schema := JSONSchema(t)

	funcDef, err := ToFunctionSchema(t, schema)
	if err != nil {
		return nil, err
	}
	s := &Schema{
		RawSchema:  schema,
		Parameters: funcDef,
	}

	return s, nil
}

// checkType rejects the kinds that have no JSON representation,
// and recursive structs that can not be expanded inline.
func checkType(t reflect.Type, path string, visiting map[reflect.Type]bool) error {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return errors.WithMessagef(ErrUnsupportedType, "%s: %s", path, t.Kind())
	case reflect.Ptr, reflect.Slice, reflect.Array:
		return checkType(t.Elem(), path, visiting)
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return errors.WithMessagef(ErrUnsupportedType, "%s: map key must be a string", path)
		}
		return checkType(t.Elem(), path, visiting)
	case reflect.Struct:
		if visiting[t] {
			return errors.WithMessagef(ErrUnsupportedType, "%s: recursive type %s", path, t.Name())
		}
		visiting[t] = true
		defer delete(visiting, t)

		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("json") == "-" {
				continue
			}
			if err := checkType(f.Type, path+"."+f.Name, visiting); err != nil {
				return err
			}
		}
	}
	return nil
}

// ToFunctionSchema returns the top level object schema of the type,
// with all references resolved inline.
func ToFunctionSchema(tType reflect.Type, tSchema *jsonschema.Schema) (*jsonschema.Schema, error) {
	// find top level properties
	redID := strings.TrimPrefix(tSchema.Ref, "#/$defs/")

	var defs = make(map[string]*jsonschema.Schema)
	root := tSchema

	for name, def := range tSchema.Definitions {
		if name == redID {
			root = def
		} else {
			defs[name] = def
		}
	}

	res := &jsonschema.Schema{
		Type:       root.Type,
		Properties: root.Properties,
		Required:   root.Required,
	}
	if res.Type != "object" {
		return nil, errors.WithMessagef(ErrUnsupportedType, "%s: schema type %q", tType.String(), res.Type)
	}
	if res.Properties == nil {
		res.Properties = jsonschema.NewProperties()
	}

	if err := resolveRefs(res.Properties, defs); err != nil {
		return nil, errors.WithMessagef(err, "%s", tType.String())
	}

	return res, nil
}

func resolveRefs(props *orderedmap.OrderedMap[string, *jsonschema.Schema], defs map[string]*jsonschema.Schema) error {
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		child := pair.Value
		if child.Ref != "" {
			name := strings.TrimPrefix(child.Ref, "#/$defs/")
			def, ok := defs[name]
			if !ok {
				return errors.WithMessagef(ErrUnsupportedType, "reference not found: %s", child.Ref)
			}
			pair.Value = def
			child = def
		}
		if child.Properties != nil {
			if err := resolveRefs(child.Properties, defs); err != nil {
				return err
			}
		}
		if child.Items != nil && child.Items.Ref != "" {
			name := strings.TrimPrefix(child.Items.Ref, "#/$defs/")
			def, ok := defs[name]
			if !ok {
				return errors.WithMessagef(ErrUnsupportedType, "reference not found: %s", child.Items.Ref)
			}
			child.Items = def
		}
	}
	return nil
}

// JSONSchema return the json schema of the type
func JSONSchema(t reflect.Type) *jsonschema.Schema {
	// VS Code does not support the jsonschema version 2020-12
	jsonschema.Version = "http://json-schema.org/draft-07/schema#"

	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true
	r.DoNotReference = true
	r.AllowAdditionalProperties = true

	// The Struct name could be same, but the package name is different,
	// this would cause the json schema to have a wrong `$ref` to the same name.
	// See https://github.com/invopop/jsonschema/issues/42
	r.Namer = func(t reflect.Type) string {
		name := t.Name()
		if t.Kind() == reflect.Struct {
			fullname := t.PkgPath() + "/" + t.Name()
			name = t.Name() + "@" + strconv.FormatUint(xxhash.Sum64String(fullname), 10)
		}
		return name
	}

	return r.ReflectFromType(t)
}

// MustFromAny creates a json schema from any type.
// It panics if the value can not be converted.
//
// For example:
//
//	map[string]any{
//		"type": "object",
//		"properties": map[string]any{
//			"query": map[string]any{
//				"type": "string",
//			},
//		},
//	}
func MustFromAny(t any) *jsonschema.Schema {
	schema, err := FromAny(t)
	if err != nil {
		panic(err)
	}
	return schema
}

// FromAny creates a json schema from any value that marshals to a JSON schema document.
func FromAny(t any) (*jsonschema.Schema, error) {
	js, err := json.Marshal(t)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	schema := &jsonschema.Schema{}
	err = json.Unmarshal(js, schema)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return schema, nil
}
