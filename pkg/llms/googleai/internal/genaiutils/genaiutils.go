package genaiutils

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/invopop/jsonschema"
	"google.golang.org/genai"
)

// ConvertTools converts the function tools to a single genai tool
// with one declaration per function.
func ConvertTools(tools []llms.Tool) ([]*genai.Tool, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for i, tool := range tools {
		if tool.Type != llms.ToolTypeFunction || tool.Function == nil {
			return nil, errors.Errorf("tool [%d]: unsupported type %q, want 'function'", i, tool.Type)
		}

		decl := &genai.FunctionDeclaration{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
		}
		if tool.Function.Parameters != nil {
			schema, err := ConvertSchema(tool.Function.Parameters)
			if err != nil {
				return nil, errors.WithMessagef(err, "tool [%d]", i)
			}
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}

	return []*genai.Tool{{FunctionDeclarations: decls}}, nil
}

// ConvertToolChoice converts "auto", "none", "required" or llms.ToolChoice
// to the function calling config.
func ConvertToolChoice(choice any) (*genai.ToolConfig, error) {
	cfg := &genai.FunctionCallingConfig{}
	switch c := choice.(type) {
	case nil:
		return nil, nil
	case string:
		switch c {
		case llms.ToolChoiceAuto:
			cfg.Mode = genai.FunctionCallingConfigModeAuto
		case llms.ToolChoiceNone:
			cfg.Mode = genai.FunctionCallingConfigModeNone
		case llms.ToolChoiceRequired:
			cfg.Mode = genai.FunctionCallingConfigModeAny
		default:
			return nil, errors.Errorf("unsupported tool choice: %q", c)
		}
	case llms.ToolChoice:
		if c.Function == nil || c.Function.Name == "" {
			return nil, errors.New("tool choice: function name is required")
		}
		cfg.Mode = genai.FunctionCallingConfigModeAny
		cfg.AllowedFunctionNames = []string{c.Function.Name}
	case *llms.ToolChoice:
		if c == nil {
			return nil, nil
		}
		return ConvertToolChoice(*c)
	default:
		return nil, errors.Errorf("unsupported tool choice: %T", choice)
	}
	return &genai.ToolConfig{FunctionCallingConfig: cfg}, nil
}

// ConvertSchema converts a JSON schema to a genai.Schema.
func ConvertSchema(jschema *jsonschema.Schema) (*genai.Schema, error) {
	if jschema == nil {
		return nil, nil
	}

	schema := &genai.Schema{
		Type:        ConvertSchemaType(jschema.Type),
		Title:       jschema.Title,
		Description: jschema.Description,
		Format:      jschema.Format,
		Required:    jschema.Required,
	}
	for _, v := range jschema.Enum {
		schema.Enum = append(schema.Enum, fmt.Sprint(v))
	}
	if len(schema.Enum) > 0 && schema.Type == genai.TypeString {
		schema.Format = "enum"
	}

	if jschema.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema, jschema.Properties.Len())
		for pair := jschema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			prop, err := ConvertSchema(pair.Value)
			if err != nil {
				return nil, errors.WithMessagef(err, "property [%s]", pair.Key)
			}
			schema.Properties[pair.Key] = prop
			schema.PropertyOrdering = append(schema.PropertyOrdering, pair.Key)
		}
	}

	if jschema.Items != nil {
		items, err := ConvertSchema(jschema.Items)
		if err != nil {
			return nil, errors.WithMessage(err, "items")
		}
		schema.Items = items
	}

	for i, s := range jschema.AnyOf {
		sub, err := ConvertSchema(s)
		if err != nil {
			return nil, errors.WithMessagef(err, "anyOf [%d]", i)
		}
		schema.AnyOf = append(schema.AnyOf, sub)
	}

	return schema, nil
}

// ConvertSchemaType converts a JSON schema type to a genai.Type.
func ConvertSchemaType(dt string) genai.Type {
	switch dt {
	case "object":
		return genai.TypeObject
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeUnspecified
	}
}

func Float32Ptr(f float32) *float32 {
	if f == 0 {
		return nil
	}
	return &f
}

func Int32Ptr(i int32) *int32 {
	if i == 0 {
		return nil
	}
	return &i
}
