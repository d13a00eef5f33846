package prompts

import (
	"maps"
	"slices"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"
	"github.com/nikolalohinski/gonja"
)

// TemplateFormat is the format of the template.
type TemplateFormat string

const (
	// TemplateFormatGoTemplate is the format for go-template, with sprig functions.
	TemplateFormatGoTemplate TemplateFormat = "go-template"
	// TemplateFormatJinja2 is the format for jinja2.
	TemplateFormatJinja2 TemplateFormat = "jinja2"
)

// ErrInvalidTemplateFormat is returned for an unknown template format.
var ErrInvalidTemplateFormat = errors.New("invalid template format")

// ErrMissingInputVariable is returned when a declared input variable has no value.
var ErrMissingInputVariable = errors.New("missing input variable")

// PromptTemplate contains common fields for all prompt templates.
type PromptTemplate struct {
	// Template is the prompt template.
	Template string

	// A list of variable names the prompt template expects.
	InputVariables []string

	// TemplateFormat is the format of the prompt template.
	TemplateFormat TemplateFormat

	// PartialVariables represents a map of variable names to values or functions
	// that return values. If the value is a function, it will be called when the
	// prompt template is rendered.
	PartialVariables map[string]any
}

var (
	_ Formatter      = PromptTemplate{}
	_ FormatPrompter = PromptTemplate{}
)

// NewPromptTemplate returns a new go-template prompt.
func NewPromptTemplate(template string, inputVars []string) PromptTemplate {
	return PromptTemplate{
		Template:       template,
		InputVariables: inputVars,
		TemplateFormat: TemplateFormatGoTemplate,
	}
}

// NewJinja2PromptTemplate returns a new jinja2 prompt.
func NewJinja2PromptTemplate(template string, inputVars []string) PromptTemplate {
	return PromptTemplate{
		Template:       template,
		InputVariables: inputVars,
		TemplateFormat: TemplateFormatJinja2,
	}
}

// Format formats the prompt template and returns a string value.
func (p PromptTemplate) Format(values map[string]any) (string, error) {
	resolved := resolvePartialValues(p.PartialVariables, values)
	for _, name := range p.InputVariables {
		if _, ok := resolved[name]; !ok {
			return "", errors.WithMessagef(ErrMissingInputVariable, "%q", name)
		}
	}
	return RenderTemplate(p.Template, p.TemplateFormat, resolved)
}

// FormatPrompt formats the prompt template and returns a string prompt value.
func (p PromptTemplate) FormatPrompt(values map[string]any) (PromptValue, error) {
	f, err := p.Format(values)
	if err != nil {
		return nil, err
	}
	return StringPromptValue(f), nil
}

// GetInputVariables returns the input variables the prompt expect.
func (p PromptTemplate) GetInputVariables() []string {
	return p.InputVariables
}

// RenderTemplate renders the template with the values.
func RenderTemplate(tmpl string, format TemplateFormat, values map[string]any) (string, error) {
	switch format {
	case TemplateFormatGoTemplate, "":
		return interpolateGoTemplate(tmpl, values)
	case TemplateFormatJinja2:
		return interpolateJinja2(tmpl, values)
	}
	return "", errors.WithMessagef(ErrInvalidTemplateFormat, "%q", format)
}

func interpolateGoTemplate(tmpl string, values map[string]any) (string, error) {
	parsed, err := template.New("template").
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(tmpl)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse template")
	}
	var sb strings.Builder
	if err = parsed.Execute(&sb, values); err != nil {
		return "", errors.Wrap(err, "failed to render template")
	}
	return sb.String(), nil
}

func interpolateJinja2(tmpl string, values map[string]any) (string, error) {
	tpl, err := gonja.FromString(tmpl)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse template")
	}
	out, err := tpl.Execute(values)
	if err != nil {
		return "", errors.Wrap(err, "failed to render template")
	}
	return out, nil
}

func resolvePartialValues(partials map[string]any, values map[string]any) map[string]any {
	resolved := make(map[string]any, len(partials)+len(values))
	for _, key := range slices.Sorted(maps.Keys(partials)) {
		switch v := partials[key].(type) {
		case func() string:
			resolved[key] = v()
		case func() any:
			resolved[key] = v()
		default:
			resolved[key] = v
		}
	}
	maps.Copy(resolved, values)
	return resolved
}
