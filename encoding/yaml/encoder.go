package yaml

import (
	"bytes"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cockroachdb/errors"
	jsonenc "github.com/effective-security/agentloop/encoding/json"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/effective-security/agentloop/pkg/schema"
	"gopkg.in/yaml.v3"
)

// CommentStyle specifies where the field descriptions are rendered
type CommentStyle int

const (
	NoComment CommentStyle = iota
	HeadComment
	LineComment
	FootComment
)

type Encoder struct {
	reqType      reflect.Type
	commentStyle CommentStyle
}

func NewEncoder(req any) *Encoder {
	return &Encoder{
		reqType:      reflect.TypeOf(req),
		commentStyle: NoComment,
	}
}

// WithCommentStyle renders the `comment` tag, or the jsonschema description,
// of the struct fields as YAML comments.
func (e *Encoder) WithCommentStyle(style CommentStyle) *Encoder {
	e.commentStyle = style
	return e
}

func (e *Encoder) Marshal(v any) ([]byte, error) {
	if e.commentStyle == NoComment {
		return yaml.Marshal(v)
	}
	node, err := e.toNode(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(node)
}

func (e *Encoder) Unmarshal(bs []byte, ret any) error {
	data := llmutils.BytesTrimBackticks(bs)
	return yaml.Unmarshal(data, ret)
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
	b.WriteString("\nRespond with YAML in the following YAML schema without comments:\n")
	b.WriteString("```yaml\n")
	b.Write(bs)
	b.WriteString("```")
	b.WriteString("\nMake sure to return an instance of the YAML, not the schema itself.\n")
	return b.String()
}

var nullNode = yaml.Node{Kind: yaml.ScalarNode, Value: "null", Tag: "!!null"}

// toNode converts the value to a YAML node with the field comments
func (e *Encoder) toNode(v reflect.Value) (*yaml.Node, error) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			n := nullNode
			return &n, nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		n := nullNode
		return &n, nil
	}

	switch v.Kind() {
	case reflect.Struct:
		return e.structNode(v)
	case reflect.Map:
		node := &yaml.Node{Kind: yaml.MappingNode}
		iter := v.MapRange()
		for iter.Next() {
			val, err := e.toNode(iter.Value())
			if err != nil {
				return nil, err
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Value: stringOf(iter.Key())}
			node.Content = append(node.Content, key, val)
		}
		return node, nil
	case reflect.Slice, reflect.Array:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for i := 0; i < v.Len(); i++ {
			item, err := e.toNode(v.Index(i))
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, item)
		}
		return node, nil
	}

	// let the encoder choose the scalar style and tag
	node := &yaml.Node{}
	if err := node.Encode(v.Interface()); err != nil {
		return nil, errors.WithStack(err)
	}
	return node, nil
}

func (e *Encoder) structNode(v reflect.Value) (*yaml.Node, error) {
	typ := v.Type()
	root := &yaml.Node{Kind: yaml.MappingNode}

	for i := 0; i < v.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		key, omitEmpty := fieldKey(field)
		if key == "-" {
			continue
		}
		fv := v.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}

		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
		if comment := fieldComment(field); comment != "" {
			switch e.commentStyle {
			case HeadComment:
				keyNode.HeadComment = comment
			case LineComment:
				keyNode.LineComment = comment
			case FootComment:
				keyNode.FootComment = comment
			}
		}

		valueNode, err := e.toNode(fv)
		if err != nil {
			return nil, err
		}
		root.Content = append(root.Content, keyNode, valueNode)
	}

	return root, nil
}

// fieldKey returns the key from the yaml or json tag,
// or the lower cased field name as yaml.v3 does.
func fieldKey(field reflect.StructField) (string, bool) {
	for _, tag := range []string{"yaml", "json"} {
		val, ok := field.Tag.Lookup(tag)
		if !ok {
			continue
		}
		name, opts, _ := strings.Cut(val, ",")
		omitEmpty := strings.Contains(opts, "omitempty")
		if name != "" {
			return name, omitEmpty
		}
		return strings.ToLower(field.Name), omitEmpty
	}
	return strings.ToLower(field.Name), false
}

var descriptionRegex = regexp.MustCompile(`description=((?:\\,|[^,])+)`)

func fieldComment(field reflect.StructField) string {
	if comment := field.Tag.Get("comment"); comment != "" {
		return comment
	}
	matches := descriptionRegex.FindStringSubmatch(field.Tag.Get("jsonschema"))
	if len(matches) > 1 {
		return strings.TrimSpace(strings.ReplaceAll(matches[1], `\,`, ","))
	}
	return ""
}

func stringOf(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	}
	return llmutils.ToJSON(v.Interface())
}
