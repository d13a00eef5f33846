package encoding

import (
	"github.com/cockroachdb/errors"
	dummyenc "github.com/effective-security/agentloop/encoding/dummy"
	jsonenc "github.com/effective-security/agentloop/encoding/json"
	tomlenc "github.com/effective-security/agentloop/encoding/toml"
	yamlenc "github.com/effective-security/agentloop/encoding/yaml"
)

// ErrUnsupportedMode is returned for an unknown encoding mode.
var ErrUnsupportedMode = errors.New("no predefined encoder")

// SchemaEncoder encodes values for the model, and decodes values produced by the model.
type SchemaEncoder interface {
	Marshal(req any) ([]byte, error)
	Unmarshal([]byte, any) error
	// GetFormatInstructions returns the description of the format for a prompt
	GetFormatInstructions() string
}

// Validator validates the decoded values
type Validator interface {
	Validate(any) error
}

type Mode = string

const (
	ModeJSON      Mode = "json"
	ModeYAML      Mode = "yaml"
	ModeTOML      Mode = "toml"
	ModePlainText Mode = "plain_text"
)

// ModeDefault is the default mode for rendering tool results.
// Allow to override in apps
var ModeDefault = ModeJSON

// PredefinedSchemaEncoder returns the encoder for the mode,
// the req value defines the type used in the format instructions.
func PredefinedSchemaEncoder(mode Mode, req any) (SchemaEncoder, error) {
	switch mode {
	case ModeJSON:
		return jsonenc.NewEncoder(req), nil
	case ModeYAML:
		return yamlenc.NewEncoder(req), nil
	case ModeTOML:
		return tomlenc.NewEncoder(req), nil
	case ModePlainText:
		return dummyenc.NewEncoder(), nil
	}
	return nil, errors.WithMessagef(ErrUnsupportedMode, "mode %q", mode)
}

var (
	_ SchemaEncoder = (*dummyenc.Encoder)(nil)
	_ SchemaEncoder = (*jsonenc.Encoder)(nil)
	_ SchemaEncoder = (*tomlenc.Encoder)(nil)
	_ SchemaEncoder = (*yamlenc.Encoder)(nil)

	_ Validator = (*dummyenc.Encoder)(nil)
	_ Validator = (*jsonenc.Encoder)(nil)
	_ Validator = (*tomlenc.Encoder)(nil)
	_ Validator = (*yamlenc.Encoder)(nil)
)
