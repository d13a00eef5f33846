package llms

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// contentPartJSON is a text part of the OpenAI array content form.
type contentPartJSON struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// UnmarshalJSON accepts the content forms used by OpenAI compatible endpoints:
// a string, null, or an array of text parts.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	var raw struct {
		alias
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.WithStack(err)
	}

	content, err := unmarshalContent(raw.Content)
	if err != nil {
		return err
	}

	*m = Message(raw.alias)
	m.Content = content
	return nil
}

func unmarshalContent(data json.RawMessage) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", errors.WithStack(err)
		}
		return s, nil
	case '[':
		var parts []contentPartJSON
		if err := json.Unmarshal(data, &parts); err != nil {
			return "", errors.WithStack(err)
		}
		var buf strings.Builder
		for _, p := range parts {
			if p.Type != "" && p.Type != "text" {
				return "", errors.Errorf("unsupported content part type: %s", p.Type)
			}
			buf.WriteString(p.Text)
		}
		return buf.String(), nil
	}
	return "", errors.Errorf("unsupported content: %s", string(data))
}
