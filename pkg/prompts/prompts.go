// Package prompts renders the system prompts of the assistants
// from Go templates, with sprig functions, or Jinja2 templates.
package prompts

import (
	"github.com/effective-security/agentloop/pkg/llms"
)

// PromptValue is the interface that all prompt values must implement.
type PromptValue interface {
	String() string
	Messages() []llms.Message
}

// FormatPrompter is an interface for formatting a map of values into a prompt value.
type FormatPrompter interface {
	FormatPrompt(values map[string]any) (PromptValue, error)
	GetInputVariables() []string
}

// Formatter is an interface for formatting a map of values into a string.
type Formatter interface {
	Format(values map[string]any) (string, error)
}

// MessageFormatter is an interface for formatting a map of values into a list of messages.
type MessageFormatter interface {
	FormatMessages(values map[string]any) ([]llms.Message, error)
	GetInputVariables() []string
}

// StringPromptValue is a prompt value that is a string.
type StringPromptValue string

var _ PromptValue = StringPromptValue("")

func (v StringPromptValue) String() string {
	return string(v)
}

// Messages returns a single-element user message slice.
func (v StringPromptValue) Messages() []llms.Message {
	return []llms.Message{llms.UserMessage(string(v))}
}

// Text is a literal prompt without input variables.
type Text string

var _ FormatPrompter = Text("")

func (t Text) FormatPrompt(_ map[string]any) (PromptValue, error) {
	return StringPromptValue(t), nil
}

func (t Text) GetInputVariables() []string {
	return nil
}
