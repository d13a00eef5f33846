package prompts

import (
	"strings"

	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llmutils"
)

var _ PromptValue = ChatPromptValue{}

// ChatPromptValue is a prompt value that is a list of chat messages.
type ChatPromptValue []llms.Message

// String returns the chat message slice as a buffer string.
func (v ChatPromptValue) String() string {
	var buf strings.Builder
	llmutils.PrintMessages(&buf, v)
	return buf.String()
}

// Messages returns the ChatMessage slice.
func (v ChatPromptValue) Messages() []llms.Message {
	return v
}

// MessagePromptTemplate is a prompt template for a single message of the role.
type MessagePromptTemplate struct {
	Role     llms.Role
	Template PromptTemplate
}

var _ MessageFormatter = MessagePromptTemplate{}

// NewSystemMessagePromptTemplate creates a new system message prompt template.
func NewSystemMessagePromptTemplate(template string, inputVariables []string) MessagePromptTemplate {
	return MessagePromptTemplate{Role: llms.RoleSystem, Template: NewPromptTemplate(template, inputVariables)}
}

// NewUserMessagePromptTemplate creates a new user message prompt template.
func NewUserMessagePromptTemplate(template string, inputVariables []string) MessagePromptTemplate {
	return MessagePromptTemplate{Role: llms.RoleUser, Template: NewPromptTemplate(template, inputVariables)}
}

// NewAssistantMessagePromptTemplate creates a new assistant message prompt template.
func NewAssistantMessagePromptTemplate(template string, inputVariables []string) MessagePromptTemplate {
	return MessagePromptTemplate{Role: llms.RoleAssistant, Template: NewPromptTemplate(template, inputVariables)}
}

func (p MessagePromptTemplate) FormatMessages(values map[string]any) ([]llms.Message, error) {
	text, err := p.Template.Format(values)
	if err != nil {
		return nil, err
	}
	return []llms.Message{{Role: p.Role, Content: text}}, nil
}

func (p MessagePromptTemplate) GetInputVariables() []string {
	return p.Template.InputVariables
}

// ChatPromptTemplate is a prompt template for chat messages.
type ChatPromptTemplate struct {
	Messages         []MessageFormatter
	PartialVariables map[string]any
}

var _ FormatPrompter = ChatPromptTemplate{}

// NewChatPromptTemplate creates a new chat prompt template from a list of message formatters.
func NewChatPromptTemplate(messages []MessageFormatter) ChatPromptTemplate {
	return ChatPromptTemplate{Messages: messages}
}

// FormatPrompt formats the messages into a chat prompt value.
func (p ChatPromptTemplate) FormatPrompt(values map[string]any) (PromptValue, error) {
	resolved := resolvePartialValues(p.PartialVariables, values)
	var list []llms.Message
	for _, m := range p.Messages {
		msgs, err := m.FormatMessages(resolved)
		if err != nil {
			return nil, err
		}
		list = append(list, msgs...)
	}
	return ChatPromptValue(list), nil
}

// GetInputVariables returns the input variables of all messages.
func (p ChatPromptTemplate) GetInputVariables() []string {
	var vars []string
	for _, m := range p.Messages {
		vars = append(vars, m.GetInputVariables()...)
	}
	return vars
}
