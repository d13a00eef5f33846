package llms

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnexpectedRole is returned when a message role is of an unexpected type.
	ErrUnexpectedRole = errors.New("unexpected role")
	// ErrInvalidMessage is returned when a message violates the role invariants.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrEmptyResponse is returned when a model returns no choices.
	ErrEmptyResponse = errors.New("empty response")
)

// Role is the type of chat message.
type Role string

const (
	// RoleSystem is a message with standing instructions, at most one per conversation.
	RoleSystem Role = "system"
	// RoleUser is a message sent by the user.
	RoleUser Role = "user"
	// RoleAssistant is a message sent by the model.
	RoleAssistant Role = "assistant"
	// RoleTool is a result of a tool call.
	RoleTool Role = "tool"
)

// ToolTypeFunction is the only tool call type supported by the loop.
const ToolTypeFunction = "function"

// Valid returns true for the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// Message is one turn of a conversation.
// Content may be empty for assistant turns that only request tool calls.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ToolCallID correlates a tool result with the request that produced it.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// Name is the tool name, set only on tool results.
	Name string `json:"name,omitempty"`
	// ToolCalls are the pending tool invocations, set only on assistant messages.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// SystemMessage returns a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage returns a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns an assistant message with optional tool calls.
func AssistantMessage(content string, toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: cloneToolCalls(toolCalls)}
}

// ToolMessage returns a tool result message.
func ToolMessage(toolCallID, name, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
		Name:       name,
	}
}

// Validate checks the role invariants of the message.
func (m Message) Validate() error {
	if !m.Role.Valid() {
		return errors.WithMessagef(ErrUnexpectedRole, "role %q", m.Role)
	}
	switch m.Role {
	case RoleTool:
		if m.ToolCallID == "" {
			return errors.WithMessage(ErrInvalidMessage, "tool message requires tool_call_id")
		}
		if m.Name == "" {
			return errors.WithMessage(ErrInvalidMessage, "tool message requires name")
		}
	case RoleAssistant:
		for i, tc := range m.ToolCalls {
			if tc.FunctionCall == nil || tc.FunctionCall.Name == "" {
				return errors.WithMessagef(ErrInvalidMessage, "tool call [%d] has no function name", i)
			}
		}
	}
	if m.Role != RoleAssistant && len(m.ToolCalls) > 0 {
		return errors.WithMessagef(ErrInvalidMessage, "%s message can not carry tool calls", m.Role)
	}
	return nil
}

// HasToolCalls returns true if the message requests tool calls.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	m.ToolCalls = cloneToolCalls(m.ToolCalls)
	return m
}

func (m Message) String() string {
	var buf strings.Builder
	buf.WriteString(string(m.Role))
	if m.Name != "" {
		buf.WriteString("(" + m.Name + ")")
	}
	buf.WriteString(": ")
	buf.WriteString(m.Content)
	for _, tc := range m.ToolCalls {
		buf.WriteString("\n")
		buf.WriteString(tc.String())
	}
	return buf.String()
}

// FunctionCall is the name and arguments of a function call.
type FunctionCall struct {
	// The name of the function to call.
	Name string `json:"name"`
	// The arguments to pass to the function, as a JSON string.
	Arguments string `json:"arguments"`
}

// ToolCall is a call to a tool (as requested by the model) that should be executed.
type ToolCall struct {
	// ID is the unique identifier of the tool call.
	ID string `json:"id"`
	// Type is the type of the tool call. Typically, this would be "function".
	Type string `json:"type"`
	// FunctionCall is the function call to be executed.
	FunctionCall *FunctionCall `json:"function,omitempty"`
}

// Name returns the requested function name.
func (tc ToolCall) Name() string {
	if tc.FunctionCall == nil {
		return ""
	}
	return tc.FunctionCall.Name
}

// Arguments returns the raw arguments of the requested function.
func (tc ToolCall) Arguments() string {
	if tc.FunctionCall == nil {
		return ""
	}
	return tc.FunctionCall.Arguments
}

func (tc ToolCall) String() string {
	return fmt.Sprintf("ToolCall: %s (%s), input: %s", tc.ID, tc.Name(), tc.Arguments())
}

func cloneToolCalls(list []ToolCall) []ToolCall {
	if len(list) == 0 {
		return nil
	}
	res := slices.Clone(list)
	for i := range res {
		if res[i].FunctionCall != nil {
			fc := *res[i].FunctionCall
			res[i].FunctionCall = &fc
		}
	}
	return res
}

// ContentResponse is the response returned by a GenerateContent call.
// It can potentially return multiple content choices.
type ContentResponse struct {
	Choices []*ContentChoice `json:"choices"`
}

// TopChoice returns the first choice, or nil for an empty response.
func (r *ContentResponse) TopChoice() *ContentChoice {
	if r == nil || len(r.Choices) == 0 {
		return nil
	}
	return r.Choices[0]
}

// ContentChoice is one of the response choices returned by GenerateContent
// calls.
type ContentChoice struct {
	// Content is the textual content of a response
	Content string `json:"content"`

	// StopReason is the reason the model stopped generating output.
	StopReason string `json:"stop_reason"`

	// GenerationInfo is arbitrary information the model adds to the response.
	GenerationInfo map[string]any `json:"generation_info,omitempty"`

	// ToolCalls is a list of tool calls the model asks to invoke.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Message returns the assistant turn of the choice,
// including the pending tool calls.
func (c *ContentChoice) Message() Message {
	return AssistantMessage(c.Content, c.ToolCalls...)
}

// HasToolCalls returns true if the choice requests tool calls.
func (c *ContentChoice) HasToolCalls() bool {
	return c != nil && len(c.ToolCalls) > 0
}
