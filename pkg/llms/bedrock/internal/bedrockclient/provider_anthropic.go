package bedrockclient

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
)

// Ref: https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-anthropic-claude-messages.html
// Also: https://docs.anthropic.com/claude/reference/messages_post

// anthropicInputContent is a content block of a message.
type anthropicInputContent struct {
	// One of: "text", "tool_use", "tool_result"
	Type string `json:"type"`
	// Required if type is "text"
	Text string `json:"text,omitempty"`
	// Tool use fields
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
	// Tool result fields
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicInputMessage struct {
	// One of: ["user", "assistant"]
	// For system prompt, use the system field in the input
	Role    string                  `json:"role"`
	Content []anthropicInputContent `json:"content"`
}

// anthropicTool represents a tool that can be used by the model
type anthropicTool struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	InputSchema anthropicInputSchema `json:"input_schema"`
}

// anthropicInputSchema represents the JSON schema for tool input
type anthropicInputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

type anthropicToolChoice struct {
	// One of: "auto", "any", "tool", "none"
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// anthropicInput is the body of InvokeModel.
type anthropicInput struct {
	AnthropicVersion string                   `json:"anthropic_version"`
	MaxTokens        int                      `json:"max_tokens"`
	System           string                   `json:"system,omitempty"`
	Messages         []*anthropicInputMessage `json:"messages"`
	Temperature      float64                  `json:"temperature,omitempty"`
	TopP             float64                  `json:"top_p,omitempty"`
	StopSequences    []string                 `json:"stop_sequences,omitempty"`
	Tools            []anthropicTool          `json:"tools,omitempty"`
	ToolChoice       *anthropicToolChoice     `json:"tool_choice,omitempty"`
}

type anthropicOutputContent struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// anthropicOutput is the generated output.
type anthropicOutput struct {
	ID      string                   `json:"id"`
	Type    string                   `json:"type"`
	Role    string                   `json:"role"`
	Content []anthropicOutputContent `json:"content"`
	// One of: ["end_turn", "max_tokens", "stop_sequence", "tool_use"]
	StopReason   string `json:"stop_reason"`
	StopSequence string `json:"stop_sequence"`
	Usage        struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

const (
	AnthropicLatestVersion = "bedrock-2023-05-31"
	AnthropicMaxTokens     = 4096
)

// Role attribute for the anthropic message.
const (
	AnthropicRoleUser      = "user"
	AnthropicRoleAssistant = "assistant"
)

// Type attribute for the anthropic content.
const (
	AnthropicMessageTypeText       = "text"
	AnthropicMessageTypeToolUse    = "tool_use"
	AnthropicMessageTypeToolResult = "tool_result"
)

func createAnthropicCompletion(ctx context.Context,
	client InvokeModelAPI,
	modelID string,
	messages []llms.Message,
	options *llms.CallOptions,
) (*llms.ContentResponse, error) {
	input, err := newAnthropicInput(messages, options)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	resp, err := client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, err
	}

	var output anthropicOutput
	if err = json.Unmarshal(resp.Body, &output); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	return toContentResponse(&output), nil
}

func newAnthropicInput(messages []llms.Message, options *llms.CallOptions) (*anthropicInput, error) {
	inputContents, systemPrompt, err := processInputMessagesAnthropic(messages)
	if err != nil {
		return nil, err
	}

	input := &anthropicInput{
		AnthropicVersion: AnthropicLatestVersion,
		MaxTokens:        getMaxTokens(options.MaxTokens, AnthropicMaxTokens),
		System:           systemPrompt,
		Messages:         inputContents,
		Temperature:      options.Temperature,
		TopP:             options.TopP,
		StopSequences:    options.StopWords,
	}

	for _, tool := range options.Tools {
		if tool.Function == nil {
			continue
		}
		schema := anthropicInputSchema{Type: "object"}
		if params := tool.Function.Parameters; params != nil {
			if params.Properties != nil {
				schema.Properties = make(map[string]any)
				for pair := params.Properties.Oldest(); pair != nil; pair = pair.Next() {
					schema.Properties[pair.Key] = pair.Value
				}
			}
			schema.Required = params.Required
		}
		input.Tools = append(input.Tools, anthropicTool{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			InputSchema: schema,
		})
	}

	if len(input.Tools) > 0 && options.ToolChoice != nil {
		if input.ToolChoice, err = anthropicToolChoiceFrom(options.ToolChoice); err != nil {
			return nil, err
		}
	}
	return input, nil
}

func anthropicToolChoiceFrom(choice any) (*anthropicToolChoice, error) {
	switch c := choice.(type) {
	case string:
		switch c {
		case llms.ToolChoiceAuto, llms.ToolChoiceNone:
			return &anthropicToolChoice{Type: c}, nil
		case llms.ToolChoiceRequired:
			return &anthropicToolChoice{Type: "any"}, nil
		}
	case llms.ToolChoice:
		if c.Function != nil {
			return &anthropicToolChoice{Type: "tool", Name: c.Function.Name}, nil
		}
	case *llms.ToolChoice:
		if c != nil {
			return anthropicToolChoiceFrom(*c)
		}
	}
	return nil, errors.Errorf("bedrock: unsupported tool choice: %v", choice)
}

func toContentResponse(output *anthropicOutput) *llms.ContentResponse {
	var text strings.Builder
	var toolCalls []llms.ToolCall

	for _, c := range output.Content {
		switch c.Type {
		case AnthropicMessageTypeText:
			text.WriteString(c.Text)
		case AnthropicMessageTypeToolUse:
			args := string(c.Input)
			if args == "" {
				args = "{}"
			}
			toolCalls = append(toolCalls, llms.ToolCall{
				ID:   c.ID,
				Type: llms.ToolTypeFunction,
				FunctionCall: &llms.FunctionCall{
					Name:      c.Name,
					Arguments: args,
				},
			})
		}
	}

	if text.Len() == 0 && len(toolCalls) == 0 {
		return &llms.ContentResponse{}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:    text.String(),
				StopReason: output.StopReason,
				ToolCalls:  toolCalls,
				GenerationInfo: map[string]any{
					"InputTokens":  output.Usage.InputTokens,
					"OutputTokens": output.Usage.OutputTokens,
					"TotalTokens":  output.Usage.InputTokens + output.Usage.OutputTokens,
				},
			},
		},
	}
}

// processInputMessagesAnthropic converts the messages to the anthropic input,
// and returns the system prompt.
// Consecutive messages of the same role are sent as one message,
// so the tool results of one round share the user turn.
func processInputMessagesAnthropic(messages []llms.Message) ([]*anthropicInputMessage, string, error) {
	inputContents := make([]*anthropicInputMessage, 0, len(messages))
	var system []string

	for _, msg := range messages {
		var role string
		var content []anthropicInputContent

		switch msg.Role {
		case llms.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
			continue
		case llms.RoleUser:
			role = AnthropicRoleUser
			content = append(content, anthropicInputContent{Type: AnthropicMessageTypeText, Text: msg.Content})
		case llms.RoleTool:
			role = AnthropicRoleUser
			content = append(content, anthropicInputContent{
				Type:      AnthropicMessageTypeToolResult,
				ToolUseID: msg.ToolCallID,
				Content:   msg.Content,
			})
		case llms.RoleAssistant:
			role = AnthropicRoleAssistant
			if msg.Content != "" {
				content = append(content, anthropicInputContent{Type: AnthropicMessageTypeText, Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				args := strings.TrimSpace(tc.Arguments())
				if args == "" {
					args = "{}"
				}
				if !json.Valid([]byte(args)) {
					return nil, "", errors.Errorf("bedrock: invalid tool call arguments: %s", tc.ID)
				}
				content = append(content, anthropicInputContent{
					Type:  AnthropicMessageTypeToolUse,
					ID:    tc.ID,
					Name:  tc.Name(),
					Input: json.RawMessage(args),
				})
			}
		default:
			return nil, "", errors.Errorf("bedrock: role not supported: %s", msg.Role)
		}

		if n := len(inputContents); n > 0 && inputContents[n-1].Role == role {
			inputContents[n-1].Content = append(inputContents[n-1].Content, content...)
			continue
		}
		inputContents = append(inputContents, &anthropicInputMessage{
			Role:    role,
			Content: content,
		})
	}
	return inputContents, strings.Join(system, "\n"), nil
}
