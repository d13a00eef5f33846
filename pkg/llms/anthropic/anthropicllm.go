package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "anthropic")

var (
	ErrMissingToken           = errors.New("anthropic: missing API key, set it in the ANTHROPIC_API_KEY environment variable")
	ErrUnsupportedMessageType = errors.New("anthropic: unsupported message type")
	ErrUnsupportedContentType = errors.New("anthropic: unsupported content type")
	ErrUnsupportedToolChoice  = errors.New("anthropic: unsupported tool choice")
)

const (
	DefaultMaxTokens = 4096
)

type LLM struct {
	Client  *anthropic.Client
	Options *Options
}

var _ llms.Model = (*LLM)(nil)

// New creates a new Anthropic LLM client using the official Anthropic SDK.
//
// If no token is provided via options, the API key is read
// from the ANTHROPIC_API_KEY environment variable.
// The client does not retry failed requests.
//
// Example usage:
//
//	llm, err := anthropic.New(
//	    anthropic.WithToken("your-api-key"),
//	    anthropic.WithModel("claude-sonnet-4-5"),
//	)
func New(opts ...Option) (*LLM, error) {
	options := &Options{
		Token:      os.Getenv(TokenEnvVarName),
		BaseURL:    DefaultBaseURL,
		HttpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(options)
	}

	if len(options.Token) == 0 {
		return nil, ErrMissingToken
	}
	if options.Model == "" {
		return nil, errors.New("anthropic: model is required")
	}

	return &LLM{
		Client:  newClient(options),
		Options: options,
	}, nil
}

func newClient(options *Options) *anthropic.Client {
	sdkOpts := []option.RequestOption{
		option.WithAPIKey(options.Token),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(5 * time.Minute),
	}

	if options.BaseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(options.BaseURL))
	}

	if options.HttpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(options.HttpClient))
	}

	if options.AnthropicBetaHeader != "" {
		sdkOpts = append(sdkOpts, option.WithHeader("anthropic-beta", options.AnthropicBetaHeader))
	}

	client := anthropic.NewClient(sdkOpts...)
	return &client
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.Options.Model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderAnthropic
}

// GenerateContent implements the Model interface.
//
// The system messages are sent as the system prompt,
// consecutive tool results are sent in one user turn.
// The error of the API is returned as is.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(llms.CallOptions{Model: o.Options.Model}, options...)

	params, err := NewMessageParams(messages, opts)
	if err != nil {
		return nil, err
	}

	result, err := o.Client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"model", opts.Model,
		"id", result.ID,
		"stop_reason", result.StopReason,
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
	)
	return ToContentResponse(result)
}

// NewMessageParams returns the request of the Messages API.
func NewMessageParams(messages []llms.Message, opts *llms.CallOptions) (anthropic.MessageNewParams, error) {
	sdkMessages, systemPrompt, err := ProcessMessages(messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		Messages:  sdkMessages,
		MaxTokens: values.NumbersCoalesce(int64(opts.MaxTokens), DefaultMaxTokens),
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = anthropic.Float(opts.TopP)
	}
	if len(opts.StopWords) > 0 {
		params.StopSequences = opts.StopWords
	}
	if tools := ToTools(opts.Tools); len(tools) > 0 {
		params.Tools = tools
		if opts.ToolChoice != nil {
			choice, err := ToToolChoice(opts.ToolChoice)
			if err != nil {
				return anthropic.MessageNewParams{}, err
			}
			params.ToolChoice = choice
		}
	}
	return params, nil
}

// ToContentResponse merges the text and tool use blocks of the message
// into a single choice.
func ToContentResponse(result *anthropic.Message) (*llms.ContentResponse, error) {
	var text strings.Builder
	var toolCalls []llms.ToolCall

	for _, contentBlock := range result.Content {
		switch content := contentBlock.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(content.Text)
		case anthropic.ToolUseBlock:
			argumentsJSON, err := json.Marshal(content.Input)
			if err != nil {
				return nil, errors.Wrap(err, "anthropic: failed to marshal tool use arguments")
			}
			toolCalls = append(toolCalls, llms.ToolCall{
				ID:   content.ID,
				Type: llms.ToolTypeFunction,
				FunctionCall: &llms.FunctionCall{
					Name:      content.Name,
					Arguments: string(argumentsJSON),
				},
			})
		case anthropic.ThinkingBlock, anthropic.RedactedThinkingBlock:
			// not part of the conversation
		default:
			return nil, errors.WithMessagef(ErrUnsupportedContentType, "%T", content)
		}
	}

	if text.Len() == 0 && len(toolCalls) == 0 {
		return &llms.ContentResponse{}, nil
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:    text.String(),
				StopReason: string(result.StopReason),
				ToolCalls:  toolCalls,
				GenerationInfo: map[string]any{
					"InputTokens":  result.Usage.InputTokens,
					"OutputTokens": result.Usage.OutputTokens,
					"TotalTokens":  result.Usage.InputTokens + result.Usage.OutputTokens,
					"ID":           result.ID,
				},
			},
		},
	}, nil
}

// ToTools converts LLM tool definitions to Anthropic SDK tool parameters.
// Returns nil if no tools are provided.
func ToTools(tools []llms.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	sdkTools := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		if tool.Function == nil {
			continue
		}
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: "object",
		}
		if params := tool.Function.Parameters; params != nil {
			// Convert Properties from orderedmap to regular map for Anthropic SDK
			if params.Properties != nil {
				properties := make(map[string]any)
				for pair := params.Properties.Oldest(); pair != nil; pair = pair.Next() {
					properties[pair.Key] = pair.Value
				}
				inputSchema.Properties = properties
			}
			if len(params.Required) > 0 {
				inputSchema.Required = params.Required
			}
		}

		sdkTools = append(sdkTools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Function.Name,
				Description: anthropic.String(tool.Function.Description),
				InputSchema: inputSchema,
			},
		})
	}
	return sdkTools
}

// ToToolChoice converts "auto", "none", "required" or llms.ToolChoice
// to the Anthropic tool choice.
func ToToolChoice(choice any) (anthropic.ToolChoiceUnionParam, error) {
	switch c := choice.(type) {
	case string:
		switch c {
		case llms.ToolChoiceAuto:
			return anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}, nil
		case llms.ToolChoiceNone:
			return anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}, nil
		case llms.ToolChoiceRequired:
			return anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}, nil
		}
	case llms.ToolChoice:
		if c.Function != nil && c.Function.Name != "" {
			return anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: c.Function.Name}}, nil
		}
	case *llms.ToolChoice:
		if c != nil {
			return ToToolChoice(*c)
		}
	}
	return anthropic.ToolChoiceUnionParam{}, errors.WithMessagef(ErrUnsupportedToolChoice, "%v", choice)
}

// ProcessMessages converts the messages to Anthropic SDK message parameters.
//
// System messages are joined and returned as the system prompt.
// Tool results are sent as tool_result blocks of a user turn,
// the results of consecutive tool messages share one turn.
func ProcessMessages(messages []llms.Message) ([]anthropic.MessageParam, string, error) {
	chatMessages := make([]anthropic.MessageParam, 0, len(messages))
	var system []string
	var toolResults []anthropic.ContentBlockParamUnion

	flushToolResults := func() {
		if len(toolResults) > 0 {
			chatMessages = append(chatMessages, anthropic.NewUserMessage(toolResults...))
			toolResults = nil
		}
	}

	for _, msg := range messages {
		if msg.Role != llms.RoleTool {
			flushToolResults()
		}
		switch msg.Role {
		case llms.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
		case llms.RoleUser:
			chatMessages = append(chatMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case llms.RoleAssistant:
			chatMessage, err := HandleAIMessage(msg)
			if err != nil {
				return nil, "", err
			}
			chatMessages = append(chatMessages, chatMessage)
		case llms.RoleTool:
			toolResults = append(toolResults, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
		default:
			return nil, "", errors.WithMessagef(ErrUnsupportedMessageType, "%q", msg.Role)
		}
	}
	flushToolResults()

	return chatMessages, strings.Join(system, "\n"), nil
}

// HandleAIMessage converts the assistant message with its text and tool calls.
// Tool call arguments must be a JSON value, empty arguments are sent as an empty object.
func HandleAIMessage(msg llms.Message) (anthropic.MessageParam, error) {
	var contents []anthropic.ContentBlockParamUnion
	if msg.Content != "" {
		contents = append(contents, anthropic.NewTextBlock(msg.Content))
	}

	for _, tc := range msg.ToolCalls {
		args := strings.TrimSpace(tc.Arguments())
		if args == "" {
			args = "{}"
		}
		var inputJSON json.RawMessage
		if err := json.Unmarshal([]byte(args), &inputJSON); err != nil {
			return anthropic.MessageParam{}, errors.Wrapf(err, "anthropic: failed to unmarshal tool call arguments: %s", tc.ID)
		}
		contents = append(contents, anthropic.NewToolUseBlock(tc.ID, inputJSON, tc.Name()))
	}

	if len(contents) == 0 {
		return anthropic.MessageParam{}, errors.New("anthropic: no valid content in AI message")
	}
	return anthropic.NewAssistantMessage(contents...), nil
}
