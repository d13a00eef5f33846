package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llms/openai/internal/openaiclient"
	"github.com/effective-security/x/values"
)

var (
	// ErrEmptyResponse is returned when the API returns no choices.
	ErrEmptyResponse = openaiclient.ErrEmptyResponse
	// ErrMissingToken is returned when no API token is configured.
	ErrMissingToken = errors.New("openai: missing API key, set it in the OPENAI_API_KEY environment variable")
)

// APIError is returned when the API replies with a non 200 status code.
type APIError = openaiclient.APIError

type ChatMessage = openaiclient.ChatMessage

type LLM struct {
	client *openaiclient.Client
}

var _ llms.Model = (*LLM)(nil)

// New returns a new OpenAI compatible LLM,
// by default it talks to OpenRouter.
func New(opts ...Option) (*LLM, error) {
	c, err := newClient(opts...)
	if err != nil {
		return nil, err
	}
	return &LLM{
		client: c,
	}, nil
}

func newClient(opts ...Option) (*openaiclient.Client, error) {
	options := &options{
		token:        values.StringsCoalesce(os.Getenv(tokenEnvVarName), os.Getenv(openRouterTokenEnvVarName)),
		model:        os.Getenv(modelEnvVarName),
		baseURL:      values.StringsCoalesce(os.Getenv(baseURLEnvVarName), os.Getenv(baseAPIBaseEnvVarName)),
		organization: os.Getenv(organizationEnvVarName),
		apiVersion:   DefaultAPIVersion,
		httpClient:   http.DefaultClient,
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.baseURL == "" {
		options.baseURL = DefaultBaseURL
	}
	if options.provider == "" {
		options.provider = ProviderOpenAI
		if strings.Contains(options.baseURL, "openrouter.ai") {
			options.provider = ProviderOpenRouter
		}
	}

	// set of options needed for Azure client
	if openaiclient.IsAzure(options.provider) && options.model == "" {
		return nil, errors.New("openai: model is required for Azure")
	}
	if options.provider != ProviderAzureAD && len(options.token) == 0 {
		return nil, ErrMissingToken
	}

	var cliOpts []openaiclient.Option
	if len(options.headers) > 0 {
		cliOpts = append(cliOpts, openaiclient.WithHeaders(options.headers))
	}

	return openaiclient.New(options.provider, options.model, options.token, options.baseURL,
		options.organization, options.apiVersion, options.httpClient, cliOpts...)
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.client.Model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	if o.client.Provider == ProviderOpenRouter {
		return llms.ProviderOpenRouter
	}
	return llms.ProviderOpenAI
}

// BaseURL returns the endpoint of the client.
func (o *LLM) BaseURL() string {
	return o.client.BaseURL()
}

// GenerateContent implements the Model interface.
// Every choice returned by the API is converted,
// the transport error is returned as is.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(llms.CallOptions{}, options...)

	req, err := NewChatRequest(messages, opts)
	if err != nil {
		return nil, err
	}

	result, err := o.client.CreateChat(ctx, req)
	if err != nil {
		return nil, err
	}

	choices := make([]*llms.ContentChoice, len(result.Choices))
	for i, c := range result.Choices {
		choices[i] = &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: fmt.Sprint(c.FinishReason),
			GenerationInfo: map[string]any{
				"InputTokens":     result.Usage.PromptTokens,
				"OutputTokens":    result.Usage.CompletionTokens,
				"TotalTokens":     result.Usage.TotalTokens,
				"ReasoningTokens": result.Usage.CompletionTokensDetails.ReasoningTokens,
				"Model":           result.Model,
			},
		}

		for _, tool := range c.Message.ToolCalls {
			choices[i].ToolCalls = append(choices[i].ToolCalls, llms.ToolCall{
				ID:   tool.ID,
				Type: values.StringsCoalesce(tool.Type, llms.ToolTypeFunction),
				FunctionCall: &llms.FunctionCall{
					Name:      tool.Function.Name,
					Arguments: tool.Function.Arguments,
				},
			})
		}
	}
	return &llms.ContentResponse{Choices: choices}, nil
}

// NewChatRequest returns the chat completions request for the messages.
func NewChatRequest(messages []llms.Message, opts *llms.CallOptions) (*openaiclient.ChatRequest, error) {
	chatMsgs := make([]*ChatMessage, 0, len(messages))
	for _, m := range messages {
		if !m.Role.Valid() {
			return nil, errors.Errorf("role %v not supported", m.Role)
		}
		msg := &ChatMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
			ToolCalls:  toolCallsFromToolCalls(m.ToolCalls),
		}
		chatMsgs = append(chatMsgs, msg)
	}

	req := &openaiclient.ChatRequest{
		Model:               opts.Model,
		Messages:            chatMsgs,
		Temperature:         opts.Temperature,
		TopP:                opts.TopP,
		StopWords:           opts.StopWords,
		MaxCompletionTokens: opts.MaxTokens,
		Metadata:            opts.Metadata,
	}

	for _, tool := range opts.Tools {
		t, err := toolFromTool(tool)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to convert llms tool to openai tool")
		}
		req.Tools = append(req.Tools, t)
	}
	if len(req.Tools) > 0 {
		req.ToolChoice = opts.ToolChoice
	}
	return req, nil
}

// toolFromTool converts an llms.Tool to a Tool.
func toolFromTool(t llms.Tool) (openaiclient.Tool, error) {
	if t.Type != string(openaiclient.ToolTypeFunction) || t.Function == nil {
		return openaiclient.Tool{}, errors.Errorf("tool type %v not supported", t.Type)
	}
	return openaiclient.Tool{
		Type: openaiclient.ToolTypeFunction,
		Function: openaiclient.FunctionDefinition{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  t.Function.Parameters,
			Strict:      t.Function.Strict,
		},
	}, nil
}

// toolCallsFromToolCalls converts a slice of llms.ToolCall to a slice of ToolCall.
func toolCallsFromToolCalls(tcs []llms.ToolCall) []openaiclient.ToolCall {
	if len(tcs) == 0 {
		return nil
	}
	toolCalls := make([]openaiclient.ToolCall, len(tcs))
	for i, tc := range tcs {
		toolCalls[i] = openaiclient.ToolCall{
			ID:   tc.ID,
			Type: openaiclient.ToolType(values.StringsCoalesce(tc.Type, llms.ToolTypeFunction)),
			Function: openaiclient.ToolFunction{
				Name:      tc.Name(),
				Arguments: tc.Arguments(),
			},
		}
	}
	return toolCalls
}
