package openaiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
)

// ErrEmptyResponse is returned when the API returns no choices.
var ErrEmptyResponse = llms.ErrEmptyResponse

// ToolType is the type of a tool.
type ToolType string

const (
	ToolTypeFunction ToolType = "function"
)

// ChatRequest is a request to complete a chat completion.
type ChatRequest struct {
	Model       string         `json:"model"`
	Messages    []*ChatMessage `json:"messages"`
	Temperature float64        `json:"temperature,omitempty"`
	TopP        float64        `json:"top_p,omitempty"`
	StopWords   []string       `json:"stop,omitempty"`

	MaxCompletionTokens int `json:"max_completion_tokens,omitempty"`

	Tools []Tool `json:"tools,omitempty"`
	// ToolChoice is "none", "auto", "required" or a specific tool.
	ToolChoice any `json:"tool_choice,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// ChatMessage is a message in a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Name is the tool name of the tool result.
	Name string `json:"name,omitempty"`
	// ToolCallID is the ID of the tool call this message is the result of.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolCalls are the tool calls requested by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Tool is a tool to use in a chat request.
type Tool struct {
	Type     ToolType           `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition is a definition of a function that can be called by the model.
type FunctionDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters"`
	Strict      bool               `json:"strict,omitempty"`
}

// ToolCall is a call to a tool.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     ToolType     `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the function of a tool call.
type ToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// CreateChat sends the request to /chat/completions.
func (c *Client) CreateChat(ctx context.Context, r *ChatRequest) (*openai.ChatCompletion, error) {
	if r.Model == "" {
		r.Model = c.Model
	}
	if r.Model == "" {
		return nil, errors.New("openai: model is required")
	}

	resp, err := c.createChat(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}

func (c *Client) createChat(ctx context.Context, payload *ChatRequest) (*openai.ChatCompletion, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}

	u := c.buildURL("/chat/completions", payload.Model)
	logger.ContextKV(ctx, xlog.DEBUG, "url", u, "model", payload.Model, "messages", len(payload.Messages))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	c.setHeaders(req)

	r, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Body.Close() }()

	if r.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: r.StatusCode, URL: u}
		var errResp errorMessage
		if err := json.NewDecoder(r.Body).Decode(&errResp); err == nil {
			apiErr.Message = errResp.Error.Message
			apiErr.Type = errResp.Error.Type
		}
		return nil, apiErr
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	var resp openai.ChatCompletion
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return &resp, nil
}
