package anthropic_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llms/anthropic"
	"github.com/effective-security/agentloop/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var weatherTool = llms.Tool{
	Type: llms.ToolTypeFunction,
	Function: &llms.FunctionDefinition{
		Name:        "getWeather",
		Description: "Returns the weather",
		Parameters:  schema.MustFromAny(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{"type": "string", "description": "The city name"},
			},
			"required": []string{"city"},
		}),
	},
}

func TestNew(t *testing.T) {
	t.Setenv(anthropic.TokenEnvVarName, "")

	tests := []struct {
		name        string
		opts        []anthropic.Option
		errContains string
	}{
		{
			name:        "missing token",
			opts:        []anthropic.Option{anthropic.WithModel("claude-sonnet-4-5")},
			errContains: "missing API key",
		},
		{
			name:        "missing model",
			opts:        []anthropic.Option{anthropic.WithToken("fake-token")},
			errContains: "model is required",
		},
		{
			name: "valid configuration",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-sonnet-4-5"),
				anthropic.WithBaseURL("https://example.com"),
				anthropic.WithHTTPClient(http.DefaultClient),
				anthropic.WithAnthropicBetaHeader("tools-2024-04-04"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm, err := anthropic.New(tt.opts...)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "claude-sonnet-4-5", llm.GetName())
			assert.Equal(t, llms.ProviderAnthropic, llm.GetProviderType())
			assert.Equal(t, "https://example.com", llm.Options.BaseURL)
		})
	}
}

func TestNewWithEnvironmentVariable(t *testing.T) {
	t.Setenv(anthropic.TokenEnvVarName, "env-token")

	llm, err := anthropic.New(anthropic.WithModel("claude-sonnet-4-5"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", llm.Options.Token)
	assert.Equal(t, anthropic.DefaultBaseURL, llm.Options.BaseURL)
}

func TestProcessMessages(t *testing.T) {
	t.Parallel()

	messages := []llms.Message{
		llms.SystemMessage("You are helpful."),
		llms.UserMessage("Weather in Paris and Rome?"),
		llms.AssistantMessage("Let me check.",
			llms.ToolCall{ID: "toolu_1", Type: "function", FunctionCall: &llms.FunctionCall{Name: "getWeather", Arguments: `{"city":"Paris"}`}},
			llms.ToolCall{ID: "toolu_2", Type: "function", FunctionCall: &llms.FunctionCall{Name: "getWeather"}},
		),
		llms.ToolMessage("toolu_1", "getWeather", "Sunny"),
		llms.ToolMessage("toolu_2", "getWeather", "Rain"),
		llms.UserMessage("Thanks"),
	}

	params, system, err := anthropic.ProcessMessages(messages)
	require.NoError(t, err)
	assert.Equal(t, "You are helpful.", system)
	require.Len(t, params, 4)

	assert.Equal(t, sdk.MessageParamRoleUser, params[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, params[1].Role)
	require.Len(t, params[1].Content, 3)
	require.NotNil(t, params[1].Content[0].OfText)
	assert.Equal(t, "Let me check.", params[1].Content[0].OfText.Text)
	require.NotNil(t, params[1].Content[1].OfToolUse)
	assert.Equal(t, "toolu_1", params[1].Content[1].OfToolUse.ID)
	assert.Equal(t, "getWeather", params[1].Content[1].OfToolUse.Name)

	// consecutive tool results share one user turn
	assert.Equal(t, sdk.MessageParamRoleUser, params[2].Role)
	require.Len(t, params[2].Content, 2)
	require.NotNil(t, params[2].Content[0].OfToolResult)
	assert.Equal(t, "toolu_1", params[2].Content[0].OfToolResult.ToolUseID)
	assert.Equal(t, "toolu_2", params[2].Content[1].OfToolResult.ToolUseID)

	assert.Equal(t, sdk.MessageParamRoleUser, params[3].Role)
}

func TestProcessMessages_Errors(t *testing.T) {
	t.Parallel()

	_, _, err := anthropic.ProcessMessages([]llms.Message{{Role: "critic", Content: "x"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, anthropic.ErrUnsupportedMessageType))

	_, _, err = anthropic.ProcessMessages([]llms.Message{llms.AssistantMessage("")})
	assert.EqualError(t, err, "anthropic: no valid content in AI message")

	_, _, err = anthropic.ProcessMessages([]llms.Message{llms.AssistantMessage("",
		llms.ToolCall{ID: "toolu_1", FunctionCall: &llms.FunctionCall{Name: "getWeather", Arguments: `{"city":`}},
	)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal tool call arguments: toolu_1")
}

func TestToTools(t *testing.T) {
	t.Parallel()

	assert.Nil(t, anthropic.ToTools(nil))

	tools := anthropic.ToTools([]llms.Tool{weatherTool, {Type: "function"}})
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "getWeather", tools[0].OfTool.Name)
	assert.Equal(t, "Returns the weather", tools[0].OfTool.Description.Value)
	assert.Equal(t, []string{"city"}, tools[0].OfTool.InputSchema.Required)
	props, ok := tools[0].OfTool.InputSchema.Properties.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "city")
}

func TestToToolChoice(t *testing.T) {
	t.Parallel()

	c, err := anthropic.ToToolChoice("auto")
	require.NoError(t, err)
	assert.NotNil(t, c.OfAuto)

	c, err = anthropic.ToToolChoice("none")
	require.NoError(t, err)
	assert.NotNil(t, c.OfNone)

	c, err = anthropic.ToToolChoice("required")
	require.NoError(t, err)
	assert.NotNil(t, c.OfAny)

	c, err = anthropic.ToToolChoice(&llms.ToolChoice{Type: "function", Function: &llms.FunctionReference{Name: "getWeather"}})
	require.NoError(t, err)
	require.NotNil(t, c.OfTool)
	assert.Equal(t, "getWeather", c.OfTool.Name)

	_, err = anthropic.ToToolChoice("sometimes")
	assert.True(t, errors.Is(err, anthropic.ErrUnsupportedToolChoice))
}

const toolUseResponse = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5",
  "content": [
    {"type": "text", "text": "Let me check."},
    {"type": "tool_use", "id": "toolu_1", "name": "getWeather", "input": {"city": "Paris"}}
  ],
  "stop_reason": "tool_use",
  "stop_sequence": null,
  "usage": {"input_tokens": 12, "output_tokens": 7}
}`

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-Api-Key"))
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(toolUseResponse))
	}))
	defer srv.Close()

	llm, err := anthropic.New(
		anthropic.WithToken("test-token"),
		anthropic.WithModel("claude-sonnet-4-5"),
		anthropic.WithBaseURL(srv.URL),
	)
	require.NoError(t, err)

	resp, err := llm.GenerateContent(t.Context(),
		[]llms.Message{
			llms.SystemMessage("Be brief."),
			llms.UserMessage("Weather in Paris?"),
		},
		llms.WithTools([]llms.Tool{weatherTool}),
		llms.WithToolChoice("auto"),
		llms.WithMaxTokens(256),
		llms.WithTemperature(0.2),
	)
	require.NoError(t, err)

	req := gjson.ParseBytes(body)
	assert.Equal(t, "claude-sonnet-4-5", req.Get("model").String())
	assert.Equal(t, int64(256), req.Get("max_tokens").Int())
	assert.Equal(t, "Be brief.", req.Get("system.0.text").String())
	assert.Equal(t, "user", req.Get("messages.0.role").String())
	assert.Equal(t, "Weather in Paris?", req.Get("messages.0.content.0.text").String())
	assert.Equal(t, "getWeather", req.Get("tools.0.name").String())
	assert.Equal(t, "auto", req.Get("tool_choice.type").String())

	choice := resp.TopChoice()
	require.NotNil(t, choice)
	assert.Equal(t, "Let me check.", choice.Content)
	assert.Equal(t, "tool_use", choice.StopReason)
	require.Len(t, choice.ToolCalls, 1)
	assert.Equal(t, "toolu_1", choice.ToolCalls[0].ID)
	assert.Equal(t, "getWeather", choice.ToolCalls[0].Name())
	assert.JSONEq(t, `{"city":"Paris"}`, choice.ToolCalls[0].Arguments())
	assert.Equal(t, int64(12), choice.GenerationInfo["InputTokens"])
	assert.Equal(t, int64(7), choice.GenerationInfo["OutputTokens"])
	assert.Equal(t, int64(19), choice.GenerationInfo["TotalTokens"])
}

func TestGenerateContent_CallModel(t *testing.T) {
	t.Parallel()

	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		model = gjson.GetBytes(body, "model").String()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_02","type":"message","role":"assistant","model":"claude-haiku-4-5",
			"content":[{"type":"text","text":"4"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":1}}`))
	}))
	defer srv.Close()

	llm, err := anthropic.New(anthropic.WithToken("t"), anthropic.WithModel("claude-sonnet-4-5"), anthropic.WithBaseURL(srv.URL))
	require.NoError(t, err)

	resp, err := llm.GenerateContent(t.Context(), []llms.Message{llms.UserMessage("2+2?")}, llms.WithModel("claude-haiku-4-5"))
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5", model)
	assert.Equal(t, "4", resp.TopChoice().Content)
	assert.False(t, resp.TopChoice().HasToolCalls())
}

func TestGenerateContent_TransportError(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	}))
	defer srv.Close()

	llm, err := anthropic.New(anthropic.WithToken("t"), anthropic.WithModel("claude-sonnet-4-5"), anthropic.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = llm.GenerateContent(t.Context(), []llms.Message{llms.UserMessage("hi")})
	require.Error(t, err)

	var apiErr *sdk.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, 1, calls, "no retries")
}

func TestToContentResponse_Empty(t *testing.T) {
	t.Parallel()

	resp, err := anthropic.ToContentResponse(&sdk.Message{})
	require.NoError(t, err)
	assert.Nil(t, resp.TopChoice())
}
