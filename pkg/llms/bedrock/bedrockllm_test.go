package bedrock_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llms/bedrock"
	"github.com/effective-security/agentloop/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fakeRuntime struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeRuntime) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

var weatherTool = llms.Tool{
	Type: llms.ToolTypeFunction,
	Function: &llms.FunctionDefinition{
		Name:        "getWeather",
		Description: "Returns the weather",
		Parameters: schema.MustFromAny(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{"type": "string"},
			},
			"required": []string{"city"},
		}),
	},
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := bedrock.New(t.Context(), bedrock.WithModel("amazon.titan-text-lite-v1"), bedrock.WithClient(&fakeRuntime{}))
	assert.True(t, errors.Is(err, bedrock.ErrUnsupportedProvider))

	llm, err := bedrock.New(t.Context(), bedrock.WithClient(&fakeRuntime{}))
	require.NoError(t, err)
	assert.Equal(t, bedrock.ModelAnthropicClaudeSonnet4_5, llm.GetName())
	assert.Equal(t, llms.ProviderBedrock, llm.GetProviderType())
}

func TestNew_RuntimeClient(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "testdata/none")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "testdata/none")

	llm, err := bedrock.New(t.Context(),
		bedrock.WithRegion("us-west-2"),
		bedrock.WithStaticCredentials("AKIDEXAMPLE", "secret", ""),
	)
	require.NoError(t, err)
	assert.Equal(t, bedrock.ModelAnthropicClaudeSonnet4_5, llm.GetName())
}

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	rt := &fakeRuntime{
		body: `{
			"id": "msg_1", "type": "message", "role": "assistant",
			"content": [
				{"type": "text", "text": "Checking."},
				{"type": "tool_use", "id": "toolu_1", "name": "getWeather", "input": {"city": "Paris"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 9, "output_tokens": 4}
		}`,
	}
	llm, err := bedrock.New(t.Context(),
		bedrock.WithModel(bedrock.ModelAnthropicClaudeHaiku4_5),
		bedrock.WithRegion("us-west-2"),
		bedrock.WithClient(rt),
	)
	require.NoError(t, err)

	resp, err := llm.GenerateContent(t.Context(),
		[]llms.Message{llms.SystemMessage("Be brief."), llms.UserMessage("Weather in Paris?")},
		llms.WithTools([]llms.Tool{weatherTool}),
		llms.WithToolChoice(llms.ToolChoiceAuto),
	)
	require.NoError(t, err)

	assert.Equal(t, bedrock.ModelAnthropicClaudeHaiku4_5, aws.ToString(rt.input.ModelId))
	req := gjson.ParseBytes(rt.input.Body)
	assert.Equal(t, "bedrock-2023-05-31", req.Get("anthropic_version").String())
	assert.Equal(t, int64(4096), req.Get("max_tokens").Int())
	assert.Equal(t, "Be brief.", req.Get("system").String())
	assert.Equal(t, "Weather in Paris?", req.Get("messages.0.content.0.text").String())
	assert.Equal(t, "getWeather", req.Get("tools.0.name").String())
	assert.Equal(t, "city", req.Get("tools.0.input_schema.required.0").String())
	assert.Equal(t, "auto", req.Get("tool_choice.type").String())

	choice := resp.TopChoice()
	require.NotNil(t, choice)
	assert.Equal(t, "Checking.", choice.Content)
	assert.Equal(t, "tool_use", choice.StopReason)
	require.Len(t, choice.ToolCalls, 1)
	assert.Equal(t, "toolu_1", choice.ToolCalls[0].ID)
	assert.JSONEq(t, `{"city":"Paris"}`, choice.ToolCalls[0].Arguments())
	assert.Equal(t, int64(13), choice.GenerationInfo["TotalTokens"])
}

func TestGenerateContent_Errors(t *testing.T) {
	t.Parallel()

	errThrottled := errors.New("ThrottlingException")
	rt := &fakeRuntime{err: errThrottled}
	llm, err := bedrock.New(t.Context(), bedrock.WithClient(rt))
	require.NoError(t, err)

	_, err = llm.GenerateContent(t.Context(), []llms.Message{llms.UserMessage("hi")})
	assert.Same(t, errThrottled, err)

	_, err = llm.GenerateContent(t.Context(), []llms.Message{llms.UserMessage("hi")}, llms.WithModel("meta.llama3-8b-instruct-v1:0"))
	assert.True(t, errors.Is(err, bedrock.ErrUnsupportedProvider))

	rt.err = nil
	rt.body = `{"content": [], "stop_reason": "end_turn"}`
	resp, err := llm.GenerateContent(t.Context(), []llms.Message{llms.UserMessage("hi")})
	require.NoError(t, err)
	assert.Nil(t, resp.TopChoice())

	rt.body = `not json`
	_, err = llm.GenerateContent(t.Context(), []llms.Message{llms.UserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}
