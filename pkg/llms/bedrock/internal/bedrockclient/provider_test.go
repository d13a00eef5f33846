package bedrockclient

import (
	"testing"

	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProvider(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"anthropic.claude-3-sonnet-20240229-v1:0":          "anthropic",
		"us.anthropic.claude-sonnet-4-5-20250929-v1:0":     "anthropic",
		"eu.anthropic.claude-3-haiku-20240307-v1:0":        "anthropic",
		"apac.anthropic.claude-3-5-sonnet-20240620-v1:0":   "anthropic",
		"global.anthropic.claude-sonnet-4-5-20250929-v1:0": "anthropic",
		"amazon.titan-text-premier-v1:0":                   "amazon",
		"us.meta.llama3-2-11b-instruct-v1:0":               "meta",
		"anthropic":                                        "anthropic",
	}
	for modelID, exp := range tests {
		assert.Equal(t, exp, GetProvider(modelID), modelID)
	}
}

func TestProcessInputMessagesAnthropic(t *testing.T) {
	t.Parallel()

	msgs, system, err := processInputMessagesAnthropic([]llms.Message{
		llms.SystemMessage("Be brief."),
		llms.UserMessage("Weather?"),
		llms.AssistantMessage("Checking.",
			llms.ToolCall{ID: "toolu_1", FunctionCall: &llms.FunctionCall{Name: "getWeather", Arguments: `{"city":"Paris"}`}},
			llms.ToolCall{ID: "toolu_2", FunctionCall: &llms.FunctionCall{Name: "now"}},
		),
		llms.ToolMessage("toolu_1", "getWeather", "Sunny"),
		llms.ToolMessage("toolu_2", "now", "noon"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", system)
	require.Len(t, msgs, 3)

	assert.Equal(t, AnthropicRoleUser, msgs[0].Role)
	assert.Equal(t, "Weather?", msgs[0].Content[0].Text)

	assert.Equal(t, AnthropicRoleAssistant, msgs[1].Role)
	require.Len(t, msgs[1].Content, 3)
	assert.Equal(t, AnthropicMessageTypeToolUse, msgs[1].Content[1].Type)
	assert.JSONEq(t, `{"city":"Paris"}`, string(msgs[1].Content[1].Input))
	assert.JSONEq(t, `{}`, string(msgs[1].Content[2].Input))

	assert.Equal(t, AnthropicRoleUser, msgs[2].Role)
	require.Len(t, msgs[2].Content, 2)
	assert.Equal(t, "toolu_2", msgs[2].Content[1].ToolUseID)
	assert.Equal(t, "noon", msgs[2].Content[1].Content)

	_, _, err = processInputMessagesAnthropic([]llms.Message{{Role: "critic"}})
	assert.EqualError(t, err, "bedrock: role not supported: critic")

	_, _, err = processInputMessagesAnthropic([]llms.Message{llms.AssistantMessage("",
		llms.ToolCall{ID: "toolu_1", FunctionCall: &llms.FunctionCall{Name: "x", Arguments: "{"}})})
	assert.EqualError(t, err, "bedrock: invalid tool call arguments: toolu_1")
}

func TestAnthropicToolChoice(t *testing.T) {
	t.Parallel()

	c, err := anthropicToolChoiceFrom("required")
	require.NoError(t, err)
	assert.Equal(t, "any", c.Type)

	c, err = anthropicToolChoiceFrom(&llms.ToolChoice{Function: &llms.FunctionReference{Name: "getWeather"}})
	require.NoError(t, err)
	assert.Equal(t, &anthropicToolChoice{Type: "tool", Name: "getWeather"}, c)

	_, err = anthropicToolChoiceFrom(1)
	assert.EqualError(t, err, "bedrock: unsupported tool choice: 1")
}

func TestToContentResponse(t *testing.T) {
	t.Parallel()

	resp := toContentResponse(&anthropicOutput{})
	assert.Empty(t, resp.Choices)
}
