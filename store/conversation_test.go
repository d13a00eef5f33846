package store_test

import (
	"testing"

	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Conversation(t *testing.T) {
	t.Parallel()

	c := store.New()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Messages())
	_, ok := c.Last()
	assert.False(t, ok)

	c.Append(llms.UserMessage("What is the weather in Paris?"))
	c.Append(
		llms.AssistantMessage("", llms.ToolCall{
			ID:           "call_1",
			Type:         llms.ToolTypeFunction,
			FunctionCall: &llms.FunctionCall{Name: "getWeather", Arguments: `{"city":"Paris"}`},
		}),
		llms.ToolMessage("call_1", "getWeather", "Sunny, 22C"),
	)
	require.Equal(t, 3, c.Len())

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, llms.RoleTool, last.Role)

	exp := []llms.Message{
		{Role: llms.RoleUser, Content: "What is the weather in Paris?"},
		{Role: llms.RoleAssistant, ToolCalls: []llms.ToolCall{{
			ID:           "call_1",
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: "getWeather", Arguments: `{"city":"Paris"}`},
		}}},
		{Role: llms.RoleTool, Content: "Sunny, 22C", ToolCallID: "call_1", Name: "getWeather"},
	}
	if diff := cmp.Diff(exp, c.Messages()); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Messages())

	// clear is idempotent
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func Test_InsertSystemMessage(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		c := store.New()
		c.InsertSystemMessage(llms.SystemMessage("be brief"))
		assert.Equal(t, []llms.Message{llms.SystemMessage("be brief")}, c.Messages())
	})

	t.Run("prepend", func(t *testing.T) {
		t.Parallel()
		c := store.New(llms.UserMessage("hi"))
		c.InsertSystemMessage(llms.SystemMessage("be brief"))
		assert.Equal(t, []llms.Message{
			llms.SystemMessage("be brief"),
			llms.UserMessage("hi"),
		}, c.Messages())
	})

	t.Run("replace", func(t *testing.T) {
		t.Parallel()
		c := store.New(llms.SystemMessage("old"), llms.UserMessage("hi"))
		c.InsertSystemMessage(llms.SystemMessage("new"))
		c.InsertSystemMessage(llms.SystemMessage("newer"))
		assert.Equal(t, []llms.Message{
			llms.SystemMessage("newer"),
			llms.UserMessage("hi"),
		}, c.Messages())
	})

	t.Run("system not first", func(t *testing.T) {
		t.Parallel()
		c := store.New(llms.UserMessage("hi"), llms.SystemMessage("late"))
		c.InsertSystemMessage(llms.SystemMessage("first"))
		msgs := c.Messages()
		require.Len(t, msgs, 3)
		assert.Equal(t, llms.SystemMessage("first"), msgs[0])
		assert.Equal(t, llms.SystemMessage("late"), msgs[2])
	})

	t.Run("role is forced", func(t *testing.T) {
		t.Parallel()
		c := store.New(llms.UserMessage("hi"))
		c.InsertSystemMessage(llms.UserMessage("be brief"))
		first := c.Messages()[0]
		assert.Equal(t, llms.RoleSystem, first.Role)
		assert.Equal(t, 2, c.Len())
	})
}

func Test_ConversationDoesNotAlias(t *testing.T) {
	t.Parallel()

	input := []llms.Message{
		llms.UserMessage("hi"),
		llms.AssistantMessage("", llms.ToolCall{ID: "1", FunctionCall: &llms.FunctionCall{Name: "f", Arguments: "{}"}}),
	}
	c := store.New(input...)

	// caller mutations do not change the history
	input[0].Content = "changed"
	input[1].ToolCalls[0].FunctionCall.Name = "g"

	msgs := c.Messages()
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "f", msgs[1].ToolCalls[0].Name())

	// returned copies do not change the history
	msgs[1].ToolCalls[0].FunctionCall.Arguments = `{"x":1}`
	msgs[0].Content = "changed"
	again := c.Messages()
	assert.Equal(t, "hi", again[0].Content)
	assert.Equal(t, "{}", again[1].ToolCalls[0].Arguments())

	last, _ := c.Last()
	last.ToolCalls[0].ID = "2"
	last, _ = c.Last()
	assert.Equal(t, "1", last.ToolCalls[0].ID)
}
