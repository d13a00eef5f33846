package llmutils_test

import (
	"strings"
	"testing"

	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/stretchr/testify/assert"
)

func Test_CleanJSON(t *testing.T) {
	t.Parallel()

	llmOutput := "\n```json\n\n{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"
	clean := llmutils.CleanJSON([]byte(llmOutput))

	expected := "{\"city\": \"Paris\", \"country\": \"France\"}"
	assert.Equal(t, expected, string(clean))

	llmOutput = "Here you go:\n```json\n\n[{\"city\": \"Paris\", \"country\": \"France\"}]\n```\n\n"
	clean = llmutils.CleanJSON([]byte(llmOutput))

	expected = "[{\"city\": \"Paris\", \"country\": \"France\"}]"
	assert.Equal(t, expected, string(clean))

	assert.Equal(t, "no json", string(llmutils.CleanJSON([]byte("no json"))))
}

func Test_TrimBackticks(t *testing.T) {
	t.Parallel()

	expected := "{\"city\": \"Paris\", \"country\": \"France\"}"

	assert.Equal(t, expected, llmutils.TrimBackticks("\n```json\n\n{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"))
	// the same
	assert.Equal(t, expected, llmutils.TrimBackticks(expected))
	assert.Equal(t, expected, llmutils.TrimBackticks("\n```\n\n{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"))
	assert.Equal(t, expected, llmutils.TrimBackticks("\n```{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"))
}

func Test_Backticks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "\n```json\n{\"city\": \"Paris\"}\n```\n", llmutils.BackticksJSON("{\"city\": \"Paris\"}"))
	assert.Equal(t, "\n```yaml\nname: John\nage: 30\n```\n", llmutils.BackticksYAML("name: John\nage: 30"))
}

func Test_EnsureNewline(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", llmutils.EnsureEndsWithNewline(" \n"))
	assert.Equal(t, "Hello\n", llmutils.EnsureEndsWithNewline(" \nHello"))
	assert.Equal(t, "Hello\n", llmutils.EnsureEndsWithNewline("\nHello\n"))
	assert.Equal(t, "Hello\n", llmutils.EnsureEndsWithNewline("Hello\n\n\n"))
}

type Person struct {
	Name string `json:"name" yaml:"name"`
	Age  int    `json:"age" yaml:"age"`
}

type CustomString struct{}

func (c CustomString) String() string { return "custom string" }

func Test_Encoders(t *testing.T) {
	t.Parallel()

	p := Person{Name: "John", Age: 30}
	assert.Equal(t, `{"name":"John","age":30}`, llmutils.ToJSON(p))
	assert.Equal(t, "{\n\t\"name\": \"John\",\n\t\"age\": 30\n}", llmutils.ToJSONIndent(p))
	assert.Equal(t, "{\n\t\"name\": \"John\",\n\t\"age\": 30\n}", llmutils.JSONIndent(`{"name":"John","age":30}`))
	assert.Equal(t, "name: John\nage: 30\n", llmutils.ToYAML(p))
}

func Test_Stringify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello", llmutils.Stringify("hello"))
	assert.Equal(t, "custom string", llmutils.Stringify(CustomString{}))

	expected := "\n```json\n{\n\t\"name\": \"John\",\n\t\"age\": 30\n}\n```\n"
	assert.Equal(t, expected, llmutils.Stringify(Person{Name: "John", Age: 30}))

	resp := llmutils.NewContentResponse(Person{Name: "John", Age: 30})
	assert.Len(t, resp.Choices, 1)
	assert.Equal(t, expected, resp.Choices[0].Content)
	assert.False(t, resp.TopChoice().HasToolCalls())
}

func testConversation() []llms.Message {
	return []llms.Message{
		llms.SystemMessage("be brief"),
		llms.UserMessage("What is the weather in Paris?"),
		llms.AssistantMessage("", llms.ToolCall{
			ID:           "call_1",
			Type:         llms.ToolTypeFunction,
			FunctionCall: &llms.FunctionCall{Name: "getWeather", Arguments: `{"city":"Paris"}`},
		}),
		llms.ToolMessage("call_1", "getWeather", "Sunny, 22C"),
		llms.AssistantMessage("It is sunny, 22C."),
	}
}

func Test_PrintMessages(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	llmutils.PrintMessages(&buf, testConversation())
	exp := "SYSTEM: be brief\n" +
		"USER: What is the weather in Paris?\n" +
		"ASSISTANT: \n" +
		"ToolCall ID=call_1, Type=function, Func=getWeather({\"city\":\"Paris\"})\n" +
		"TOOL: [call_1 getWeather] Sunny, 22C\n" +
		"ASSISTANT: It is sunny, 22C.\n"
	assert.Equal(t, exp, buf.String())
}

func Test_FindLastUserQuestion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "What is the weather in Paris?", llmutils.FindLastUserQuestion(testConversation()))
	assert.Empty(t, llmutils.FindLastUserQuestion(nil))
}

func Test_CountSize(t *testing.T) {
	t.Parallel()

	msgs := []llms.Message{llms.UserMessage("Hello")}
	assert.Equal(t, uint64(len("user")+len("Hello")), llmutils.CountMessagesContentSize(msgs))
	assert.Greater(t, llmutils.CountMessagesContentSize(testConversation()), uint64(0))

	resp := llmutils.NewContentResponse("Hello world", llms.ToolCall{
		ID:           "1",
		FunctionCall: &llms.FunctionCall{Name: "f", Arguments: "{}"},
	})
	assert.Equal(t, uint64(len("Hello world")+1+1+2), llmutils.CountResponseContentSize(resp))
	assert.Equal(t, uint64(0), llmutils.CountResponseContentSize(nil))

	resp.Choices = append(resp.Choices, nil)
	assert.Equal(t, uint64(len("Hello world")+1+1+2), llmutils.CountResponseContentSize(resp))
}

func Test_CountTokens(t *testing.T) {
	t.Parallel()

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{GenerationInfo: map[string]any{"InputTokens": int64(10), "OutputTokens": int64(5), "TotalTokens": int64(15)}},
			{GenerationInfo: map[string]any{"InputTokens": int64(1), "OutputTokens": int64(2), "TotalTokens": int64(3)}},
			{},
			nil,
		},
	}
	in, out, total := llmutils.CountTokens(resp)
	assert.Equal(t, int64(11), in)
	assert.Equal(t, int64(7), out)
	assert.Equal(t, int64(18), total)

	in, out, total = llmutils.CountTokens(nil)
	assert.Zero(t, in+out+total)
}
