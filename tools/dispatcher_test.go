package tools_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/chatmodel"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/tools"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []string
}

func (r *recorder) OnToolStart(_ context.Context, tool tools.ITool, callID, input string) {
	r.events = append(r.events, fmt.Sprintf("start %s %s %s", tool.Name(), callID, input))
}

func (r *recorder) OnToolEnd(_ context.Context, tool tools.ITool, callID, _, output string) {
	r.events = append(r.events, fmt.Sprintf("end %s %s %s", tool.Name(), callID, output))
}

func (r *recorder) OnToolError(_ context.Context, tool tools.ITool, callID, _ string, err error) {
	r.events = append(r.events, fmt.Sprintf("error %s %s %s", tool.Name(), callID, err.Error()))
}

func (r *recorder) OnToolNotFound(_ context.Context, callID, name string) {
	r.events = append(r.events, fmt.Sprintf("notfound %s %s", name, callID))
}

func toolCall(id, name, args string) llms.ToolCall {
	return llms.ToolCall{
		ID:           id,
		Type:         "function",
		FunctionCall: &llms.FunctionCall{Name: name, Arguments: args},
	}
}

func TestDispatcher(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fake := &fakeTool{
		name:   "get_weather",
		params: weatherParams(t),
		out:    "sunny",
	}
	r, err := tools.NewRegistry(fake)
	require.NoError(t, err)

	rec := &recorder{}
	d := tools.NewDispatcher(r, rec)

	res, err := d.Execute(ctx, toolCall("call_1", "get_weather", `{"location":"Paris"}`))
	require.NoError(t, err)
	assert.Equal(t, &tools.Result{CallID: "call_1", Name: "get_weather", Content: "sunny"}, res)
	assert.Equal(t, llms.ToolMessage("call_1", "get_weather", "sunny"), res.Message())

	require.Len(t, fake.args, 1)
	assert.JSONEq(t, `{"location":"Paris","unit":"celsius"}`, fake.args[0])
	require.Len(t, rec.events, 2)
	assert.True(t, strings.HasPrefix(rec.events[0], "start get_weather call_1 "))
	assert.Equal(t, "end get_weather call_1 sunny", rec.events[1])

	_, err = d.Execute(ctx, toolCall("call_2", "get_weather", `{"location":"Oslo","unit":"fahrenheit"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"location":"Oslo","unit":"fahrenheit"}`, fake.args[1])
}

func TestDispatcherErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fake := &fakeTool{
		name:   "get_weather",
		params: weatherParams(t),
		err:    errBoom,
	}
	r, err := tools.NewRegistry(fake)
	require.NoError(t, err)

	rec := &recorder{}
	d := tools.NewDispatcher(r, rec)

	_, err = d.Execute(ctx, toolCall("call_1", "nope", `{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, chatmodel.ErrUnknownTool))
	assert.EqualError(t, err, `LLM tried to call unknown tool "nope": unknown tool`)
	assert.Equal(t, []string{"notfound nope call_1"}, rec.events)

	tcs := []struct {
		args string
		err  string
	}{
		{args: `not json`, err: "arguments are not valid JSON"},
		{args: `[1,2]`, err: "arguments must be a JSON object"},
		{args: `"Paris"`, err: "arguments must be a JSON object"},
		{args: ``, err: `'location'`},
		{args: `{"location":42}`, err: "location: "},
		{args: `{"location":"Paris","unit":"kelvin"}`, err: "unit: "},
	}
	for _, tc := range tcs {
		_, err = d.Execute(ctx, toolCall("call_2", "get_weather", tc.args))
		require.Error(t, err, tc.args)
		assert.True(t, errors.Is(err, chatmodel.ErrInvalidToolArguments), tc.args)
		assert.Contains(t, err.Error(), tc.err, tc.args)
		assert.Contains(t, err.Error(), "tool get_weather", tc.args)
	}
	assert.Empty(t, fake.args)
	assert.Len(t, rec.events, 1)

	_, err = d.Execute(ctx, toolCall("call_3", "get_weather", `{"location":"Paris"}`))
	assert.Equal(t, errBoom, err)
	assert.Equal(t, "error get_weather call_3 boom", rec.events[len(rec.events)-1])

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = d.Execute(cctx, toolCall("call_4", "get_weather", `{"location":"Paris"}`))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, fake.args, 1)
}

func TestDispatcherNoCallback(t *testing.T) {
	t.Parallel()

	fake := &fakeTool{name: "ping", params: objectSchema(), out: "pong"}
	r, err := tools.NewRegistry(fake)
	require.NoError(t, err)

	d := tools.NewDispatcher(r, nil)
	res, err := d.Execute(context.Background(), toolCall("id", "ping", ""))
	require.NoError(t, err)
	assert.Equal(t, "pong", res.Content)
	assert.Equal(t, []string{"{}"}, fake.args)

	_, err = d.Execute(context.Background(), toolCall("id", "missing", ""))
	assert.True(t, errors.Is(err, chatmodel.ErrUnknownTool))
}

func TestPrepareArguments(t *testing.T) {
	t.Parallel()

	params := weatherParams(t)
	args, err := tools.PrepareArguments(params, ` {"location":"Paris"} `)
	require.NoError(t, err)
	assert.JSONEq(t, `{"location":"Paris","unit":"celsius"}`, args)

	args, err = tools.PrepareArguments(nil, ``)
	require.NoError(t, err)
	assert.Equal(t, "{}", args)

	args, err = tools.PrepareArguments(nil, `{"any":[1,2]}`)
	require.NoError(t, err)
	assert.Equal(t, `{"any":[1,2]}`, args)
}

func TestEnsureCallIDs(t *testing.T) {
	t.Parallel()

	calls := tools.EnsureCallIDs([]llms.ToolCall{
		{ID: "keep", Type: "function", FunctionCall: &llms.FunctionCall{Name: "a"}},
		{FunctionCall: &llms.FunctionCall{Name: "b"}},
		{FunctionCall: &llms.FunctionCall{Name: "c"}},
	})
	require.Len(t, calls, 3)
	assert.Equal(t, "keep", calls[0].ID)
	assert.True(t, strings.HasPrefix(calls[1].ID, "call_"))
	assert.Equal(t, tools.ToolTypeFunction, calls[1].Type)
	assert.NotEqual(t, calls[1].ID, calls[2].ID)

	assert.Empty(t, tools.EnsureCallIDs(nil))
}

func weatherParams(t *testing.T) *jsonschema.Schema {
	return newFunction(t, "get_weather", "", getWeather).Parameters()
}
