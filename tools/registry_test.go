package tools_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/chatmodel"
	"github.com/effective-security/agentloop/tools"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	name   string
	params *jsonschema.Schema
	out    string
	err    error
	args   []string
}

func (f *fakeTool) Name() string                   { return f.name }
func (f *fakeTool) Description() string            { return "fake " + f.name }
func (f *fakeTool) Parameters() *jsonschema.Schema { return f.params }

func (f *fakeTool) Call(_ context.Context, args string) (string, error) {
	f.args = append(f.args, args)
	return f.out, f.err
}

func objectSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	weather := newFunction(t, "get_weather", "Returns the weather", getWeather)
	r, err := tools.NewRegistry(weather, &fakeTool{name: "b", params: objectSchema()})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"get_weather", "b"}, r.Names())

	e, ok := r.Lookup("get_weather")
	require.True(t, ok)
	assert.Equal(t, "get_weather", e.Name)
	assert.Same(t, weather.Parameters(), e.Schema)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	replaced := &fakeTool{name: "get_weather", params: objectSchema()}
	require.NoError(t, r.Add(&fakeTool{name: "c", params: objectSchema()}, replaced))
	assert.Equal(t, []string{"get_weather", "b", "c"}, r.Names())
	e, _ = r.Lookup("get_weather")
	assert.Same(t, replaced, e.Tool)
	assert.Len(t, r.Tools(), 3)

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, tools.ToolTypeFunction, defs[0].Type)
	assert.Equal(t, "get_weather", defs[0].Function.Name)
	assert.Equal(t, "fake get_weather", defs[0].Function.Description)
	assert.Equal(t, "c", defs[2].Function.Name)

	names := r.Names()
	names[0] = "changed"
	assert.Equal(t, "get_weather", r.Names()[0])
}

func TestRegistryEmpty(t *testing.T) {
	t.Parallel()

	var r tools.Registry
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Definitions())
	require.NoError(t, r.Register("late", &fakeTool{name: "other", params: objectSchema()}))
	e, ok := r.Lookup("late")
	require.True(t, ok)
	assert.Equal(t, "late", e.Name)
}

func TestRegistryInvalid(t *testing.T) {
	t.Parallel()

	r, err := tools.NewRegistry()
	require.NoError(t, err)

	tcs := []struct {
		name string
		tool tools.ITool
		err  string
	}{
		{name: "", tool: &fakeTool{params: objectSchema()}, err: `invalid tool name ""`},
		{name: "has space", tool: &fakeTool{params: objectSchema()}, err: `invalid tool name "has space"`},
		{name: "has.dot", tool: &fakeTool{params: objectSchema()}, err: `invalid tool name "has.dot"`},
		{name: strings.Repeat("a", 65), tool: &fakeTool{params: objectSchema()}, err: `invalid tool name`},
		{name: "nil", tool: nil, err: "tool nil is nil"},
		{name: "noschema", tool: &fakeTool{}, err: "tool noschema: parameters must be an object schema"},
		{name: "array", tool: &fakeTool{params: &jsonschema.Schema{Type: "array"}}, err: "tool array: parameters must be an object schema"},
	}
	for _, tc := range tcs {
		err := r.Register(tc.name, tc.tool)
		require.Error(t, err, tc.name)
		assert.Contains(t, err.Error(), tc.err)
		assert.True(t, errors.Is(err, chatmodel.ErrConfiguration))
	}
	assert.Equal(t, 0, r.Len())

	err = r.Add(nil)
	assert.True(t, errors.Is(err, chatmodel.ErrConfiguration))

	_, err = tools.NewRegistry(&fakeTool{name: "bad name"})
	assert.True(t, errors.Is(err, chatmodel.ErrConfiguration))
}

func TestGetDescriptions(t *testing.T) {
	t.Parallel()

	d := tools.GetDescriptions(&fakeTool{name: "a"}, &fakeTool{name: "b"})
	assert.Equal(t, "\n```json\n{\n\t\"Tools\": [\n\t\t{\n\t\t\t\"Name\": \"a\",\n\t\t\t\"Description\": \"fake a\"\n\t\t},\n\t\t{\n\t\t\t\"Name\": \"b\",\n\t\t\t\"Description\": \"fake b\"\n\t\t}\n\t]\n}\n```\n", d)
}
