package tools

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/chatmodel"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/metricskey"
	"github.com/effective-security/agentloop/pkg/schema"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Result is the output of a tool call
type Result struct {
	CallID  string
	Name    string
	Content string
}

// Message returns the tool message for the conversation
func (r *Result) Message() llms.Message {
	return llms.ToolMessage(r.CallID, r.Name, r.Content)
}

// Dispatcher executes the tool calls requested by the model.
type Dispatcher struct {
	registry *Registry
	callback Callback
}

// NewDispatcher returns a dispatcher for the registry,
// the callback is optional.
func NewDispatcher(registry *Registry, callback Callback) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		callback: callback,
	}
}

// Execute looks up the requested tool, validates the arguments
// against the tool schema and calls the tool.
//
// ErrUnknownTool is returned for a tool that is not registered,
// ErrInvalidToolArguments for the arguments that do not match the schema.
// The error of the tool is returned as is.
func (d *Dispatcher) Execute(ctx context.Context, call llms.ToolCall) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	name := call.Name()
	entry, ok := d.registry.Lookup(name)
	if !ok {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "tool_not_found",
			"tool", name,
			"call_id", call.ID,
		)
		if d.callback != nil {
			d.callback.OnToolNotFound(ctx, call.ID, name)
		}
		return nil, errors.WithMessagef(chatmodel.ErrUnknownTool, "LLM tried to call unknown tool %q", name)
	}

	args, err := PrepareArguments(entry.Schema, call.Arguments())
	if err != nil {
		metricskey.StatsToolCallsInvalidArguments.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.DEBUG,
			"reason", "invalid_arguments",
			"tool", name,
			"call_id", call.ID,
			"err", err.Error(),
		)
		return nil, errors.WithMessagef(err, "tool %s", name)
	}

	if d.callback != nil {
		d.callback.OnToolStart(ctx, entry.Tool, call.ID, args)
	}

	started := time.Now()
	out, err := entry.Tool.Call(ctx, args)
	metricskey.PerfToolCall.MeasureSince(started, name)

	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.DEBUG,
			"reason", "tool_failed",
			"tool", name,
			"call_id", call.ID,
			"err", err.Error(),
		)
		if d.callback != nil {
			d.callback.OnToolError(ctx, entry.Tool, call.ID, args, err)
		}
		return nil, err
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, name)
	if d.callback != nil {
		d.callback.OnToolEnd(ctx, entry.Tool, call.ID, args, out)
	}

	return &Result{
		CallID:  call.ID,
		Name:    name,
		Content: out,
	}, nil
}

// PrepareArguments checks the raw arguments of a tool call,
// and returns the JSON object with the schema defaults applied
// to the missing top level properties.
// Empty arguments are treated as an empty object.
func PrepareArguments(params *jsonschema.Schema, raw string) (string, error) {
	args := strings.TrimSpace(raw)
	if args == "" {
		args = "{}"
	}
	if !gjson.Valid(args) {
		return "", errors.Mark(errors.New("arguments are not valid JSON"), chatmodel.ErrInvalidToolArguments)
	}
	if !gjson.Parse(args).IsObject() {
		return "", errors.Mark(errors.New("arguments must be a JSON object"), chatmodel.ErrInvalidToolArguments)
	}

	if params != nil && params.Properties != nil {
		var err error
		for pair := params.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value == nil || pair.Value.Default == nil {
				continue
			}
			path, ok := escapePath(pair.Key)
			if !ok || gjson.Get(args, path).Exists() {
				continue
			}
			args, err = sjson.Set(args, path, pair.Value.Default)
			if err != nil {
				return "", errors.Wrapf(err, "failed to set default of %q", pair.Key)
			}
		}
	}

	dec := json.NewDecoder(strings.NewReader(args))
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return "", errors.Mark(errors.Wrap(err, "failed to decode arguments"), chatmodel.ErrInvalidToolArguments)
	}
	if err := schema.Validate(params, values); err != nil {
		return "", errors.Mark(err, chatmodel.ErrInvalidToolArguments)
	}
	return args, nil
}

// escapePath returns the gjson path of the top level key,
// the keys with path modifiers are not supported.
func escapePath(key string) (string, bool) {
	if key == "" || strings.ContainsAny(key, `\|#@`) {
		return "", false
	}
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key), true
}

// EnsureCallIDs returns the tool calls with the missing IDs generated,
// and the missing type set to function.
func EnsureCallIDs(calls []llms.ToolCall) []llms.ToolCall {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = "call_" + uuid.NewString()
		}
		if calls[i].Type == "" {
			calls[i].Type = ToolTypeFunction
		}
	}
	return calls
}
