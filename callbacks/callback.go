package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/effective-security/agentloop/tools"
	"github.com/effective-security/xlog"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ assistants.Callback = (*Noop)(nil)
	_ tools.Callback      = (*Noop)(nil)
	_ assistants.Callback = (*Printer)(nil)
	_ tools.Callback      = (*Printer)(nil)
	_ assistants.Callback = (*PackageLogger)(nil)
	_ tools.Callback      = (*PackageLogger)(nil)
	_ assistants.Callback = (*Fanout)(nil)
	_ tools.Callback      = (*Fanout)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []assistants.Callback
}

func NewFanout(callbacks ...assistants.Callback) *Fanout {
	return &Fanout{callbacks: callbacks}
}

func (l *Fanout) Add(callback assistants.Callback) {
	l.callbacks = append(l.callbacks, callback)
}

func (l *Fanout) OnAssistantStart(ctx context.Context, agent assistants.IAssistant, input string) {
	for _, callback := range l.callbacks {
		callback.OnAssistantStart(ctx, agent, input)
	}
}

func (l *Fanout) OnAssistantEnd(ctx context.Context, agent assistants.IAssistant, input string, resp *llms.ContentResponse, messages []llms.Message) {
	for _, callback := range l.callbacks {
		callback.OnAssistantEnd(ctx, agent, input, resp, messages)
	}
}

func (l *Fanout) OnAssistantError(ctx context.Context, agent assistants.IAssistant, input string, err error, messages []llms.Message) {
	for _, callback := range l.callbacks {
		callback.OnAssistantError(ctx, agent, input, err, messages)
	}
}

func (l *Fanout) OnAssistantLLMCallStart(ctx context.Context, agent assistants.IAssistant, llm llms.Model, payload []llms.Message) {
	for _, callback := range l.callbacks {
		callback.OnAssistantLLMCallStart(ctx, agent, llm, payload)
	}
}

func (l *Fanout) OnAssistantLLMCallEnd(ctx context.Context, agent assistants.IAssistant, llm llms.Model, resp *llms.ContentResponse) {
	for _, callback := range l.callbacks {
		callback.OnAssistantLLMCallEnd(ctx, agent, llm, resp)
	}
}

func (l *Fanout) OnToolStart(ctx context.Context, tool tools.ITool, callID, input string) {
	for _, callback := range l.callbacks {
		callback.OnToolStart(ctx, tool, callID, input)
	}
}

func (l *Fanout) OnToolEnd(ctx context.Context, tool tools.ITool, callID, input, output string) {
	for _, callback := range l.callbacks {
		callback.OnToolEnd(ctx, tool, callID, input, output)
	}
}

func (l *Fanout) OnToolError(ctx context.Context, tool tools.ITool, callID, input string, err error) {
	for _, callback := range l.callbacks {
		callback.OnToolError(ctx, tool, callID, input, err)
	}
}

func (l *Fanout) OnToolNotFound(ctx context.Context, callID, name string) {
	for _, callback := range l.callbacks {
		callback.OnToolNotFound(ctx, callID, name)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) OnAssistantStart(ctx context.Context, agent assistants.IAssistant, input string) {
}
func (l *Noop) OnAssistantEnd(ctx context.Context, agent assistants.IAssistant, input string, resp *llms.ContentResponse, messages []llms.Message) {
}
func (l *Noop) OnAssistantError(ctx context.Context, agent assistants.IAssistant, input string, err error, messages []llms.Message) {
}
func (l *Noop) OnAssistantLLMCallStart(ctx context.Context, agent assistants.IAssistant, llm llms.Model, payload []llms.Message) {
}
func (l *Noop) OnAssistantLLMCallEnd(ctx context.Context, agent assistants.IAssistant, llm llms.Model, resp *llms.ContentResponse) {
}
func (l *Noop) OnToolStart(ctx context.Context, tool tools.ITool, callID, input string) {}
func (l *Noop) OnToolEnd(ctx context.Context, tool tools.ITool, callID, input, output string) {
}
func (l *Noop) OnToolError(ctx context.Context, tool tools.ITool, callID, input string, err error) {
}
func (l *Noop) OnToolNotFound(ctx context.Context, callID, name string) {}

// Printer is a callback handler that prints to the Writer.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) OnAssistantStart(ctx context.Context, agent assistants.IAssistant, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Assistant Start: %s\n", agent.Name())
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

func (l *Printer) OnAssistantEnd(ctx context.Context, agent assistants.IAssistant, input string, resp *llms.ContentResponse, messages []llms.Message) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Assistant End: %s\n", agent.Name())
	if l.Mode == ModeVerbose {
		if choice := resp.TopChoice(); choice != nil && choice.Content != "" {
			fmt.Fprintln(l.Out, choice.Content)
		}
		llmutils.PrintMessages(l.Out, messages)
	}
}

func (l *Printer) OnAssistantError(ctx context.Context, agent assistants.IAssistant, input string, err error, messages []llms.Message) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Assistant Error: %s: %s\n", agent.Name(), err.Error())
}

func (l *Printer) OnAssistantLLMCallStart(ctx context.Context, agent assistants.IAssistant, llm llms.Model, payload []llms.Message) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Assistant LLM Call: %s: %s model, %d messages\n", agent.Name(), llm.GetName(), len(payload))
}

func (l *Printer) OnAssistantLLMCallEnd(ctx context.Context, agent assistants.IAssistant, llm llms.Model, resp *llms.ContentResponse) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Assistant LLM Call End: %s: %s model, %d tool calls\n", agent.Name(), llm.GetName(), toolCallsCount(resp))
}

func toolCallsCount(resp *llms.ContentResponse) int {
	if choice := resp.TopChoice(); choice != nil {
		return len(choice.ToolCalls)
	}
	return 0
}

func (l *Printer) OnToolStart(ctx context.Context, tool tools.ITool, callID, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "🤖 Called tool %s\n", tool.Name())
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Input (%s): %s\n", callID, input)
	}
}

func (l *Printer) OnToolEnd(ctx context.Context, tool tools.ITool, callID, input, output string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Tool End: %s (%s)\n", tool.Name(), callID)
		fmt.Fprintf(l.Out, "Output: %s\n", output)
	}
}

func (l *Printer) OnToolError(ctx context.Context, tool tools.ITool, callID, input string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Error: %s (%s): %s\n", tool.Name(), callID, err.Error())
}

func (l *Printer) OnToolNotFound(ctx context.Context, callID, name string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Not Found: %s (%s)\n", name, callID)
}

// PackageLogger is a callback handler that prints to the logger.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) OnAssistantStart(ctx context.Context, agent assistants.IAssistant, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "assistant_start",
		"assistant", agent.Name(),
		"input", input,
	)
}

func (l *PackageLogger) OnAssistantEnd(ctx context.Context, agent assistants.IAssistant, input string, resp *llms.ContentResponse, messages []llms.Message) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "assistant_end",
		"assistant", agent.Name(),
		"messages", len(messages),
	)
	if choice := resp.TopChoice(); choice != nil && choice.Content != "" {
		l.logger.ContextKV(ctx, xlog.DEBUG, "result", choice.Content)
	}
}

func (l *PackageLogger) OnAssistantError(ctx context.Context, agent assistants.IAssistant, input string, err error, messages []llms.Message) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "assistant_error",
		"assistant", agent.Name(),
		"messages", len(messages),
		"err", err.Error(),
	)
}

func (l *PackageLogger) OnAssistantLLMCallStart(ctx context.Context, agent assistants.IAssistant, llm llms.Model, payload []llms.Message) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "assistant_llm_call_start",
		"assistant", agent.Name(),
		"model", llm.GetName(),
		"messages", len(payload),
	)
}

func (l *PackageLogger) OnAssistantLLMCallEnd(ctx context.Context, agent assistants.IAssistant, llm llms.Model, resp *llms.ContentResponse) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "assistant_llm_call_end",
		"assistant", agent.Name(),
		"model", llm.GetName(),
		"tool_calls", toolCallsCount(resp),
	)
}

func (l *PackageLogger) OnToolStart(ctx context.Context, tool tools.ITool, callID, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool.Name(),
		"call_id", callID,
		"input", input,
	)
}

func (l *PackageLogger) OnToolEnd(ctx context.Context, tool tools.ITool, callID, input, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool.Name(),
		"call_id", callID,
		"output", output,
	)
}

func (l *PackageLogger) OnToolError(ctx context.Context, tool tools.ITool, callID, input string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"tool", tool.Name(),
		"call_id", callID,
		"err", err.Error(),
	)
}

func (l *PackageLogger) OnToolNotFound(ctx context.Context, callID, name string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_not_found",
		"tool", name,
		"call_id", callID,
	)
}
