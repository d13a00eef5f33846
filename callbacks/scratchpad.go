package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/chatmodel"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/effective-security/agentloop/tools"
)

// ensure Scratchpad implements assistants.Callback
var _ assistants.Callback = (*Scratchpad)(nil)

var TimeNowFn = time.Now

// RunStats is the summary of one run
type RunStats struct {
	ChatID string
	RunID  string

	Duration                time.Duration
	TotalMessages           uint32
	LLMBytesOut             uint64
	LLMBytesIn              uint64
	LLMInputTokens          uint64
	LLMOutputTokens         uint64
	LLMTotalTokens          uint64
	AssistantCalls          uint32
	AssistantCallsSucceeded uint32
	AssistantCallsFailed    uint32
	AssistantLLMCalls       uint32
	ToolsCalls              uint32
	ToolsCallsSucceeded     uint32
	ToolsCallsFailed        uint32
	ToolNotFound            uint32
}

// Scratchpad records the events of the runs per chat,
// the run is started and ended by the caller around Invoke.
type Scratchpad struct {
	runs map[string]*run
	mode Mode
	lock sync.Mutex
}

func NewScratchpad(mode Mode) *Scratchpad {
	return &Scratchpad{
		runs: make(map[string]*run),
		mode: mode,
	}
}

// StartRun starts recording for the chat of the context,
// the returned context has the chat context.
func (l *Scratchpad) StartRun(ctx context.Context) context.Context {
	ctx, chatCtx := chatmodel.EnsureChatContext(ctx)

	l.lock.Lock()
	defer l.lock.Unlock()

	r := &run{
		stats: RunStats{
			ChatID: chatCtx.GetChatID(),
			RunID:  chatCtx.RunID(),
		},
		chatCtx: chatCtx,
		started: time.Now(),
	}
	l.runs[chatCtx.GetChatID()] = r
	r.print("*** Run Started ***")
	return ctx
}

// EndRun stops recording, and returns the stats and the scratchpad of the run.
func (l *Scratchpad) EndRun(ctx context.Context) (*RunStats, []byte) {
	run := l.getRun(ctx)
	if run == nil {
		return nil, nil
	}

	stats := run.snapshot()
	stats.Duration = time.Since(run.started)

	run.print(fmt.Sprintf("Assistant calls: %d, Failed: %d",
		stats.AssistantCalls,
		stats.AssistantCallsFailed,
	))
	run.print(fmt.Sprintf("Tool calls: %d, Failed: %d, Not Found: %d",
		stats.ToolsCalls,
		stats.ToolsCallsFailed,
		stats.ToolNotFound,
	))
	run.print(fmt.Sprintf("LLM calls: %d, Messages: %d, Bytes Out: %d, Bytes In: %d, Bytes Total: %d, Input Tokens: %d, Output Tokens: %d, Total Tokens: %d",
		stats.AssistantLLMCalls,
		stats.TotalMessages,
		stats.LLMBytesOut,
		stats.LLMBytesIn,
		stats.LLMBytesOut+stats.LLMBytesIn,
		stats.LLMInputTokens,
		stats.LLMOutputTokens,
		stats.LLMTotalTokens,
	))

	run.print(fmt.Sprintf("*** Run Ended. Duration: %s ***", stats.Duration))

	l.lock.Lock()
	delete(l.runs, run.chatCtx.GetChatID())
	l.lock.Unlock()

	return &stats, run.bytes()
}

func (l *Scratchpad) getRun(ctx context.Context) *run {
	chatCtx := chatmodel.GetChatContext(ctx)
	if chatCtx == nil {
		return nil
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	return l.runs[chatCtx.GetChatID()]
}

func (l *Scratchpad) OnAssistantStart(ctx context.Context, agent assistants.IAssistant, input string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.AssistantCalls, 1)
	run.print(agent.Name(), "*** Assistant Start ***")
	run.print(agent.Name(), "Input:", input)
}

func (l *Scratchpad) OnAssistantEnd(ctx context.Context, agent assistants.IAssistant, input string, resp *llms.ContentResponse, messages []llms.Message) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.AssistantCallsSucceeded, 1)

	if l.mode == ModeVerbose {
		if choice := resp.TopChoice(); choice != nil && choice.Content != "" {
			run.print(agent.Name(), "Output:", choice.Content)
		}
		run.print(agent.Name(), printMessages(messages))
	}
	run.print(agent.Name(), "*** Assistant End ***")
}

func (l *Scratchpad) OnAssistantError(ctx context.Context, agent assistants.IAssistant, input string, err error, messages []llms.Message) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.AssistantCallsFailed, 1)
	run.print(agent.Name(), "*** Error ***", err.Error())
	run.print(agent.Name(), printMessages(messages))
}

func printMessages(messages []llms.Message) string {
	var buf strings.Builder
	buf.WriteString("Messages:\n")
	for idx, msg := range messages {
		fmt.Fprintf(&buf, "[%d] %s:\n", idx, msg.Role)
		for _, tc := range msg.ToolCalls {
			buf.WriteString("  - ")
			buf.WriteString(tc.String())
			buf.WriteString("\n")
		}
		if msg.Role == llms.RoleTool {
			fmt.Fprintf(&buf, "  - ToolResult: %s (%s), %d bytes\n", msg.ToolCallID, msg.Name, len(msg.Content))
		} else {
			fmt.Fprintf(&buf, "  - %d bytes, %d tool calls\n", len(msg.Content), len(msg.ToolCalls))
		}
	}
	return buf.String()
}

func (l *Scratchpad) OnAssistantLLMCallStart(ctx context.Context, agent assistants.IAssistant, llm llms.Model, payload []llms.Message) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}

	atomic.AddUint64(&run.stats.LLMBytesOut, llmutils.CountMessagesContentSize(payload))
	atomic.AddUint32(&run.stats.AssistantLLMCalls, 1)
	count := uint32(len(payload))
	atomic.AddUint32(&run.stats.TotalMessages, count)

	run.print(agent.Name(), "*** LLM Call ***", fmt.Sprintf("%s model, %d messages", llm.GetName(), count))
	if l.mode == ModeVerbose {
		run.print(agent.Name(), printMessages(payload))
	}
}

func (l *Scratchpad) OnAssistantLLMCallEnd(ctx context.Context, agent assistants.IAssistant, llm llms.Model, resp *llms.ContentResponse) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}

	atomic.AddUint64(&run.stats.LLMBytesIn, llmutils.CountResponseContentSize(resp))
	tokensIn, tokensOut, tokensTotal := llmutils.CountTokens(resp)
	atomic.AddUint64(&run.stats.LLMInputTokens, uint64(tokensIn))
	atomic.AddUint64(&run.stats.LLMOutputTokens, uint64(tokensOut))
	atomic.AddUint64(&run.stats.LLMTotalTokens, uint64(tokensTotal))

	run.print(agent.Name(), "*** LLM Call End ***", fmt.Sprintf("%s model, %d input tokens, %d output tokens, %d total tokens", llm.GetName(), tokensIn, tokensOut, tokensTotal))
}

func (l *Scratchpad) OnToolStart(ctx context.Context, tool tools.ITool, callID, input string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolsCalls, 1)
	run.print(tool.Name(), callID, "*** Tool Start ***")
	run.print(tool.Name(), callID, "Input:", input)
}

func (l *Scratchpad) OnToolEnd(ctx context.Context, tool tools.ITool, callID, input, output string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolsCallsSucceeded, 1)
	if l.mode == ModeVerbose {
		run.print(tool.Name(), callID, "Output:", output)
	}
	run.print(tool.Name(), callID, "*** Tool End ***")
}

func (l *Scratchpad) OnToolError(ctx context.Context, tool tools.ITool, callID, input string, err error) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolsCallsFailed, 1)
	run.print(tool.Name(), callID, "*** Tool Error ***", err.Error())
}

func (l *Scratchpad) OnToolNotFound(ctx context.Context, callID, name string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolNotFound, 1)
	run.print(name, callID, "*** Tool Not Found ***")
}

type run struct {
	chatCtx chatmodel.ChatContext
	w       bytes.Buffer
	started time.Time
	lock    sync.Mutex
	stats   RunStats
}

func (r *run) snapshot() RunStats {
	return RunStats{
		ChatID:                  r.stats.ChatID,
		RunID:                   r.stats.RunID,
		TotalMessages:           atomic.LoadUint32(&r.stats.TotalMessages),
		LLMBytesOut:             atomic.LoadUint64(&r.stats.LLMBytesOut),
		LLMBytesIn:              atomic.LoadUint64(&r.stats.LLMBytesIn),
		LLMInputTokens:          atomic.LoadUint64(&r.stats.LLMInputTokens),
		LLMOutputTokens:         atomic.LoadUint64(&r.stats.LLMOutputTokens),
		LLMTotalTokens:          atomic.LoadUint64(&r.stats.LLMTotalTokens),
		AssistantCalls:          atomic.LoadUint32(&r.stats.AssistantCalls),
		AssistantCallsSucceeded: atomic.LoadUint32(&r.stats.AssistantCallsSucceeded),
		AssistantCallsFailed:    atomic.LoadUint32(&r.stats.AssistantCallsFailed),
		AssistantLLMCalls:       atomic.LoadUint32(&r.stats.AssistantLLMCalls),
		ToolsCalls:              atomic.LoadUint32(&r.stats.ToolsCalls),
		ToolsCallsSucceeded:     atomic.LoadUint32(&r.stats.ToolsCallsSucceeded),
		ToolsCallsFailed:        atomic.LoadUint32(&r.stats.ToolsCallsFailed),
		ToolNotFound:            atomic.LoadUint32(&r.stats.ToolNotFound),
	}
}

func (r *run) bytes() []byte {
	r.lock.Lock()
	defer r.lock.Unlock()
	return bytes.Clone(r.w.Bytes())
}

// print writes the entries to the run's output.
// The entries are written in the following format:
// [timestamp chatID.runID] entry entry\n
func (r *run) print(entries ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	now := TimeNowFn()
	ts := now.Format("2006-01-02 15:04:05")

	_, _ = r.w.WriteString(ts)
	_, _ = r.w.WriteString(" ")
	_, _ = r.w.WriteString(r.chatCtx.GetChatID())
	_, _ = r.w.WriteString(".")
	_, _ = r.w.WriteString(r.chatCtx.RunID())
	_, _ = r.w.WriteString(" ")

	for i, entry := range entries {
		if i > 0 {
			_, _ = r.w.WriteString(" ")
		}
		_, _ = r.w.WriteString(entry)
	}
	_, _ = r.w.WriteString("\n")
}
