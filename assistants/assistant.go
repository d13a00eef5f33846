package assistants

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/chatmodel"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/effective-security/agentloop/pkg/metricskey"
	"github.com/effective-security/agentloop/store"
	"github.com/effective-security/agentloop/tools"
	xslices "github.com/effective-security/x/slices"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

// Assistant drives the turn-taking between the model and the registered tools.
// The registry is set up before the loop runs, and must not be changed
// while Invoke or Run is in flight.
type Assistant struct {
	LLM llms.Model

	cfg         *Config
	name        string
	description string
	registry    *tools.Registry
}

var _ IAssistant = (*Assistant)(nil)

// NewAssistant returns the assistant for the model
func NewAssistant(llmModel llms.Model, options ...Option) *Assistant {
	return &Assistant{
		LLM:         llmModel,
		cfg:         NewConfig(options...),
		name:        "Assistant",
		description: "An AI assistant that can call tools.",
		registry:    &tools.Registry{},
	}
}

// WithName sets the name of the Assistant, used in logs and metrics.
func (a *Assistant) WithName(name string) *Assistant {
	a.name = name
	return a
}

// WithDescription sets the description of the Assistant.
func (a *Assistant) WithDescription(description string) *Assistant {
	a.description = description
	return a
}

// Name returns the name of the Assistant.
func (a *Assistant) Name() string {
	return a.name
}

// Description returns the description of the Assistant.
func (a *Assistant) Description() string {
	return a.description
}

// Registry returns the tools of the Assistant
func (a *Assistant) Registry() *tools.Registry {
	return a.registry
}

// GetCallConfig returns the per call config
func (a *Assistant) GetCallConfig(opts ...Option) *Config {
	return a.cfg.Apply(opts...)
}

// AddTool registers the tools by their names,
// a tool with the same name is replaced.
func (a *Assistant) AddTool(list ...tools.ITool) error {
	return a.registry.Add(list...)
}

// AddFunction registers the function as a tool named after the Go function.
func AddFunction[I any, O any](a *Assistant, description string, fn func(context.Context, I) (O, error), opts ...tools.FunctionOption) error {
	f, err := tools.NewFunction("", description, fn, opts...)
	if err != nil {
		return err
	}
	return a.registry.Add(f)
}

// Invoke normalizes the query into a new conversation,
// inserts the system prompt if configured, and runs the loop.
// The caller's messages are copied and never modified.
func (a *Assistant) Invoke(ctx context.Context, query any, opts ...Option) (*llms.ContentResponse, error) {
	q, err := NewQuery(query)
	if err != nil {
		return nil, err
	}
	msgs, err := q.Messages()
	if err != nil {
		return nil, err
	}

	cfg := a.GetCallConfig(opts...)
	conv := store.New(msgs...)
	if cfg.SystemPrompt != nil {
		pv, err := cfg.SystemPrompt.FormatPrompt(a.promptInput(cfg))
		if err != nil {
			return nil, errors.Mark(errors.WithMessage(err, "failed to format system prompt"), chatmodel.ErrConfiguration)
		}
		conv.InsertSystemMessage(llms.SystemMessage(strings.TrimRight(pv.String(), "\n")))
	}
	return a.Run(ctx, conv, opts...)
}

// PromptInputTools is the system prompt input with the names and descriptions
// of the registered tools, unless provided by WithPromptInput.
const PromptInputTools = "tools"

func (a *Assistant) promptInput(cfg *Config) map[string]any {
	input := make(map[string]any, len(cfg.PromptInput)+1)
	input[PromptInputTools] = tools.GetDescriptions(a.registry.Tools()...)
	maps.Copy(input, cfg.PromptInput)
	return input
}

// Run runs the loop on the conversation until the model responds without tool calls.
// The assistant message with the tool calls, each tool result, and the final
// assistant message are appended to the conversation.
//
// Errors of the model and the tools are returned as is, and no error is sent to the model.
func (a *Assistant) Run(ctx context.Context, conversation store.MessageStore, opts ...Option) (*llms.ContentResponse, error) {
	started := time.Now()
	defer metricskey.PerfAssistantInvoke.MeasureSince(started, a.Name())

	cfg := a.GetCallConfig(opts...)
	input := llmutils.FindLastUserQuestion(conversation.Messages())

	callback := cfg.CallbackHandler
	if callback != nil {
		callback.OnAssistantStart(ctx, a, input)
	}

	resp, err := a.run(ctx, cfg, conversation)
	if err != nil {
		metricskey.StatsAssistantCallsFailed.IncrCounter(1, a.Name())
		logger.ContextKV(ctx, xlog.DEBUG,
			"assistant", a.Name(),
			"status", "failed",
			"input", xslices.StringUpto(input, 64),
			"err", err.Error(),
		)
		if callback != nil {
			callback.OnAssistantError(ctx, a, input, err, conversation.Messages())
		}
		return nil, err
	}
	metricskey.StatsAssistantCallsSucceeded.IncrCounter(1, a.Name())
	if callback != nil {
		callback.OnAssistantEnd(ctx, a, input, resp, conversation.Messages())
	}
	return resp, nil
}

func (a *Assistant) run(ctx context.Context, cfg *Config, conversation store.MessageStore) (*llms.ContentResponse, error) {
	assistantName := a.Name()
	modelName := values.StringsCoalesce(cfg.Model, a.LLM.GetName())

	toolDefs := a.registry.Definitions()
	if len(toolDefs) > 0 {
		prov := a.LLM.GetProviderType()
		if !prov.Supports(llms.CapabilityFunctionCalling) {
			return nil, errors.Mark(errors.Newf("assistant %s: %s does not support function calling", assistantName, prov), chatmodel.ErrConfiguration)
		}
	}
	callOpts := cfg.GetCallOptions(toolDefs)

	var toolCallback tools.Callback
	if cfg.CallbackHandler != nil {
		toolCallback = cfg.CallbackHandler
	}
	dispatcher := tools.NewDispatcher(a.registry, toolCallback)

	rounds := 0
	for {
		messages := conversation.Messages()
		bytesSent := llmutils.CountMessagesContentSize(messages)

		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnAssistantLLMCallStart(ctx, a, a.LLM, messages)
		}
		metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(messages)), assistantName, modelName)
		metricskey.StatsLLMBytesSent.IncrCounter(float64(bytesSent), assistantName, modelName)

		llmStarted := time.Now()
		resp, err := a.LLM.GenerateContent(ctx, messages, callOpts...)
		metricskey.PerfLLMCall.MeasureSince(llmStarted, assistantName, modelName)
		if err != nil {
			return nil, err
		}

		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnAssistantLLMCallEnd(ctx, a, a.LLM, resp)
		}

		bytesReceived := llmutils.CountResponseContentSize(resp)
		metricskey.StatsLLMBytesReceived.IncrCounter(float64(bytesReceived), assistantName, modelName)

		tokensIn, tokensOut, tokensTotal := llmutils.CountTokens(resp)
		metricskey.StatsLLMInputTokens.IncrCounter(float64(tokensIn), assistantName, modelName)
		metricskey.StatsLLMOutputTokens.IncrCounter(float64(tokensOut), assistantName, modelName)
		metricskey.StatsLLMTotalTokens.IncrCounter(float64(tokensTotal), assistantName, modelName)

		choice := resp.TopChoice()
		if choice == nil {
			return nil, errors.WithMessagef(llms.ErrEmptyResponse, "assistant %s", assistantName)
		}

		if !choice.HasToolCalls() {
			conversation.Append(choice.Message())
			logger.ContextKV(ctx, xlog.DEBUG,
				"assistant", assistantName,
				"status", "done",
				"rounds", rounds,
				"messages", conversation.Len(),
			)
			if cfg.Verbose && cfg.Output != nil {
				fmt.Fprintf(cfg.Output, "🤖 Response: %s\n", choice.Content)
			}
			return resp, nil
		}

		rounds++
		if cfg.MaxRounds > 0 && rounds > cfg.MaxRounds {
			return nil, errors.WithMessagef(chatmodel.ErrMaxRoundsExceeded, "assistant %s: %d rounds", assistantName, cfg.MaxRounds)
		}
		metricskey.StatsAssistantRounds.IncrCounter(1, assistantName)

		calls := tools.EnsureCallIDs(slices.Clone(choice.ToolCalls))
		conversation.Append(llms.AssistantMessage(choice.Content, calls...))

		logger.ContextKV(ctx, xlog.DEBUG,
			"assistant", assistantName,
			"status", "tool_calls",
			"round", rounds,
			"tool_calls", len(calls),
		)

		// the calls are dispatched in the order the model emitted them,
		// each result is appended before the next call
		for _, call := range calls {
			res, err := dispatcher.Execute(ctx, call)
			if err != nil {
				return nil, err
			}
			conversation.Append(res.Message())
		}
	}
}
