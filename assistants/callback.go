package assistants

import (
	"context"

	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/tools"
)

//go:generate mockgen -source=callback.go -destination=../mocks/mockassistants/callback_mock.gen.go -package mockassistants

// Callback receives the events of the orchestration loop.
// The tool events are emitted by the Dispatcher for each dispatched call.
type Callback interface {
	tools.Callback
	OnAssistantStart(ctx context.Context, agent IAssistant, input string)
	OnAssistantEnd(ctx context.Context, agent IAssistant, input string, resp *llms.ContentResponse, messages []llms.Message)
	OnAssistantError(ctx context.Context, agent IAssistant, input string, err error, messages []llms.Message)
	OnAssistantLLMCallStart(ctx context.Context, agent IAssistant, llm llms.Model, payload []llms.Message)
	OnAssistantLLMCallEnd(ctx context.Context, agent IAssistant, llm llms.Model, resp *llms.ContentResponse)
}
