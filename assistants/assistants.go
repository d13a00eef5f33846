package assistants

import (
	"context"

	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/store"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "assistants")

type IAssistant interface {
	// Name returns the name of the Assistant.
	Name() string
	// Description returns the description of the Assistant.
	Description() string

	// Invoke normalizes the query into a new conversation and runs the loop.
	Invoke(ctx context.Context, query any, opts ...Option) (*llms.ContentResponse, error)
	// Run runs the loop on the conversation, the conversation is extended
	// with the assistant and tool messages.
	Run(ctx context.Context, conversation store.MessageStore, opts ...Option) (*llms.ContentResponse, error)
}
