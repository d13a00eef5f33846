// Package googleai implements the Model for the Gemini API,
// and the Vertex AI when a cloud project is configured.
// See https://ai.google.dev/ for more details.
package googleai

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
	"google.golang.org/genai"
)

// GoogleAI is a type that represents a Google AI API client.
type GoogleAI struct {
	client *genai.Client
	opts   Options
}

var _ llms.Model = (*GoogleAI)(nil)

// New creates a new GoogleAI client.
func New(ctx context.Context, opts ...Option) (*GoogleAI, error) {
	clientOptions := DefaultOptions()
	for _, opt := range opts {
		opt(&clientOptions)
	}
	clientOptions.EnsureAuthPresent()

	cfg := &genai.ClientConfig{
		Project:     clientOptions.CloudProject,
		Location:    clientOptions.CloudLocation,
		APIKey:      clientOptions.APIKey,
		Credentials: clientOptions.Credentials,
		HTTPClient:  clientOptions.HTTPClient,
		Backend:     clientOptions.Backend(),
	}
	if clientOptions.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = clientOptions.BaseURL
	}
	// the project and API key are mutually exclusive for Vertex AI
	if cfg.Backend == genai.BackendVertexAI {
		cfg.APIKey = ""
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create genai client")
	}

	return &GoogleAI{
		client: client,
		opts:   clientOptions,
	}, nil
}
