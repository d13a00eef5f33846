package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llms/bedrock/internal/bedrockclient"
)

const defaultModel = ModelAnthropicClaudeSonnet4_5

// ErrUnsupportedProvider is returned for models of providers other than Anthropic.
var ErrUnsupportedProvider = bedrockclient.ErrUnsupportedProvider

// LLM is a Bedrock LLM implementation for the Anthropic models.
type LLM struct {
	modelID string
	client  *bedrockclient.Client
}

var _ llms.Model = (*LLM)(nil)

// New creates a new Bedrock LLM implementation.
func New(ctx context.Context, opts ...Option) (*LLM, error) {
	o, c, err := newClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &LLM{
		client:  c,
		modelID: o.modelID,
	}, nil
}

func newClient(ctx context.Context, opts ...Option) (*options, *bedrockclient.Client, error) {
	options := &options{
		modelID: defaultModel,
	}

	for _, opt := range opts {
		opt(options)
	}

	if bedrockclient.GetProvider(options.modelID) != "anthropic" {
		return nil, nil, errors.WithMessagef(ErrUnsupportedProvider, "model %q", options.modelID)
	}

	if options.client == nil {
		// failed requests are not retried
		loadOpts := []func(*config.LoadOptions) error{
			config.WithRetryMaxAttempts(1),
		}
		if options.region != "" {
			loadOpts = append(loadOpts, config.WithRegion(options.region))
		}
		if options.profile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(options.profile))
		}
		if options.accessKeyID != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(options.accessKeyID, options.secretAccessKey, options.sessionToken)))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, nil, errors.WithMessage(err, "failed to load AWS config")
		}
		options.client = bedrockruntime.NewFromConfig(cfg)
	}

	return options, bedrockclient.NewClient(options.client), nil
}

// GetName implements the Model interface.
func (l *LLM) GetName() string {
	return l.modelID
}

// GetProviderType implements the Model interface.
func (l *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderBedrock
}

// GenerateContent implements llms.Model.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(llms.CallOptions{Model: l.modelID}, options...)
	return l.client.CreateCompletion(ctx, opts.Model, messages, opts)
}
