package bedrockclient

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
)

// ErrUnsupportedProvider is returned for models of providers other than Anthropic.
var ErrUnsupportedProvider = errors.New("bedrock: unsupported provider")

// InvokeModelAPI is the part of the Bedrock runtime client used to invoke models.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

var _ InvokeModelAPI = (*bedrockruntime.Client)(nil)

// Client is a Bedrock client.
type Client struct {
	client InvokeModelAPI
}

// GetProvider returns the provider of the model,
// the region prefix of inference profiles is skipped.
func GetProvider(modelID string) string {
	// Handle Inference Profiles (e.g., "us.anthropic.claude-3-5-sonnet-20241022-v2:0")
	// and direct model IDs (e.g., "anthropic.claude-3-sonnet-20240229-v1:0")
	parts := strings.Split(modelID, ".")
	if len(parts) >= 2 {
		// region prefix like "us", "eu", "apac" or "global"
		if p := parts[0]; p == strings.ToLower(p) && (len(p) == 2 || p == "apac" || p == "global") {
			return parts[1]
		}
		return parts[0]
	}
	return parts[0]
}

// NewClient creates a new Bedrock client.
func NewClient(client InvokeModelAPI) *Client {
	return &Client{
		client: client,
	}
}

// CreateCompletion sends the messages to the model and returns the response.
func (c *Client) CreateCompletion(ctx context.Context,
	modelID string,
	messages []llms.Message,
	options *llms.CallOptions,
) (*llms.ContentResponse, error) {
	switch provider := GetProvider(modelID); provider {
	case "anthropic":
		return createAnthropicCompletion(ctx, c.client, modelID, messages, options)
	default:
		return nil, errors.WithMessagef(ErrUnsupportedProvider, "%q", provider)
	}
}

func getMaxTokens(maxTokens, defaultValue int) int {
	if maxTokens <= 0 {
		return defaultValue
	}
	return maxTokens
}
