package bedrock

import (
	"github.com/effective-security/agentloop/pkg/llms/bedrock/internal/bedrockclient"
)

// InvokeModelAPI is the part of the Bedrock runtime client used to invoke models.
type InvokeModelAPI = bedrockclient.InvokeModelAPI

const (
	ModelAnthropicClaudeSonnet4_5 = "us.anthropic.claude-sonnet-4-5-20250929-v1:0"
	ModelAnthropicClaudeHaiku4_5  = "us.anthropic.claude-haiku-4-5-20251001-v1:0"
)

type options struct {
	modelID string
	region  string
	profile string
	client  InvokeModelAPI

	accessKeyID     string
	secretAccessKey string
	sessionToken    string
}

// Option is an option for the Bedrock LLM.
type Option func(*options)

// WithModel sets the model ID, or the inference profile ID.
func WithModel(modelID string) Option {
	return func(o *options) {
		o.modelID = modelID
	}
}

// WithRegion sets the AWS region of the runtime client.
// If not set, the region is loaded from the AWS shared config.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithProfile sets the AWS shared config profile.
func WithProfile(profile string) Option {
	return func(o *options) {
		o.profile = profile
	}
}

// WithClient sets the Bedrock runtime client.
// If not set, the client is created from the AWS default config.
func WithClient(client InvokeModelAPI) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithStaticCredentials sets the AWS access keys,
// if not set the credentials are resolved by the default chain.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(o *options) {
		o.accessKeyID = accessKeyID
		o.secretAccessKey = secretAccessKey
		o.sessionToken = sessionToken
	}
}
