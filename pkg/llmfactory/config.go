package llmfactory

import (
	"slices"

	"github.com/effective-security/x/configloader"
)

type Config struct {
	// Providers specifies the list of providers to use
	Providers []*ProviderConfig `json:"providers" yaml:"providers"`
	// DefaultProvider specifies the default provider to use
	DefaultProvider string `json:"default_provider" yaml:"default_provider"`
	// AssistantModels specifies the mapping of assistants to models.
	// key is the assistant name, value is the list of preferred models.
	// Use `default: [<model_name>]` as the default models for assistants.
	AssistantModels map[string][]string `json:"assistant_models" yaml:"assistant_models"`
}

// ProviderConfig for a model provider
type ProviderConfig struct {
	Name            string   `json:"name" yaml:"name"`
	Token           string   `json:"token,omitempty" yaml:"token,omitempty"`
	DefaultModel    string   `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	AvailableModels []string `json:"available_models,omitempty" yaml:"available_models,omitempty"`
	// APIType specifies the type of API to use:
	// OPENROUTER|OPENAI|AZURE|AZURE_AD|ANTHROPIC|GOOGLEAI|BEDROCK
	APIType string `json:"api_type,omitempty" yaml:"api_type,omitempty"`
	// BaseURL overrides the endpoint of the provider
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	// OrgID specifies which organization's quota and billing should be used when making API requests.
	OrgID string `json:"org_id,omitempty" yaml:"org_id,omitempty"`
	// Region is the AWS region of Bedrock, or the cloud location of Vertex AI.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
	// Project is the GCP project of Vertex AI.
	Project string `json:"project,omitempty" yaml:"project,omitempty"`
	// Headers are added to every request of OpenAI compatible providers.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// FindModel returns the first of the models available in the provider,
// or the default model of the provider.
func (c *ProviderConfig) FindModel(models ...string) string {
	for _, model := range models {
		if slices.Contains(c.AvailableModels, model) {
			return model
		}
	}
	return c.DefaultModel
}

// LoadConfig from file, the environment variables in the values are expanded.
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
