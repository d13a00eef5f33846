package llmfactory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/chatmodel"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llms/anthropic"
	"github.com/effective-security/agentloop/pkg/llms/bedrock"
	"github.com/effective-security/agentloop/pkg/llms/googleai"
	"github.com/effective-security/agentloop/pkg/llms/openai"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "llmfactory")

// NewLLM is a wrapper for CreateLLM to allow for overriding the default implementation.
var NewLLM = CreateLLM

// Factory is the interface for creating and managing LLM models.
type Factory interface {
	// DefaultModel returns the default LLM model.
	DefaultModel() (llms.Model, error)
	// ModelByType returns an LLM model by its type, e.g.
	// OPENROUTER, OPENAI, AZURE, AZURE_AD, ANTHROPIC, GOOGLEAI, BEDROCK
	ModelByType(providerType string) (llms.Model, error)
	// ModelByName returns an LLM model by its name,
	// if the model is not found, it will return the default model.
	ModelByName(preferredModels ...string) (llms.Model, error)
	// AssistantModel returns the model for the assistant.
	AssistantModel(assistantName string, preferredModels ...string) (llms.Model, error)
}

// Load returns the factory for the config file
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

type factory struct {
	cfg *Config

	defaultProvider *ProviderConfig
	assistantModels map[string][]string
	byType          map[string]llms.Model
	byName          map[string]llms.Model
	lock            sync.Mutex
}

// New creates a new LLM factory
func New(cfg *Config) Factory {
	f := &factory{
		cfg:             cfg,
		byType:          make(map[string]llms.Model),
		byName:          make(map[string]llms.Model),
		assistantModels: make(map[string][]string),
	}

	for k, v := range cfg.AssistantModels {
		f.assistantModels[k] = slices.Clone(v)
	}

	if cfg.DefaultProvider != "" {
		for _, provider := range cfg.Providers {
			if provider.Name == cfg.DefaultProvider {
				f.defaultProvider = provider
				break
			}
		}
	}

	if f.defaultProvider == nil && len(f.cfg.Providers) > 0 {
		f.defaultProvider = f.cfg.Providers[0]
	}

	return f
}

// CreateLLM creates the model of the provider,
// the first of the preferred models available in the provider is used.
func CreateLLM(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	provType := strings.ToUpper(values.StringsCoalesce(cfg.APIType, string(llms.ProviderOpenRouter)))
	switch provType {
	case "OPENROUTER", "OPENAI", "OPEN_AI", "AZURE", "AZURE_AD":
		return newOpenAI(cfg, provType, preferredModels...)
	case "ANTHROPIC":
		return newAnthropic(cfg, preferredModels...)
	case "GOOGLEAI":
		return newGoogleAI(cfg, preferredModels...)
	case "BEDROCK":
		return newBedrock(cfg, preferredModels...)
	}
	return nil, errors.WithMessagef(chatmodel.ErrConfiguration, "unsupported provider type: %s", provType)
}

func newOpenAI(cfg *ProviderConfig, provType string, preferredModels ...string) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.FindModel(preferredModels...)),
	}

	switch provType {
	case "OPENROUTER":
		opts = append(opts, openai.WithProvider(openai.ProviderOpenRouter),
			openai.WithBaseURL(values.StringsCoalesce(cfg.BaseURL, openai.DefaultBaseURL)))
	case "AZURE":
		opts = append(opts, openai.WithProvider(openai.ProviderAzure))
	case "AZURE_AD":
		opts = append(opts, openai.WithProvider(openai.ProviderAzureAD))
	default:
		opts = append(opts, openai.WithProvider(openai.ProviderOpenAI),
			openai.WithBaseURL(values.StringsCoalesce(cfg.BaseURL, openai.OpenAIBaseURL)))
	}

	if cfg.Token != "" {
		opts = append(opts, openai.WithToken(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, openai.WithAPIVersion(cfg.APIVersion))
	}
	if cfg.OrgID != "" {
		opts = append(opts, openai.WithOrganization(cfg.OrgID))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, openai.WithHeaders(cfg.Headers))
	}
	return openai.New(opts...)
}

func newAnthropic(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithModel(cfg.FindModel(preferredModels...)),
	}
	if cfg.Token != "" {
		opts = append(opts, anthropic.WithToken(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return anthropic.New(opts...)
}

func newGoogleAI(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithDefaultModel(cfg.FindModel(preferredModels...)),
	}
	if cfg.Token != "" {
		opts = append(opts, googleai.WithAPIKey(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, googleai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Project != "" {
		opts = append(opts, googleai.WithCloudProject(cfg.Project), googleai.WithCloudLocation(cfg.Region))
	}
	return googleai.New(context.Background(), opts...)
}

func newBedrock(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	opts := []bedrock.Option{
		bedrock.WithModel(values.StringsCoalesce(cfg.FindModel(preferredModels...), bedrock.ModelAnthropicClaudeSonnet4_5)),
	}
	if cfg.Region != "" {
		opts = append(opts, bedrock.WithRegion(cfg.Region))
	}
	return bedrock.New(context.Background(), opts...)
}

// DefaultModel returns the default model of the default provider
func (f *factory) DefaultModel() (llms.Model, error) {
	if len(f.cfg.Providers) == 0 || f.defaultProvider == nil {
		return nil, errors.WithMessage(chatmodel.ErrConfiguration, "no providers configured")
	}

	return NewLLM(f.defaultProvider, f.defaultProvider.DefaultModel)
}

func (f *factory) ModelByType(providerType string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byType[providerType]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		if strings.EqualFold(cfg.APIType, providerType) {
			model, err := NewLLM(cfg)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_llm",
				"type", cfg.APIType,
				"version", cfg.APIVersion,
				"name", cfg.Name)

			f.byType[providerType] = model
			return model, nil
		}
	}
	return nil, errors.WithMessagef(chatmodel.ErrConfiguration, "provider not found for type: %s", providerType)
}

func (f *factory) ModelByName(modelNames ...string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	for _, modelName := range modelNames {
		if client, ok := f.byName[modelName]; ok {
			return client, nil
		}

		for _, cfg := range f.cfg.Providers {
			if slices.Contains(cfg.AvailableModels, modelName) {
				model, err := NewLLM(cfg, modelName)
				if err != nil {
					logger.KV(xlog.ERROR,
						"reason", "NewLLM",
						"type", cfg.APIType,
						"model", modelName,
						"err", err.Error(),
					)
					continue
				}

				logger.KV(xlog.DEBUG,
					"status", "created_llm",
					"type", cfg.APIType,
					"model", modelName,
					"name", cfg.Name)

				f.byName[modelName] = model
				return model, nil
			}
		}
	}
	return f.DefaultModel()
}

// AssistantModel returns the model for the assistant.
func (f *factory) AssistantModel(assistantName string, preferredModels ...string) (llms.Model, error) {
	if modelNames, ok := f.assistantModels[assistantName]; ok {
		return f.ModelByName(modelNames...)
	}
	if modelNames, ok := f.assistantModels["default"]; ok {
		return f.ModelByName(modelNames...)
	}
	return f.ModelByName(preferredModels...)
}
