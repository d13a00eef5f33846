package openai

import (
	"github.com/effective-security/agentloop/pkg/llms/openai/internal/openaiclient"
)

const (
	tokenEnvVarName           = "OPENAI_API_KEY"      //nolint:gosec
	openRouterTokenEnvVarName = "OPENROUTER_API_KEY"  //nolint:gosec
	modelEnvVarName           = "OPENAI_MODEL"        //nolint:gosec
	baseURLEnvVarName         = "OPENAI_BASE_URL"     //nolint:gosec
	baseAPIBaseEnvVarName     = "OPENAI_API_BASE"     //nolint:gosec
	organizationEnvVarName    = "OPENAI_ORGANIZATION" //nolint:gosec
)

type ProviderType = openaiclient.ProviderType

const (
	ProviderOpenAI     = openaiclient.ProviderOpenAI
	ProviderOpenRouter = openaiclient.ProviderOpenRouter
	ProviderAzure      = openaiclient.ProviderAzure
	ProviderAzureAD    = openaiclient.ProviderAzureAD
)

const (
	DefaultBaseURL    = openaiclient.DefaultBaseURL
	OpenAIBaseURL     = openaiclient.OpenAIBaseURL
	DefaultAPIVersion = "2024-10-21"
)

type options struct {
	token        string
	model        string
	baseURL      string
	organization string
	provider     ProviderType
	httpClient   openaiclient.Doer
	headers      map[string]string

	// required when provider is ProviderAzure or ProviderAzureAD
	apiVersion string
}

// Option is a functional option for the OpenAI client.
type Option func(*options)

// WithToken passes the API token to the client. If not set, the token
// is read from the OPENAI_API_KEY, or the OPENROUTER_API_KEY environment variable.
func WithToken(token string) Option {
	return func(opts *options) {
		opts.token = token
	}
}

// WithModel passes the default model to the client. If not set, the model
// is read from the OPENAI_MODEL environment variable.
// Required when provider is Azure.
func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

// WithBaseURL passes the base url to the client. If not set, the base url
// is read from the OPENAI_BASE_URL environment variable. If still not set,
// then the OpenRouter endpoint https://openrouter.ai/api/v1 is used.
func WithBaseURL(baseURL string) Option {
	return func(opts *options) {
		opts.baseURL = baseURL
	}
}

// WithOrganization passes the OpenAI organization to the client. If not set, the
// organization is read from the OPENAI_ORGANIZATION.
func WithOrganization(organization string) Option {
	return func(opts *options) {
		opts.organization = organization
	}
}

// WithProvider passes the api type to the client. If not set, the provider
// is derived from the base URL.
func WithProvider(apiType ProviderType) Option {
	return func(opts *options) {
		opts.provider = apiType
	}
}

// WithAPIVersion passes the api version to the client. If not set, the default value
// is DefaultAPIVersion.
func WithAPIVersion(apiVersion string) Option {
	return func(opts *options) {
		opts.apiVersion = apiVersion
	}
}

// WithHTTPClient allows setting a custom HTTP client. If not set, the default value
// is http.DefaultClient.
func WithHTTPClient(client openaiclient.Doer) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

// WithHeaders adds the headers to every request,
// for example the HTTP-Referer and X-Title of the OpenRouter app attribution.
func WithHeaders(headers map[string]string) Option {
	return func(opts *options) {
		opts.headers = headers
	}
}
