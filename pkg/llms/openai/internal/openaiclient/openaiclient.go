package openaiclient

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "openai")

const (
	// DefaultBaseURL is the OpenAI compatible endpoint of OpenRouter.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// OpenAIBaseURL is the endpoint of OpenAI.
	OpenAIBaseURL = "https://api.openai.com/v1"
)

type ProviderType string

const (
	ProviderOpenAI     ProviderType = "OPENAI"
	ProviderOpenRouter ProviderType = "OPENROUTER"
	ProviderAzure      ProviderType = "AZURE"
	ProviderAzureAD    ProviderType = "AZURE_AD"
)

// Client is a client for the OpenAI compatible chat completions API.
type Client struct {
	Model    string
	Provider ProviderType

	token        string
	baseURL      string
	organization string
	httpClient   Doer
	headers      map[string]string

	// required when Provider is ProviderAzure or ProviderAzureAD
	apiVersion string
}

// Option is an option for the OpenAI client.
type Option func(*Client) error

// Doer performs a HTTP request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WithHeaders adds the headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) error {
		c.headers = headers
		return nil
	}
}

// New returns a new OpenAI client.
func New(provider ProviderType, model string, token string, baseURL string, organization string,
	apiVersion string, httpClient Doer,
	opts ...Option,
) (*Client, error) {
	c := &Client{
		Model:        model,
		token:        token,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		organization: organization,
		Provider:     provider,
		apiVersion:   apiVersion,
		httpClient:   httpClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// BaseURL returns the endpoint of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func IsAzure(apiType ProviderType) bool {
	return apiType == ProviderAzure || apiType == ProviderAzureAD
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.Provider == ProviderAzure {
		req.Header.Set("api-key", c.token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

func (c *Client) buildURL(suffix string, model string) string {
	if IsAzure(c.Provider) {
		// azure example url:
		// /openai/deployments/{model}/chat/completions?api-version={api_version}
		return fmt.Sprintf("%s/openai/deployments/%s%s?api-version=%s",
			c.baseURL, model, suffix, c.apiVersion,
		)
	}
	return c.baseURL + suffix
}

type errorMessage struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// APIError is returned when the API replies with a non 200 status code.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("API returned unexpected status code: %d", e.StatusCode)
	if e.StatusCode == http.StatusNotFound {
		msg += ": url: " + e.URL
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}
