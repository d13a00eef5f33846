// Package websearch provides the WebSearch tool backed by the Tavily search API.
package websearch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	tavilygo "github.com/diverged/tavily-go"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/agentloop/chatmodel"
	"github.com/effective-security/agentloop/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "tools/websearch")

const (
	// ToolName is the name of the tool advertised to the model
	ToolName = "WebSearch"
	// EnvAPIKey is the environment variable with the Tavily API key
	EnvAPIKey = "TAVILY_API_KEY"
)

// SearchRequest represents the tool input.
type SearchRequest struct {
	Query string `json:"Query" yaml:"Query" jsonschema:"title=Search Query,description=The query to search web." validate:"required"`
}

// SearchResult represents the structure for a search response
type SearchResult struct {
	Results []tavilyModels.SearchResult `json:"results" yaml:"Results" jsonschema:"title=results,description=The results from a web search."`
	Answer  string                      `json:"answer,omitempty" yaml:"Answer" jsonschema:"title=answer,description=The aggregated answer from a web search."`
}

// Tool is a tool that provides a web search functionality
type Tool struct {
	*tools.Function[SearchRequest, SearchResult]

	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// ensure Tool implements the typed tool interface
var _ tools.Tool[SearchRequest, SearchResult] = (*Tool)(nil)

// New returns the tool with the API key from TAVILY_API_KEY environment variable
func New() (*Tool, error) {
	apikey := os.Getenv(EnvAPIKey)
	if apikey == "" {
		return nil, errors.Mark(errors.Newf("%s is not set", EnvAPIKey), chatmodel.ErrConfiguration)
	}

	t := &Tool{
		apiKey:     apikey,
		httpClient: http.DefaultClient,
	}
	f, err := tools.NewFunction(ToolName, "A tool that provides a web search functionality.", t.search)
	if err != nil {
		return nil, err
	}
	t.Function = f
	return t, nil
}

func (t *Tool) WithBaseURL(baseURL string) *Tool {
	t.baseURL = baseURL
	return t
}

func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
	return t
}

func (t *Tool) search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	if req.Query == "" {
		return SearchResult{}, errors.New("invalid request: empty query")
	}
	if err := ctx.Err(); err != nil {
		return SearchResult{}, errors.WithStack(err)
	}

	client := tavilygo.NewClient(t.apiKey)
	if t.baseURL != "" {
		client.BaseURL = t.baseURL
	}
	if t.httpClient != nil {
		client.HTTPClient = t.httpClient
	}

	searchReq := tavilyModels.SearchRequest{
		Query:         req.Query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
	}

	searchResp, err := tavilygo.Search(client, searchReq)
	if err != nil {
		return SearchResult{}, errors.Wrap(err, "failed to perform search")
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"query", req.Query,
		"results", len(searchResp.Results),
	)

	return SearchResult{
		Results: searchResp.Results,
		Answer:  searchResp.Answer,
	}, nil
}

func (r *SearchResult) String() string {
	var buf bytes.Buffer
	if r.Answer != "" {
		fmt.Fprintf(&buf, "ANSWER: %s\n", r.Answer)
	}

	for _, result := range r.Results {
		fmt.Fprintf(&buf, "- URL: %s\n", result.URL)
		fmt.Fprintf(&buf, "  TITLE: %s\n", result.Title)
		fmt.Fprintf(&buf, "  SCORE: %f\n", result.Score)
		fmt.Fprintf(&buf, "  CONTENT: %s\n", result.Content)
	}

	return buf.String()
}
