package websearch

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/sources/httpx"
)

// DefaultTavilyURL is the Tavily search endpoint.
const DefaultTavilyURL = "https://api.tavily.com/search"

// TavilyConfig configures the Tavily provider.
type TavilyConfig struct {
	APIKey string
	// URL overrides DefaultTavilyURL.
	URL  string
	HTTP httpx.Config
}

// Tavily searches with the Tavily API.
type Tavily struct {
	http   *httpx.Client
	url    string
	hasKey bool
}

// NewTavily creates a Tavily provider. The key is sent as a bearer token.
func NewTavily(cfg TavilyConfig) *Tavily {
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = DefaultTavilyURL
	}
	httpCfg := cfg.HTTP
	httpCfg.Token = cfg.APIKey
	return &Tavily{http: httpx.New(httpCfg), url: endpoint, hasKey: cfg.APIKey != ""}
}

// Name returns "tavily".
func (t *Tavily) Name() string { return "tavily" }

type tavilyRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []Result `json:"results"`
}

// Search runs a basic-depth Tavily search.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if !t.hasKey {
		return nil, errors.WithHint(
			errors.Wrap(domain.ErrAuthRequired, "tavily api key not configured"),
			"set TAVILY_API_KEY or 'vetta config set tavily.api_key <key>'",
		)
	}
	var resp tavilyResponse
	req := tavilyRequest{Query: query, SearchDepth: "basic", MaxResults: maxResults}
	if err := t.http.PostJSON(ctx, t.url, req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
