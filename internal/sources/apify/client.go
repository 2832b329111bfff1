// Package apify implements the profile and traffic sources on top of
// Apify actors, using the synchronous run-and-fetch-dataset endpoint.
package apify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/sources/httpx"
)

// DefaultBaseURL is the Apify API root.
const DefaultBaseURL = "https://api.apify.com"

// Actor IDs.
const (
	ActorProfileDetails = "bn2Zqf05Giqym1kiD"
	ActorProfilePosts   = "mrThmKLmkxJPehxCg"
	ActorTrafficStats   = "yOYYzj2J5K88boIVO"
)

// DefaultPostsLimit is the number of posts requested when unset.
const DefaultPostsLimit = 10

// notAvailable fills fields the actor did not return.
const notAvailable = "N/A"

// Config configures the Apify sources.
type Config struct {
	// Token is the Apify API token.
	Token string
	// BaseURL overrides DefaultBaseURL.
	BaseURL string
	// PostsLimit caps profile posts. Zero uses DefaultPostsLimit.
	PostsLimit int
	// HTTP carries timeout and pacing settings. Its Token is ignored.
	HTTP httpx.Config
}

// Client runs Apify actors.
type Client struct {
	http    *httpx.Client
	baseURL string
	hasAuth bool
}

// NewClient creates an Apify client.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	httpCfg := cfg.HTTP
	httpCfg.Token = cfg.Token
	return &Client{
		http:    httpx.New(httpCfg),
		baseURL: strings.TrimRight(base, "/"),
		hasAuth: cfg.Token != "",
	}
}

// RunActor runs actorID with input and returns its dataset items.
func (c *Client) RunActor(ctx context.Context, actorID string, input any) ([]map[string]any, error) {
	if !c.hasAuth {
		return nil, errors.WithHint(
			errors.Wrap(domain.ErrAuthRequired, "apify token not configured"),
			"set APIFY_API_TOKEN or 'vetta config set apify.token <token>'",
		)
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items", c.baseURL, url.PathEscape(actorID))
	var items []map[string]any
	if err := c.http.PostJSON(ctx, endpoint, input, &items); err != nil {
		return nil, errors.Wrapf(err, "run actor %s", actorID)
	}
	return items, nil
}

// first returns the first dataset item, or an empty one.
func first(items []map[string]any) map[string]any {
	if len(items) == 0 {
		return map[string]any{}
	}
	return items[0]
}

// orNA returns m[key], or "N/A" when absent or null.
func orNA(m map[string]any, key string) any {
	if v, ok := m[key]; ok && v != nil {
		return v
	}
	return notAvailable
}

// nested returns m[key] as a map, or an empty one.
func nested(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}
