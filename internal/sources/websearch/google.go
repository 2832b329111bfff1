package websearch

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/sources/httpx"
)

// googleMaxNum is the most results Programmable Search returns per request.
const googleMaxNum = 10

// GoogleConfig configures the Google Programmable Search provider.
type GoogleConfig struct {
	APIKey string
	// EngineID is the search engine (cx) identifier.
	EngineID string
	// Endpoint overrides the API base URL.
	Endpoint string
	// RequestsPerSecond paces queries. Zero uses httpx.DefaultRate.
	RequestsPerSecond float64
}

// Google searches with the Custom Search JSON API.
type Google struct {
	svc      *customsearch.Service
	engineID string
	limiter  *httpx.RateLimiter
}

// NewGoogle creates a Google provider.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, errors.WithHint(
			errors.Wrap(domain.ErrAuthRequired, "google api key and search engine id are required"),
			"set GOOGLE_API_KEY and GOOGLE_CSE_ID",
		)
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create custom search service")
	}

	rps := cfg.RequestsPerSecond
	if rps == 0 {
		rps = httpx.DefaultRate
	}
	return &Google{svc: svc, engineID: cfg.EngineID, limiter: httpx.NewRateLimiter(rps, 1)}, nil
}

// Name returns "google".
func (g *Google) Name() string { return "google" }

// Search runs one Custom Search query.
func (g *Google) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 || maxResults > googleMaxNum {
		maxResults = googleMaxNum
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "wait for rate limiter")
	}

	resp, err := g.svc.Cse.List().Q(query).Cx(g.engineID).Num(int64(maxResults)).Context(ctx).Do()
	if err != nil {
		if isRateLimited(err) {
			g.limiter.Backoff(0)
		}
		return nil, wrapGoogleError(err)
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, Result{Title: item.Title, URL: item.Link, Content: item.Snippet})
	}
	return results, nil
}

func isRateLimited(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests
}

// wrapGoogleError marks a Google API error with the matching domain error.
func wrapGoogleError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch gerr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Mark(err, domain.ErrAuthInvalid)
	case http.StatusNotFound:
		return errors.Mark(err, domain.ErrNotFound)
	case http.StatusTooManyRequests:
		return errors.Mark(err, domain.ErrRateLimited)
	default:
		return err
	}
}
