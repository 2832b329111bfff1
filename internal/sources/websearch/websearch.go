// Package websearch implements the web search source. Queries go to a
// Provider: Tavily or Google Programmable Search.
package websearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
	"github.com/custodia-labs/vetta/internal/logger"
)

// Defaults.
const (
	DefaultRegion     = "UK"
	DefaultMaxResults = 10
)

// notAvailable fills result fields the provider left empty.
const notAvailable = "N/A"

// querySuffixes are appended to "<company> <region>", one search each.
var querySuffixes = []string{"", "news", "reviews"}

// Provider runs a single web search.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Search is the outcome of one query.
type Search struct {
	Query       string   `json:"query"`
	ResultCount int      `json:"result_count"`
	Results     []Result `json:"results"`
}

// Payload is the web search source payload.
type Payload struct {
	CompanyName string   `json:"company_name"`
	Searches    []Search `json:"searches"`
}

// Ensure Source implements the interface.
var _ driven.SourceAdapter = (*Source)(nil)

// Source runs the company queries against a Provider.
type Source struct {
	provider   Provider
	region     string
	maxResults int
}

// Option configures a Source.
type Option func(*Source)

// WithRegion sets the region qualifier added to every query. Empty omits it.
func WithRegion(region string) Option {
	return func(s *Source) { s.region = strings.TrimSpace(region) }
}

// WithMaxResults caps results per query. Non-positive values are ignored.
func WithMaxResults(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// New creates the web search source.
func New(provider Provider, opts ...Option) *Source {
	s := &Source{provider: provider, region: DefaultRegion, maxResults: DefaultMaxResults}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns domain.SourceWebSearch.
func (s *Source) Key() domain.SourceKey { return domain.SourceWebSearch }

// Queries returns the quoted queries run for company, in order.
func (s *Source) Queries(company string) []string {
	queries := make([]string, 0, len(querySuffixes))
	for _, suffix := range querySuffixes {
		parts := []string{company}
		if s.region != "" {
			parts = append(parts, s.region)
		}
		if suffix != "" {
			parts = append(parts, suffix)
		}
		queries = append(queries, `"`+strings.Join(parts, " ")+`"`)
	}
	return queries
}

// Fetch runs every query in turn. Any failed query fails the source.
func (s *Source) Fetch(ctx context.Context, req domain.FetchRequest) (any, error) {
	company := strings.TrimSpace(req.CompanyName)
	if company == "" {
		return nil, fmt.Errorf("%w: company name not provided", domain.ErrMissingPrerequisite)
	}
	if s.provider == nil {
		return nil, errors.WithHint(
			errors.Wrap(domain.ErrAuthRequired, "no web search provider configured"),
			"set TAVILY_API_KEY, or GOOGLE_API_KEY and GOOGLE_CSE_ID",
		)
	}

	log := logger.FromContext(ctx)
	payload := Payload{CompanyName: company, Searches: make([]Search, 0, len(querySuffixes))}
	for _, query := range s.Queries(company) {
		results, err := s.provider.Search(ctx, query, s.maxResults)
		if err != nil {
			return nil, errors.Wrapf(err, "%s search %s", s.provider.Name(), query)
		}
		results = cleanResults(results)
		log.Debugw("web search complete", "query", query, logger.FieldCount, len(results))
		payload.Searches = append(payload.Searches, Search{
			Query:       query,
			ResultCount: len(results),
			Results:     results,
		})
	}
	return payload, nil
}

func cleanResults(results []Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, Result{
			Title:   orNA(r.Title),
			URL:     orNA(r.URL),
			Content: orNA(r.Content),
		})
	}
	return out
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
