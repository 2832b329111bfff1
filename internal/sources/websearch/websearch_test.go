package websearch

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

type stubProvider struct {
	queries []string
	limits  []int
	results []Result
	err     error
	failOn  int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Search(_ context.Context, query string, maxResults int) ([]Result, error) {
	p.queries = append(p.queries, query)
	p.limits = append(p.limits, maxResults)
	if p.err != nil && len(p.queries) == p.failOn {
		return nil, p.err
	}
	return p.results, nil
}

func TestQueries(t *testing.T) {
	assert.Equal(t, []string{`"Acme UK"`, `"Acme UK news"`, `"Acme UK reviews"`}, New(nil).Queries("Acme"))
	assert.Equal(t,
		[]string{`"Acme AU"`, `"Acme AU news"`, `"Acme AU reviews"`},
		New(nil, WithRegion("AU")).Queries("Acme"))
	assert.Equal(t,
		[]string{`"Acme"`, `"Acme news"`, `"Acme reviews"`},
		New(nil, WithRegion("")).Queries("Acme"))
}

func TestFetch(t *testing.T) {
	provider := &stubProvider{results: []Result{
		{Title: "Acme launches", URL: "https://news.example/acme", Content: "Acme launched a widget."},
		{Title: "", URL: "https://example.com"},
	}}
	src := New(provider, WithMaxResults(5))
	assert.Equal(t, domain.SourceWebSearch, src.Key())

	payload, err := src.Fetch(context.Background(), domain.FetchRequest{CompanyName: "Acme"})
	require.NoError(t, err)

	p := payload.(Payload)
	assert.Equal(t, "Acme", p.CompanyName)
	require.Len(t, p.Searches, 3)
	assert.Equal(t, `"Acme UK news"`, p.Searches[1].Query)
	assert.Equal(t, 2, p.Searches[0].ResultCount)
	assert.Equal(t, Result{Title: "N/A", URL: "https://example.com", Content: "N/A"}, p.Searches[0].Results[1])
	assert.Equal(t, []int{5, 5, 5}, provider.limits)
}

func TestFetch_NoResults(t *testing.T) {
	src := New(&stubProvider{})

	payload, err := src.Fetch(context.Background(), domain.FetchRequest{CompanyName: "Nobody"})
	require.NoError(t, err)
	for _, s := range payload.(Payload).Searches {
		assert.Zero(t, s.ResultCount)
		assert.NotNil(t, s.Results)
	}
}

func TestFetch_QueryFailureFailsSource(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused"), failOn: 2}
	src := New(provider)

	_, err := src.Fetch(context.Background(), domain.FetchRequest{CompanyName: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), `"Acme UK news"`)
	assert.Len(t, provider.queries, 2)
}

func TestFetch_NoProvider(t *testing.T) {
	_, err := New(nil).Fetch(context.Background(), domain.FetchRequest{CompanyName: "Acme"})
	assert.True(t, errors.Is(err, domain.ErrAuthRequired))
}

func TestFetch_MissingCompany(t *testing.T) {
	_, err := New(&stubProvider{}).Fetch(context.Background(), domain.FetchRequest{CompanyName: "  "})
	assert.True(t, errors.Is(err, domain.ErrMissingPrerequisite))
}
