package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/sources/httpx"
)

const searchPage = `<html><body>
<table>
  <tr><th>ABN</th><th>Name</th><th>Type</th><th>Location</th></tr>
  <tr>
    <td><a href="/ABN/View?abn=51824753556">51 824 753 556</a> <span>Active</span></td>
    <td>ACME PTY LTD</td><td>Entity Name</td><td>2000 NSW</td>
  </tr>
  <tr>
    <td><a href="/ABN/View?abn=11111111111">11 111 111 111</a> Cancelled</td>
    <td>ACME HOLDINGS</td><td>Trading Name</td><td>3000 VIC</td>
  </tr>
  <tr><td>malformed</td></tr>
</table>
</body></html>`

const emptySearchPage = `<html><body><p>No search results were found.</p></body></html>`

const detailPage = `<html><body>
<table>
  <tr><th>Entity name:</th><td>ACME PTY LTD</td></tr>
  <tr><th>ABN status:</th><td>Active from 01 Nov 1999</td></tr>
  <tr><th>Entity type:</th><td>Australian Private Company</td></tr>
  <tr><th>Goods &amp; Services Tax (GST):</th><td>Registered from 01 Jul 2000</td></tr>
  <tr><th>Main business location:</th><td>NSW 2000</td></tr>
</table>
<table>
  <tr><th>Business name</th><th>From</th></tr>
  <tr><td><a href="#">ACME WIDGETS</a></td><td>12 Mar 2015</td></tr>
  <tr><td>ACME ONLINE</td><td>01 Feb 2018</td></tr>
</table>
<ul><li>Record extracted: 14 Oct 2026</li><li>ABN last updated: 03 May 2024</li></ul>
</body></html>`

type fakeRegister struct {
	search      string
	detailABNs  []string
	searchTerms []string
}

func (f *fakeRegister) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case searchPath:
		f.searchTerms = append(f.searchTerms, r.URL.Query().Get("SearchText"))
		_, _ = w.Write([]byte(f.search))
	case detailPath:
		f.detailABNs = append(f.detailABNs, r.URL.Query().Get("abn"))
		_, _ = w.Write([]byte(detailPage))
	default:
		http.NotFound(w, r)
	}
}

func newTestSource(t *testing.T, fake http.Handler) *Source {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, HTTP: httpx.Config{RequestsPerSecond: -1}})
}

func TestFetch_ByABN(t *testing.T) {
	fake := &fakeRegister{search: searchPage}
	src := newTestSource(t, fake)
	assert.Equal(t, domain.SourceRegistryLookup, src.Key())

	payload, err := src.Fetch(context.Background(), domain.FetchRequest{CompanyName: "Acme", RegistryNumber: "51 824 753 556"})
	require.NoError(t, err)

	assert.Empty(t, fake.searchTerms)
	assert.Equal(t, []string{"51824753556"}, fake.detailABNs)

	d := payload.(*Details)
	assert.Equal(t, &Details{
		ABN:           "51824753556",
		EntityName:    "ACME PTY LTD",
		Status:        "Active from 01 Nov 1999",
		EntityType:    "Australian Private Company",
		GSTRegistered: "Registered from 01 Jul 2000",
		Location:      "NSW 2000",
		BusinessNames: []string{"ACME WIDGETS", "ACME ONLINE"},
		LastUpdated:   "03 May 2024",
	}, d)
}

func TestFetch_ByNameUsesFirstResult(t *testing.T) {
	fake := &fakeRegister{search: searchPage}
	src := newTestSource(t, fake)

	payload, err := src.Fetch(context.Background(), domain.FetchRequest{CompanyName: "Acme Pty Ltd"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Acme Pty Ltd"}, fake.searchTerms)
	assert.Equal(t, []string{"51824753556"}, fake.detailABNs)
	assert.Equal(t, "51 824 753 556", payload.(*Details).ABN)
}

func TestFetch_MalformedABNFallsBackToName(t *testing.T) {
	fake := &fakeRegister{search: searchPage}
	src := newTestSource(t, fake)

	_, err := src.Fetch(context.Background(), domain.FetchRequest{CompanyName: "Acme", RegistryNumber: "123"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, fake.searchTerms)
}

func TestFetch_NoResultsIsEmptySuccess(t *testing.T) {
	fake := &fakeRegister{search: emptySearchPage}
	src := newTestSource(t, fake)

	payload, err := src.Fetch(context.Background(), domain.FetchRequest{CompanyName: "Nobody"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, payload)
	assert.Empty(t, fake.detailABNs)
}

func TestFetch_MissingIdentifiers(t *testing.T) {
	src := newTestSource(t, &fakeRegister{})

	_, err := src.Fetch(context.Background(), domain.FetchRequest{})
	require.Error(t, err)
	assert.Equal(t, domain.Skipped("company name or abn not provided"), domain.OutcomeFromError(err))
}

func TestFetch_ServerError(t *testing.T) {
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))

	_, err := src.Fetch(context.Background(), domain.FetchRequest{CompanyName: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search register")
	assert.Contains(t, err.Error(), "503")
}

func TestParseSearch(t *testing.T) {
	src := newTestSource(t, &fakeRegister{search: searchPage})

	results, err := src.Search(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, SearchResult{ABN: "51 824 753 556", Status: "Active", Name: "ACME PTY LTD", Type: "Entity Name", Location: "2000 NSW"}, results[0])
	assert.Equal(t, "Cancelled", results[1].Status)
}

func TestParseDetails_Defaults(t *testing.T) {
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>Nothing here</p></body></html>`))
	}))

	d, err := src.Details(context.Background(), "51824753556")
	require.NoError(t, err)
	assert.Equal(t, "N/A", d.EntityName)
	assert.Equal(t, "N/A", d.LastUpdated)
	assert.NotNil(t, d.BusinessNames)
	assert.Empty(t, d.BusinessNames)
}
