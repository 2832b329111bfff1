// Package registry implements the business register lookup source against
// the Australian Business Register (ABN Lookup) web pages.
package registry

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
	"github.com/custodia-labs/vetta/internal/logger"
	"github.com/custodia-labs/vetta/internal/sources/htmltext"
	"github.com/custodia-labs/vetta/internal/sources/httpx"
)

// DefaultBaseURL is the ABN Lookup site.
const DefaultBaseURL = "https://abr.business.gov.au"

const (
	searchPath = "/Search/ResultsActive"
	detailPath = "/ABN/View"
)

// notAvailable fills fields the detail page did not show.
const notAvailable = "N/A"

// Ensure Source implements the interface.
var _ driven.SourceAdapter = (*Source)(nil)

// Config configures the registry source.
type Config struct {
	// BaseURL overrides DefaultBaseURL.
	BaseURL string
	// HTTP carries timeout and pacing settings.
	HTTP httpx.Config
}

// Source looks a company up on the business register.
type Source struct {
	http    *httpx.Client
	baseURL string
}

// New creates the registry lookup source.
func New(cfg Config) *Source {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Source{
		http:    httpx.New(cfg.HTTP),
		baseURL: strings.TrimRight(base, "/"),
	}
}

// Key returns domain.SourceRegistryLookup.
func (s *Source) Key() domain.SourceKey { return domain.SourceRegistryLookup }

// SearchResult is one row of a name search.
type SearchResult struct {
	ABN      string `json:"abn"`
	Status   string `json:"status"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

// Details is the register entry for one ABN.
type Details struct {
	ABN           string   `json:"abn"`
	EntityName    string   `json:"entity_name"`
	Status        string   `json:"status"`
	EntityType    string   `json:"entity_type"`
	GSTRegistered string   `json:"gst_registered"`
	Location      string   `json:"location"`
	BusinessNames []string `json:"business_names"`
	LastUpdated   string   `json:"last_updated"`
}

// Fetch returns the register details for the request's ABN, or for the
// first name-search match when no ABN is given. A valid search with no
// matches is an empty, successful result.
func (s *Source) Fetch(ctx context.Context, req domain.FetchRequest) (any, error) {
	if req.RegistryNumber != "" {
		abn, err := domain.CleanABN(req.RegistryNumber)
		if err == nil {
			return s.lookup(ctx, abn)
		}
		if req.CompanyName == "" {
			return nil, err
		}
		logger.FromContext(ctx).Debugw("abn unusable, searching by name",
			logger.FieldSource, s.Key(), logger.FieldError, err)
	}
	if req.CompanyName == "" {
		return nil, fmt.Errorf("%w: company name or abn not provided", domain.ErrMissingPrerequisite)
	}

	results, err := s.Search(ctx, req.CompanyName)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return map[string]any{}, nil
	}
	return s.lookup(ctx, results[0].ABN)
}

func (s *Source) lookup(ctx context.Context, abn string) (any, error) {
	d, err := s.Details(ctx, abn)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Search runs a name search and returns the result rows in page order.
func (s *Source) Search(ctx context.Context, name string) ([]SearchResult, error) {
	doc, err := s.page(ctx, searchPath, url.Values{"SearchText": {name}})
	if err != nil {
		return nil, errors.Wrap(err, "search register")
	}
	return parseSearch(doc), nil
}

// Details fetches the detail page for abn.
func (s *Source) Details(ctx context.Context, abn string) (*Details, error) {
	clean := strings.ReplaceAll(abn, " ", "")
	doc, err := s.page(ctx, detailPath, url.Values{"abn": {clean}})
	if err != nil {
		return nil, errors.Wrapf(err, "fetch register details for %s", abn)
	}
	return parseDetails(doc, abn), nil
}

func (s *Source) page(ctx context.Context, path string, query url.Values) (*html.Node, error) {
	body, err := s.http.Get(ctx, s.baseURL+path+"?"+query.Encode())
	if err != nil {
		return nil, err
	}
	return htmltext.Parse(bytes.NewReader(body))
}

// parseSearch reads the first results table, skipping its header row.
func parseSearch(doc *html.Node) []SearchResult {
	table := htmltext.Find(doc, atom.Table)
	if table == nil {
		return nil
	}
	var results []SearchResult
	for i, tr := range htmltext.FindAll(table, atom.Tr) {
		if i == 0 {
			continue
		}
		cells := htmltext.FindAll(tr, atom.Td)
		if len(cells) < 4 {
			continue
		}
		abn := notAvailable
		if link := htmltext.Find(cells[0], atom.A); link != nil {
			abn = htmltext.Text(link)
		}
		status := "Cancelled"
		if strings.Contains(htmltext.Text(cells[0]), "Active") {
			status = "Active"
		}
		results = append(results, SearchResult{
			ABN:      abn,
			Status:   status,
			Name:     htmltext.Text(cells[1]),
			Type:     htmltext.Text(cells[2]),
			Location: htmltext.Text(cells[3]),
		})
	}
	return results
}

const lastUpdatedLabel = "ABN last updated:"

// parseDetails maps the labelled rows of the detail page onto Details.
func parseDetails(doc *html.Node, abn string) *Details {
	d := &Details{
		ABN:           abn,
		EntityName:    notAvailable,
		Status:        notAvailable,
		EntityType:    notAvailable,
		GSTRegistered: notAvailable,
		Location:      notAvailable,
		BusinessNames: []string{},
		LastUpdated:   notAvailable,
	}

	for _, table := range htmltext.FindAll(doc, atom.Table) {
		rows := htmltext.Rows(table)
		if len(rows) > 0 && isBusinessNamesHeader(rows[0].Headers) {
			for _, row := range rows[1:] {
				if len(row.Cells) > 0 && row.Cells[0] != "" && row.Cells[0] != notAvailable {
					d.BusinessNames = append(d.BusinessNames, row.Cells[0])
				}
			}
			continue
		}
		for _, row := range rows {
			if len(row.Headers) == 0 || len(row.Cells) == 0 {
				continue
			}
			header, value := strings.ToLower(row.Headers[0]), row.Cells[0]
			switch {
			case strings.Contains(header, "entity name"):
				d.EntityName = value
			case strings.Contains(header, "abn status"):
				d.Status = value
			case strings.Contains(header, "entity type"):
				d.EntityType = value
			case strings.Contains(header, "goods & services tax"), strings.Contains(header, "gst"):
				d.GSTRegistered = value
			case strings.Contains(header, "main business location"):
				d.Location = value
			}
		}
	}

	for _, li := range htmltext.FindAll(doc, atom.Li) {
		if text := htmltext.Text(li); strings.Contains(text, lastUpdatedLabel) {
			d.LastUpdated = strings.TrimSpace(strings.ReplaceAll(text, lastUpdatedLabel, ""))
			break
		}
	}
	return d
}

func isBusinessNamesHeader(headers []string) bool {
	var name, from bool
	for _, h := range headers {
		switch strings.ToLower(h) {
		case "business name":
			name = true
		case "from":
			from = true
		}
	}
	return name && from
}
