package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

const (
	uriScheme = "vetta://"

	historyLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sources",
		Name:        "sources",
		Description: "Data sources queried by vet_company, in report order",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)

	if s.ports.History == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Summaries of the most recent vetting runs",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "history/{runId}",
		Name:        "run",
		Description: "Summary of one vetting run",
		MIMEType:    "application/json",
	}, s.handleRunResource)
}

type sourceInfo struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Requires    []string `json:"requires"`
	Isolated    bool     `json:"isolated,omitempty"`
	Enabled     bool     `json:"enabled"`
}

// handleSourcesResource lists the source catalogue and which sources this server runs.
func (s *Server) handleSourcesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	enabled := make(map[domain.SourceKey]bool)
	for _, k := range s.ports.Vetting.Sources() {
		enabled[k] = true
	}

	catalogue := domain.SourceCatalogue()
	infos := make([]sourceInfo, len(catalogue))
	for i, spec := range catalogue {
		infos[i] = sourceInfo{
			Key:         spec.Key.String(),
			Title:       spec.Key.Title(),
			Description: spec.Description,
			Requires:    spec.Requires,
			Isolated:    spec.Isolated,
			Enabled:     enabled[spec.Key],
		}
	}
	return jsonResult(req.Params.URI, infos)
}

type runInfo struct {
	ID          string              `json:"id"`
	CompanyName string              `json:"company_name"`
	Request     domain.FetchRequest `json:"request"`
	StartedAt   time.Time           `json:"started_at"`
	DurationMS  int64               `json:"duration_ms"`
	Summary     domain.Summary      `json:"summary"`
}

func toRunInfo(rec *domain.RunRecord) runInfo {
	return runInfo{
		ID:          rec.ID,
		CompanyName: rec.CompanyName,
		Request:     rec.Request,
		StartedAt:   rec.StartedAt,
		DurationMS:  rec.Duration.Milliseconds(),
		Summary:     rec.Summary,
	}
}

// handleHistoryResource returns the most recent runs, newest first.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	recs, err := s.ports.History.List(ctx, historyLimit)
	if err != nil {
		return nil, errors.Wrap(err, "listing history")
	}
	infos := make([]runInfo, len(recs))
	for i, rec := range recs {
		infos[i] = toRunInfo(rec)
	}
	return jsonResult(req.Params.URI, infos)
}

// handleRunResource returns a single run by ID.
func (s *Server) handleRunResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractRunID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, err := s.ports.History.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting run")
	}
	return jsonResult(req.Params.URI, toRunInfo(rec))
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshalling resource")
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRunID extracts the run ID from a URI like vetta://history/{runId}.
func extractRunID(uri string) string {
	const prefix = uriScheme + "history/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
