package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

// VettingService runs the gathering pipeline for a company and renders
// the resulting dossier.
type VettingService interface {
	// Vet validates the request, queries every configured source and
	// formats the results. Only an invalid request returns an error;
	// source failures are recorded in the result.
	Vet(ctx context.Context, req domain.FetchRequest, opts VetOptions) (*VetResult, error)

	// Sources returns the keys of the sources not excluded by configuration,
	// in declaration order.
	Sources() []domain.SourceKey
}

// VetOptions tunes a single vetting run.
type VetOptions struct {
	// Deadline bounds the whole run. Zero uses the configured default.
	Deadline time.Duration

	// Report requests an LLM-written vetting report.
	Report bool

	// Documents are extra supporting documents for the report writer.
	Documents []Document
}

// Document is a named supporting text for the report writer.
type Document struct {
	Name    string
	Content string
}

// VetResult is everything produced by one vetting run.
type VetResult struct {
	Result  *domain.PipelineResult
	Summary domain.Summary
	// Dossier is the formatted plain-text report.
	Dossier string
	// Report is the LLM-written vetting report, when requested.
	Report string
	// ReportErr records why a requested report could not be written.
	ReportErr error
}

// HistoryService exposes summaries of past runs.
type HistoryService interface {
	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]*domain.RunRecord, error)

	// Get returns one run by ID.
	Get(ctx context.Context, id string) (*domain.RunRecord, error)
}
