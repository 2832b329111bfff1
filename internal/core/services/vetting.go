package services

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
	"github.com/custodia-labs/vetta/internal/core/ports/driving"
	"github.com/custodia-labs/vetta/internal/logger"
)

// Ensure VettingService implements the interface.
var _ driving.VettingService = (*VettingService)(nil)

// VettingService runs one vetting request end to end.
type VettingService struct {
	orchestrator *Orchestrator
	history      driven.HistoryStore
	reports      *ReportGenerator
}

// NewVettingService creates a vetting service.
// history and reports are optional; when nil, runs are not recorded and
// report requests fail with domain.ErrReportUnavailable.
func NewVettingService(orchestrator *Orchestrator, history driven.HistoryStore, reports *ReportGenerator) *VettingService {
	return &VettingService{
		orchestrator: orchestrator,
		history:      history,
		reports:      reports,
	}
}

// Sources returns the enabled source keys in declaration order.
func (s *VettingService) Sources() []domain.SourceKey {
	return s.orchestrator.Enabled()
}

// Vet runs the pipeline and formats the dossier.
func (s *VettingService) Vet(ctx context.Context, req domain.FetchRequest, opts driving.VetOptions) (*driving.VetResult, error) {
	// 1. Run every source
	var runOpts []RunOption
	if opts.Deadline > 0 {
		runOpts = append(runOpts, WithDeadline(opts.Deadline))
	}
	result, err := s.orchestrator.Run(ctx, req, runOpts...)
	if err != nil {
		return nil, err
	}

	// 2. Summarise and format
	out := &driving.VetResult{
		Result:  result,
		Summary: Summarise(result),
		Dossier: Format(result),
	}

	// 3. Record history; a failed write never fails the run
	if s.history != nil {
		if err := s.history.Save(ctx, recordFor(result, out.Summary)); err != nil {
			logger.Warn("Failed to record run %s: %v", result.RunID, err)
		}
	}

	// 4. Optional report
	if opts.Report {
		out.Report, out.ReportErr = s.reports.Generate(ctx, out.Dossier, opts.Documents)
		if out.ReportErr != nil {
			logger.Warn("Report not generated: %v", out.ReportErr)
		}
	}

	return out, nil
}

func recordFor(r *domain.PipelineResult, summary domain.Summary) *domain.RunRecord {
	return &domain.RunRecord{
		ID:          r.RunID,
		CompanyName: r.Request.CompanyName,
		Request:     r.Request,
		StartedAt:   r.StartedAt,
		Duration:    r.Duration,
		Summary:     summary,
	}
}

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService reads past run summaries.
type HistoryService struct {
	store driven.HistoryStore
}

// NewHistoryService creates a history service over store.
func NewHistoryService(store driven.HistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// List returns the most recent runs, newest first.
func (s *HistoryService) List(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	recs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list history")
	}
	return recs, nil
}

// Get returns one run by ID.
func (s *HistoryService) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	if s.store == nil {
		return nil, domain.ErrNotFound
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get run %s", id)
	}
	return rec, nil
}
