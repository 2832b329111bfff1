package services

import "github.com/custodia-labs/vetta/internal/core/domain"

// Summarise derives success/total counts from a completed result.
//
// Skipped sources are excluded from Total: a source that was never
// attempted (missing prerequisite or excluded by configuration) neither
// succeeded nor failed. Any source still pending counts as a failure.
func Summarise(r *domain.PipelineResult) domain.Summary {
	s := domain.Summary{Sources: make([]domain.SourceStatus, 0, len(r.Keys))}
	for _, k := range r.Keys {
		o := r.Outcomes[k]
		switch o.State {
		case domain.OutcomeSuccess:
			s.Success++
			s.Total++
		case domain.OutcomeSkipped:
			s.Skipped++
		default:
			s.Failed++
			s.Total++
		}
		s.Sources = append(s.Sources, domain.SourceStatus{Key: k, State: o.State, Message: o.Message})
	}
	return s
}
