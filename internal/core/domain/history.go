package domain

import "time"

// RunRecord is the persisted summary of a completed vetting run.
// Payloads are never stored; only per-source states and messages.
type RunRecord struct {
	ID          string
	CompanyName string
	Request     FetchRequest
	StartedAt   time.Time
	Duration    time.Duration
	Summary     Summary
}
