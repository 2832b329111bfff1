package driven

import (
	"context"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

// HistoryStore persists summaries of completed vetting runs.
type HistoryStore interface {
	// Save stores a run record, replacing any record with the same ID.
	Save(ctx context.Context, rec *domain.RunRecord) error

	// Get retrieves a run record by ID.
	// Returns domain.ErrNotFound if no record exists.
	Get(ctx context.Context, id string) (*domain.RunRecord, error)

	// List returns the most recent run records, newest first.
	// A limit of zero or less returns every record.
	List(ctx context.Context, limit int) ([]*domain.RunRecord, error)

	// Close releases resources.
	Close() error
}
