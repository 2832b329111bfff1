package driven

import (
	"context"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

// SourceAdapter gathers data about one company from one external source.
//
// Fetch must honour ctx cancellation and must not retain the request.
// A returned error that wraps domain.ErrMissingPrerequisite means the
// source was not attempted and is recorded as skipped; any other error
// is recorded as a failure. The payload is opaque to the pipeline and is
// only ever serialised for display.
type SourceAdapter interface {
	// Key returns the fixed identifier for this source.
	Key() domain.SourceKey

	// Fetch gathers the source's payload for the request.
	Fetch(ctx context.Context, req domain.FetchRequest) (any, error)
}

// SourceFactory builds a SourceAdapter for a key.
// Used by the isolated worker to construct the adapter it runs.
type SourceFactory func(key domain.SourceKey) (SourceAdapter, error)
