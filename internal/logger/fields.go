package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for structured logging.
const (
	FieldRunID      = "run_id"
	FieldSource     = "source"
	FieldCompany    = "company"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldDurationMS = "duration_ms"
	FieldPID        = "pid"
	FieldCount      = "count"
)

type contextKey string

const runIDKey contextKey = "logger_run_id"

// WithRunID adds a run ID to the context for logging.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID returns the run ID stored in ctx, if any.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// FromContext returns a logger with the run ID from ctx attached.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if id := RunID(ctx); id != "" {
		return With(FieldRunID, id)
	}
	return L().Sugar()
}
