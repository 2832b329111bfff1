package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidRequest indicates a malformed or incomplete FetchRequest.
	// It is the only error that stops a vetting run before dispatch.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedSource indicates an unknown source key.
	ErrUnsupportedSource = errors.New("unsupported source")

	// Source Errors.

	// ErrMissingPrerequisite indicates a source was not invoked because a
	// request field it needs is absent or malformed. Recorded as Skipped.
	ErrMissingPrerequisite = errors.New("missing prerequisite")

	// ErrSourceExcluded indicates a source was excluded from this run by configuration.
	ErrSourceExcluded = errors.New("source excluded by configuration")

	// ErrSourceFailed indicates a source call failed for an external reason.
	ErrSourceFailed = errors.New("source failed")

	// ErrTimeout indicates a source exceeded its time budget.
	ErrTimeout = errors.New("timed out")

	// ErrWorkerNoResult indicates an isolated worker exited without writing its outcome.
	ErrWorkerNoResult = errors.New("worker process ended without returning data")

	// ErrRateLimited indicates the upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Authentication Errors.

	// ErrAuthRequired indicates the source needs credentials but none are configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the configured credentials were rejected.
	ErrAuthInvalid = errors.New("authentication invalid")

	// Report Errors.

	// ErrReportUnavailable indicates no report writer (LLM) is configured.
	ErrReportUnavailable = errors.New("report writer unavailable")
)
