package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

// OutcomeState is the lifecycle state of one source within a run.
type OutcomeState string

const (
	// OutcomePending is the initial state. It never appears in a completed result.
	OutcomePending OutcomeState = "pending"
	// OutcomeSuccess means the source returned a payload.
	OutcomeSuccess OutcomeState = "success"
	// OutcomeError means the source failed, timed out or missed the pipeline deadline.
	OutcomeError OutcomeState = "error"
	// OutcomeSkipped means the source was deliberately not invoked.
	OutcomeSkipped OutcomeState = "skipped"
)

// Narrative is a free-text payload that is rendered verbatim in a dossier
// instead of being serialised as structured data.
type Narrative string

// Outcome is the settled result of one source. Exactly one of Payload or
// Message is meaningful, depending on State.
type Outcome struct {
	State OutcomeState
	// Payload is the structured (or Narrative) data for a successful source.
	Payload any
	// Message is the error message or skip reason.
	Message string
}

// Pending returns the initial outcome of an undispatched source.
func Pending() Outcome {
	return Outcome{State: OutcomePending}
}

// Success records a payload. A nil payload is allowed.
func Success(payload any) Outcome {
	return Outcome{State: OutcomeSuccess, Payload: payload}
}

// Failed records an error message. An empty message is allowed.
func Failed(msg string) Outcome {
	return Outcome{State: OutcomeError, Message: msg}
}

// Skipped records why a source was not invoked.
func Skipped(reason string) Outcome {
	return Outcome{State: OutcomeSkipped, Message: reason}
}

// IsTerminal reports whether the outcome has settled.
func (o Outcome) IsTerminal() bool {
	return o.State == OutcomeSuccess || o.State == OutcomeError || o.State == OutcomeSkipped
}

// outcomeJSON is the wire form of an Outcome.
type outcomeJSON struct {
	Status OutcomeState `json:"status"`
	Data   any          `json:"data,omitempty"`
	Error  string       `json:"error,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// MarshalJSON renders the outcome as {"status": ..., "data"|"error"|"reason": ...}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	w := outcomeJSON{Status: o.State}
	switch o.State {
	case OutcomeSuccess:
		w.Data = o.Payload
	case OutcomeError:
		w.Error = o.Message
	case OutcomeSkipped:
		w.Reason = o.Message
	}
	return json.Marshal(w)
}

// ReasonExcluded is the skip reason for a source excluded by configuration.
const ReasonExcluded = "excluded by configuration"

// OutcomeFromError maps a source error to its recorded outcome.
// Missing prerequisites and exclusions are skips; everything else is a failure.
func OutcomeFromError(err error) Outcome {
	switch {
	case errors.Is(err, ErrMissingPrerequisite):
		return Skipped(trimSentinel(err.Error(), ErrMissingPrerequisite))
	case errors.Is(err, ErrSourceExcluded):
		return Skipped(ReasonExcluded)
	default:
		return Failed(err.Error())
	}
}

// trimSentinel drops a leading "<sentinel>: " from msg so skip reasons read
// as "domain not provided" rather than "missing prerequisite: domain not provided".
func trimSentinel(msg string, sentinel error) string {
	if reason, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return reason
	}
	return msg
}
