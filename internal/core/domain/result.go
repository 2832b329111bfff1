package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// PipelineResult holds the outcome of every configured source for one run.
// Keys preserves declaration order; Outcomes has exactly one entry per key.
type PipelineResult struct {
	RunID     string
	Request   FetchRequest
	StartedAt time.Time
	Duration  time.Duration
	Keys      []SourceKey
	Outcomes  map[SourceKey]Outcome
}

// NewPipelineResult creates a result with every key Pending.
func NewPipelineResult(runID string, req FetchRequest, keys []SourceKey) *PipelineResult {
	outcomes := make(map[SourceKey]Outcome, len(keys))
	for _, k := range keys {
		outcomes[k] = Pending()
	}
	return &PipelineResult{
		RunID:    runID,
		Request:  req,
		Keys:     append([]SourceKey(nil), keys...),
		Outcomes: outcomes,
	}
}

// Get returns the outcome for a key and whether the key is configured.
func (r *PipelineResult) Get(key SourceKey) (Outcome, bool) {
	o, ok := r.Outcomes[key]
	return o, ok
}

// PendingKeys returns the keys that have not settled. Empty for a completed run.
func (r *PipelineResult) PendingKeys() []SourceKey {
	var pending []SourceKey
	for _, k := range r.Keys {
		if o := r.Outcomes[k]; !o.IsTerminal() {
			pending = append(pending, k)
		}
	}
	return pending
}

// MarshalJSON renders the result with sources in declaration order.
func (r *PipelineResult) MarshalJSON() ([]byte, error) {
	var sources bytes.Buffer
	sources.WriteByte('{')
	for i, k := range r.Keys {
		if i > 0 {
			sources.WriteByte(',')
		}
		name, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(r.Outcomes[k])
		if err != nil {
			return nil, err
		}
		sources.Write(name)
		sources.WriteByte(':')
		sources.Write(body)
	}
	sources.WriteByte('}')

	return json.Marshal(struct {
		RunID      string          `json:"run_id,omitempty"`
		Request    FetchRequest    `json:"request"`
		StartedAt  time.Time       `json:"started_at"`
		DurationMS int64           `json:"duration_ms"`
		Sources    json.RawMessage `json:"sources"`
	}{
		RunID:      r.RunID,
		Request:    r.Request,
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
		Sources:    sources.Bytes(),
	})
}
