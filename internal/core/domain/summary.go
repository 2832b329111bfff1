package domain

// SourceStatus is one source's line in a Summary.
type SourceStatus struct {
	Key     SourceKey    `json:"key"`
	State   OutcomeState `json:"state"`
	Message string       `json:"message,omitempty"`
}

// Summary is the aggregate view of a PipelineResult.
//
// Total counts only sources that were attempted: skipped sources are
// excluded from the denominator, so Success <= Total <= len(Sources).
type Summary struct {
	Success int            `json:"success"`
	Total   int            `json:"total"`
	Failed  int            `json:"failed"`
	Skipped int            `json:"skipped"`
	Sources []SourceStatus `json:"sources"`
}
