package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

func TestSummarise(t *testing.T) {
	r := domain.NewPipelineResult("run", acme, []domain.SourceKey{"a", "b", "c", "d"})
	r.Outcomes["a"] = domain.Success(nil)
	r.Outcomes["b"] = domain.Failed("boom")
	r.Outcomes["c"] = domain.Skipped("abn not provided")
	r.Outcomes["d"] = domain.Success([]any{})

	s := Summarise(r)

	assert.Equal(t, 2, s.Success)
	assert.Equal(t, 3, s.Total, "skipped sources are not counted")
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, []domain.SourceStatus{
		{Key: "a", State: domain.OutcomeSuccess},
		{Key: "b", State: domain.OutcomeError, Message: "boom"},
		{Key: "c", State: domain.OutcomeSkipped, Message: "abn not provided"},
		{Key: "d", State: domain.OutcomeSuccess},
	}, s.Sources)
}

func TestSummarise_PendingCountsAsFailure(t *testing.T) {
	r := domain.NewPipelineResult("run", acme, []domain.SourceKey{"a"})

	s := Summarise(r)

	assert.Equal(t, 0, s.Success)
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 1, s.Failed)
}

func TestSummarise_Empty(t *testing.T) {
	s := Summarise(domain.NewPipelineResult("run", acme, nil))
	assert.Zero(t, s.Total)
	assert.Empty(t, s.Sources)
}
