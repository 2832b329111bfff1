package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
	"github.com/custodia-labs/vetta/internal/logger"
)

// Outcome messages recorded by the orchestrator itself.
const (
	msgDeadline  = "did not complete before pipeline deadline"
	msgCancelled = "cancelled before completion"
	msgPanic     = "panic: %v"
)

// Orchestrator fans one FetchRequest out to every configured source and
// fans the outcomes back into a PipelineResult.
//
// A source failing never cancels its siblings. Each source writes only to
// its own slot, so the result map is assembled without locks once every
// slot has settled (or the pipeline deadline has passed).
type Orchestrator struct {
	sources  []driven.SourceAdapter
	keys     []domain.SourceKey
	exclude  map[domain.SourceKey]bool
	deadline time.Duration
	newRunID func() string
	now      func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithExclusions skips the given sources on every run. Excluded sources are
// still present in every result, as Skipped.
func WithExclusions(keys ...domain.SourceKey) OrchestratorOption {
	return func(o *Orchestrator) {
		for _, k := range keys {
			o.exclude[k] = true
		}
	}
}

// WithPipelineDeadline bounds every run. Zero means no deadline.
func WithPipelineDeadline(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.deadline = d
	}
}

// WithRunIDGenerator overrides how run IDs are generated.
func WithRunIDGenerator(fn func() string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.newRunID = fn
	}
}

// NewOrchestrator creates an orchestrator over sources, in the order given.
// That order is the declaration order used by every result and report.
func NewOrchestrator(sources []driven.SourceAdapter, opts ...OrchestratorOption) (*Orchestrator, error) {
	o := &Orchestrator{
		exclude:  make(map[domain.SourceKey]bool),
		newRunID: uuid.NewString,
		now:      time.Now,
	}

	seen := make(map[domain.SourceKey]bool, len(sources))
	for i, src := range sources {
		if src == nil {
			return nil, errors.Newf("source %d is nil", i)
		}
		key := src.Key()
		if key == "" {
			return nil, errors.Newf("source %d has an empty key", i)
		}
		if seen[key] {
			return nil, errors.Newf("duplicate source key %q", key)
		}
		seen[key] = true
		o.sources = append(o.sources, src)
		o.keys = append(o.keys, key)
	}

	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Keys returns the configured source keys in declaration order.
func (o *Orchestrator) Keys() []domain.SourceKey {
	return append([]domain.SourceKey(nil), o.keys...)
}

// Enabled returns the keys that are not excluded, in declaration order.
func (o *Orchestrator) Enabled() []domain.SourceKey {
	enabled := make([]domain.SourceKey, 0, len(o.keys))
	for _, k := range o.keys {
		if !o.exclude[k] {
			enabled = append(enabled, k)
		}
	}
	return enabled
}

// RunOption tunes a single Run.
type RunOption func(*runConfig)

type runConfig struct {
	deadline time.Duration
}

// WithDeadline overrides the pipeline deadline for one run.
func WithDeadline(d time.Duration) RunOption {
	return func(c *runConfig) {
		c.deadline = d
	}
}

// slot holds one source's outcome. done is closed after outcome and late
// are written; neither may be read before that.
type slot struct {
	outcome domain.Outcome
	// late reports that the run context had already ended when the source
	// returned, so its outcome is a reaction to the deadline or cancellation.
	late bool
	done chan struct{}
}

// Run queries every configured source concurrently and returns once every
// source has settled or the pipeline deadline has passed.
//
// Only an invalid request returns an error; it is checked before any
// source is invoked.
func (o *Orchestrator) Run(ctx context.Context, req domain.FetchRequest, opts ...RunOption) (*domain.PipelineResult, error) {
	cfg := runConfig{deadline: o.deadline}
	for _, opt := range opts {
		opt(&cfg)
	}

	// 1. Validate before dispatch
	req = req.Normalise()
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, "run pipeline")
	}

	result := domain.NewPipelineResult(o.newRunID(), req, o.keys)
	result.StartedAt = o.now()
	ctx = logger.WithRunID(ctx, result.RunID)
	log := logger.FromContext(ctx)

	runCtx := ctx
	if cfg.deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.deadline)
		defer cancel()
	}

	logger.Section("Vetting " + req.CompanyName)
	log.Debugf("Dispatching %d sources", len(o.sources))

	// 2. Fan out, one unit of work per source
	slots := make([]*slot, len(o.sources))
	var g errgroup.Group
	for i, src := range o.sources {
		s := &slot{done: make(chan struct{})}
		slots[i] = s

		if o.exclude[src.Key()] {
			s.outcome = domain.Skipped(domain.ReasonExcluded)
			close(s.done)
			continue
		}

		g.Go(func() error {
			defer close(s.done)
			s.outcome = invoke(runCtx, src, req)
			s.late = runCtx.Err() != nil
			return nil
		})
	}

	// 3. Fan in, stopping early only when the run context ends
	all := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(all)
	}()

	select {
	case <-all:
	case <-runCtx.Done():
	}

	abandoned := msgDeadline
	if err := runCtx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		abandoned = msgCancelled
	}

	for i, s := range slots {
		key := o.keys[i]
		select {
		case <-s.done:
			if s.late {
				result.Outcomes[key] = domain.Failed(abandoned)
			} else {
				result.Outcomes[key] = s.outcome
			}
		default:
			result.Outcomes[key] = domain.Failed(abandoned)
		}
		logOutcome(log, key, result.Outcomes[key])
	}
	result.Duration = o.now().Sub(result.StartedAt)

	summary := Summarise(result)
	logger.Info("Pipeline complete: %d/%d sources succeeded", summary.Success, summary.Total)
	return result, nil
}

// invoke runs one source and converts whatever it does into an Outcome.
func invoke(ctx context.Context, src driven.SourceAdapter, req domain.FetchRequest) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("source %s panicked: %v\n%s", src.Key(), r, debug.Stack())
			out = domain.Failed(fmt.Sprintf(msgPanic, r))
		}
	}()

	payload, err := src.Fetch(ctx, req)
	if err != nil {
		return domain.OutcomeFromError(err)
	}
	return domain.Success(payload)
}

type outcomeLogger interface {
	Debugw(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
}

func logOutcome(log outcomeLogger, key domain.SourceKey, o domain.Outcome) {
	switch o.State {
	case domain.OutcomeSuccess:
		log.Debugw("source succeeded", logger.FieldSource, key)
	case domain.OutcomeSkipped:
		log.Debugw("source skipped", logger.FieldSource, key, "reason", o.Message)
	default:
		log.Warnw("source failed", logger.FieldSource, key, logger.FieldError, o.Message)
	}
}
