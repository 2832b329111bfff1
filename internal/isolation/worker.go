package isolation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
	"github.com/custodia-labs/vetta/internal/logger"
)

// RunWorker is the child side of a Boundary. It reads one FetchRequest
// from in, runs src, and writes exactly one envelope to handoff.
//
// Source failures are reported through the envelope; the returned error
// is non-nil only when the envelope itself could not be written or the
// request could not be read.
func RunWorker(ctx context.Context, src driven.SourceAdapter, in io.Reader, handoff string) error {
	var req domain.FetchRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		werr := WriteEnvelope(handoff, &Envelope{Error: "worker could not read request: " + err.Error()})
		return errors.CombineErrors(errors.Wrap(err, "decode request"), werr)
	}

	outcome := fetchOutcome(ctx, src, req)
	logger.Debug("Worker %s finished: %s", src.Key(), outcome.State)

	env, err := EnvelopeFor(outcome)
	if err != nil {
		env = &Envelope{Error: err.Error()}
	}
	return WriteEnvelope(handoff, env)
}

func fetchOutcome(ctx context.Context, src driven.SourceAdapter, req domain.FetchRequest) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = domain.Failed(fmt.Sprintf("panic: %v", r))
		}
	}()
	payload, err := src.Fetch(ctx, req)
	if err != nil {
		return domain.OutcomeFromError(err)
	}
	return domain.Success(payload)
}
