package isolation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

// Payload kinds carried by an Envelope.
const (
	KindJSON      = "json"
	KindNarrative = "narrative"
)

// Envelope is the single record a worker writes to its hand-off file.
type Envelope struct {
	Success bool            `json:"success"`
	Kind    string          `json:"kind,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	// Skipped is set when the source declined to run, with Error holding the reason.
	Skipped bool `json:"skipped,omitempty"`
}

// EnvelopeFor encodes a settled outcome.
func EnvelopeFor(o domain.Outcome) (*Envelope, error) {
	switch o.State {
	case domain.OutcomeSuccess:
		if n, ok := o.Payload.(domain.Narrative); ok {
			data, err := json.Marshal(string(n))
			if err != nil {
				return nil, errors.Wrap(err, "encode narrative")
			}
			return &Envelope{Success: true, Kind: KindNarrative, Data: data}, nil
		}
		data, err := json.Marshal(o.Payload)
		if err != nil {
			return nil, errors.Wrap(err, "encode payload")
		}
		return &Envelope{Success: true, Kind: KindJSON, Data: data}, nil
	case domain.OutcomeSkipped:
		return &Envelope{Skipped: true, Error: o.Message}, nil
	case domain.OutcomeError:
		return &Envelope{Error: o.Message}, nil
	default:
		return nil, errors.Newf("cannot encode %s outcome", o.State)
	}
}

// Result converts the envelope back into a SourceAdapter result.
// JSON numbers are decoded as json.Number so large values survive intact.
func (e *Envelope) Result() (any, error) {
	if !e.Success {
		if e.Skipped {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingPrerequisite, e.Error)
		}
		return nil, errors.New(e.Error)
	}

	switch e.Kind {
	case KindNarrative:
		var text string
		if err := json.Unmarshal(e.Data, &text); err != nil {
			return nil, errors.Wrap(err, "decode narrative")
		}
		return domain.Narrative(text), nil
	case KindJSON, "":
		if len(e.Data) == 0 {
			return nil, nil
		}
		dec := json.NewDecoder(bytes.NewReader(e.Data))
		dec.UseNumber()
		var payload any
		if err := dec.Decode(&payload); err != nil {
			return nil, errors.Wrap(err, "decode payload")
		}
		return payload, nil
	default:
		return nil, errors.Newf("unknown payload kind %q", e.Kind)
	}
}

// WriteEnvelope writes env to path. The file is replaced atomically so a
// reader never sees a partial envelope.
func WriteEnvelope(path string, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "encode envelope")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create envelope temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write envelope")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close envelope")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "publish envelope")
	}
	return nil
}

// ReadEnvelope reads the envelope at path. A missing or empty file means
// the worker exited without reporting and yields domain.ErrWorkerNoResult.
func ReadEnvelope(path string) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrWorkerNoResult
		}
		return nil, errors.Wrap(err, "read hand-off file")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.ErrWorkerNoResult
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "worker returned malformed data")
	}
	return &env, nil
}
