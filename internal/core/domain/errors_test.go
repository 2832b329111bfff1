package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrInvalidRequest", ErrInvalidRequest},
		{"ErrNotFound", ErrNotFound},
		{"ErrUnsupportedSource", ErrUnsupportedSource},
		{"ErrMissingPrerequisite", ErrMissingPrerequisite},
		{"ErrSourceExcluded", ErrSourceExcluded},
		{"ErrSourceFailed", ErrSourceFailed},
		{"ErrTimeout", ErrTimeout},
		{"ErrWorkerNoResult", ErrWorkerNoResult},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrAuthRequired", ErrAuthRequired},
		{"ErrAuthInvalid", ErrAuthInvalid},
		{"ErrReportUnavailable", ErrReportUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrWorkerNoResult_Message(t *testing.T) {
	assert.Equal(t, "worker process ended without returning data", ErrWorkerNoResult.Error())
}

func TestErrMissingPrerequisite_Wrapped(t *testing.T) {
	err := fmt.Errorf("%w: domain not provided", ErrMissingPrerequisite)
	assert.True(t, errors.Is(err, ErrMissingPrerequisite))
	assert.False(t, errors.Is(err, ErrInvalidRequest))
}
