package httpx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Unlimited(t *testing.T) {
	r := NewRateLimiter(-1, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, r.Allow())
	}
}

func TestRateLimiter_Burst(t *testing.T) {
	r := NewRateLimiter(1, 2)
	assert.True(t, r.Allow())
	assert.True(t, r.Allow())
	assert.False(t, r.Allow())
}

func TestRateLimiter_Backoff(t *testing.T) {
	r := NewRateLimiter(-1, 1)
	r.Backoff(time.Hour)
	assert.False(t, r.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_BackoffNeverShortens(t *testing.T) {
	r := NewRateLimiter(-1, 1)
	r.Backoff(time.Hour)
	r.Backoff(time.Millisecond)
	assert.False(t, r.Allow())
}
