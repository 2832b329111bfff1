package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
)

// --- Mock implementations ---

// stubSource implements driven.SourceAdapter for testing.
type stubSource struct {
	key     domain.SourceKey
	payload any
	err     error
	delay   time.Duration
	panics  any
	// block, when set, is waited on regardless of ctx.
	block chan struct{}
	calls atomic.Int32
}

func (s *stubSource) Key() domain.SourceKey { return s.key }

func (s *stubSource) Fetch(ctx context.Context, _ domain.FetchRequest) (any, error) {
	s.calls.Add(1)
	if s.block != nil {
		<-s.block
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.panics != nil {
		panic(s.panics)
	}
	return s.payload, s.err
}

func ok(key domain.SourceKey, payload any) *stubSource {
	return &stubSource{key: key, payload: payload}
}

func failing(key domain.SourceKey, err error) *stubSource {
	return &stubSource{key: key, err: err}
}

func adapters(stubs ...*stubSource) []driven.SourceAdapter {
	out := make([]driven.SourceAdapter, len(stubs))
	for i, s := range stubs {
		out[i] = s
	}
	return out
}

// mockLLM implements driven.LLMService using testify/mock.
type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) ModelName() string { return "mock-model" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

// mockPrompts implements driven.PromptStore for testing.
type mockPrompts struct {
	prompts map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	p, found := m.prompts[name]
	if !found {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPrompts) Reload() {}

// failingHistory implements driven.HistoryStore with a failing Save.
type failingHistory struct {
	err error
}

func (f *failingHistory) Save(_ context.Context, _ *domain.RunRecord) error { return f.err }

func (f *failingHistory) Get(_ context.Context, _ string) (*domain.RunRecord, error) {
	return nil, domain.ErrNotFound
}

func (f *failingHistory) List(_ context.Context, _ int) ([]*domain.RunRecord, error) {
	return nil, f.err
}

func (f *failingHistory) Close() error { return nil }
