package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

func TestFormat_Layout(t *testing.T) {
	r := domain.NewPipelineResult("run", domain.FetchRequest{CompanyName: "Acme"}, []domain.SourceKey{"a", "b", "c", "d"})
	r.Outcomes["a"] = domain.Success(map[string]any{"b": 1, "a": "x<y"})
	r.Outcomes["b"] = domain.Failed("boom")
	r.Outcomes["c"] = domain.Skipped("domain not provided")
	r.Outcomes["d"] = domain.Success(domain.Narrative("Line1\nLine2"))

	want := "COMPANY: Acme\n" +
		strings.Repeat("=", 60) + "\n" +
		"\n=== A ===\n" +
		"{\n  \"a\": \"x<y\",\n  \"b\": 1\n}\n" +
		"\n=== B ===\n" +
		"[Data unavailable: boom]\n" +
		"\n=== C ===\n" +
		"[Skipped: domain not provided]\n" +
		"\n=== D ===\n" +
		"Line1\nLine2"

	assert.Equal(t, want, Format(r))
}

func TestFormat_UnserialisablePayload(t *testing.T) {
	r := domain.NewPipelineResult("run", acme, []domain.SourceKey{"a"})
	r.Outcomes["a"] = domain.Success(make(chan int))

	out := Format(r)
	assert.Contains(t, out, "=== A ===\n[Data unavailable: payload could not be serialised:")
}

func TestFormat_NilPayload(t *testing.T) {
	r := domain.NewPipelineResult("run", acme, []domain.SourceKey{"a"})
	r.Outcomes["a"] = domain.Success(nil)

	assert.True(t, strings.HasSuffix(Format(r), "=== A ===\nnull"))
}

func TestFormat_OrderIndependentOfCompletion(t *testing.T) {
	run := func(delays map[domain.SourceKey]time.Duration) string {
		var stubs []*stubSource
		for _, k := range domain.SourceKeys() {
			stubs = append(stubs, &stubSource{key: k, payload: map[string]any{"key": string(k)}, delay: delays[k]})
		}
		o, err := NewOrchestrator(adapters(stubs...))
		require.NoError(t, err)
		result, err := o.Run(context.Background(), acme)
		require.NoError(t, err)
		return Format(result)
	}

	keys := domain.SourceKeys()
	forward := make(map[domain.SourceKey]time.Duration)
	reverse := make(map[domain.SourceKey]time.Duration)
	for i, k := range keys {
		forward[k] = time.Duration(i*5) * time.Millisecond
		reverse[k] = time.Duration((len(keys)-i)*5) * time.Millisecond
	}

	assert.Equal(t, run(forward), run(reverse))
}

func TestFormat_RegistryOnlyScenario(t *testing.T) {
	refused := errors.New("connection refused")
	var stubs []*stubSource
	for _, k := range domain.SourceKeys() {
		if k == domain.SourceRegistryLookup {
			stubs = append(stubs, ok(k, map[string]any{"abn": "123456789", "status": "Active"}))
			continue
		}
		stubs = append(stubs, failing(k, refused))
	}
	o, err := NewOrchestrator(adapters(stubs...))
	require.NoError(t, err)

	result, err := o.Run(context.Background(), acme)
	require.NoError(t, err)

	summary := Summarise(result)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, len(stubs), summary.Total)

	out := Format(result)
	assert.Contains(t, out, "=== REGISTRY LOOKUP ===\n{\n  \"abn\": \"123456789\",\n  \"status\": \"Active\"\n}")
	assert.Equal(t, len(stubs)-1, strings.Count(out, "[Data unavailable: connection refused]"))
}

func TestMarshalPayload_Struct(t *testing.T) {
	out, err := MarshalPayload(struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}{Name: "Acme & Co", URL: "https://acme.com/?a=1&b=2"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"Acme & Co\",\n  \"url\": \"https://acme.com/?a=1&b=2\"\n}", out)
}
