package services

import (
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
)

// SourceRegistry holds the source adapters available to this process.
type SourceRegistry struct {
	sources map[domain.SourceKey]driven.SourceAdapter
	order   []domain.SourceKey
}

// NewSourceRegistry creates an empty registry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{
		sources: make(map[domain.SourceKey]driven.SourceAdapter),
	}
}

// Register adds sources. A key may only be registered once.
func (r *SourceRegistry) Register(sources ...driven.SourceAdapter) error {
	for _, src := range sources {
		key := src.Key()
		if _, ok := r.sources[key]; ok {
			return errors.Newf("source %q already registered", key)
		}
		r.sources[key] = src
		r.order = append(r.order, key)
	}
	return nil
}

// Get returns the source for key.
func (r *SourceRegistry) Get(key domain.SourceKey) (driven.SourceAdapter, error) {
	src, ok := r.sources[key]
	if !ok {
		return nil, errors.Wrapf(domain.ErrUnsupportedSource, "source %q", key)
	}
	return src, nil
}

// Factory returns a driven.SourceFactory backed by this registry.
func (r *SourceRegistry) Factory() driven.SourceFactory {
	return r.Get
}

// Adapters returns the registered sources, built-in keys first in
// declaration order, then any others in registration order.
func (r *SourceRegistry) Adapters() []driven.SourceAdapter {
	builtin := domain.SourceKeys()
	out := make([]driven.SourceAdapter, 0, len(r.sources))
	for _, k := range builtin {
		if src, ok := r.sources[k]; ok {
			out = append(out, src)
		}
	}
	for _, k := range r.order {
		if !slices.Contains(builtin, k) {
			out = append(out, r.sources[k])
		}
	}
	return out
}

// Keys returns the registered keys in the same order as Adapters.
func (r *SourceRegistry) Keys() []domain.SourceKey {
	adapters := r.Adapters()
	keys := make([]domain.SourceKey, len(adapters))
	for i, src := range adapters {
		keys[i] = src.Key()
	}
	return keys
}
