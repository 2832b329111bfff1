package mcp

import (
	"context"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driving"
)

// mockVettingService is a mock implementation of driving.VettingService.
type mockVettingService struct {
	result  *driving.VetResult
	err     error
	keys    []domain.SourceKey
	gotReq  domain.FetchRequest
	gotOpts driving.VetOptions
}

func (m *mockVettingService) Vet(
	_ context.Context,
	req domain.FetchRequest,
	opts driving.VetOptions,
) (*driving.VetResult, error) {
	m.gotReq = req
	m.gotOpts = opts
	return m.result, m.err
}

func (m *mockVettingService) Sources() []domain.SourceKey {
	return m.keys
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	records []*domain.RunRecord
	err     error
}

func (m *mockHistoryService) List(_ context.Context, limit int) ([]*domain.RunRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && len(m.records) > limit {
		return m.records[:limit], nil
	}
	return m.records, nil
}

func (m *mockHistoryService) Get(_ context.Context, id string) (*domain.RunRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, domain.ErrNotFound
}
