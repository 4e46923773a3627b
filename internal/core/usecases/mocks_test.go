package usecases_test

import (
	"context"
	"strings"
	"sync"

	"github.com/samirrijal/locallens/internal/core/domain"
)

// --- Mock POIRepository ---

type mockPOIRepo struct {
	createFn     func(ctx context.Context, p *domain.PointOfInterest) error
	listFn       func(ctx context.Context) ([]domain.PointOfInterest, error)
	findWithinFn func(ctx context.Context, center domain.Coordinate, radius float64) ([]domain.PointOfInterest, error)
}

func (m *mockPOIRepo) Create(ctx context.Context, p *domain.PointOfInterest) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}

func (m *mockPOIRepo) List(ctx context.Context) ([]domain.PointOfInterest, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockPOIRepo) FindWithin(ctx context.Context, center domain.Coordinate, radius float64) ([]domain.PointOfInterest, error) {
	if m.findWithinFn != nil {
		return m.findWithinFn(ctx, center, radius)
	}
	return nil, nil
}

// --- Mock Assistant ---

type mockAssistant struct {
	enhanceFn   func(ctx context.Context, poi domain.PointOfInterest) (string, error)
	answerFn    func(ctx context.Context, query string, contexts []string) (string, error)
	summarizeFn func(ctx context.Context, area domain.AreaRequest, pois []domain.PointOfInterest) (string, error)
}

func (m *mockAssistant) Enhance(ctx context.Context, poi domain.PointOfInterest) (string, error) {
	if m.enhanceFn != nil {
		return m.enhanceFn(ctx, poi)
	}
	return "", nil
}

func (m *mockAssistant) Answer(ctx context.Context, query string, contexts []string) (string, error) {
	if m.answerFn != nil {
		return m.answerFn(ctx, query, contexts)
	}
	return "", nil
}

func (m *mockAssistant) Summarize(ctx context.Context, area domain.AreaRequest, pois []domain.PointOfInterest) (string, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, area, pois)
	}
	return "", nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCache) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

// --- Mock AreaPublisher ---

type mockAreaPublisher struct {
	published []domain.AreaRequest
	err       error
}

func (m *mockAreaPublisher) PublishArea(_ context.Context, area domain.AreaRequest) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, area)
	return nil
}
