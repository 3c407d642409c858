package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/ports"
)

// --- Mock StationRepository ---

type mockStationRepo struct {
	getByCodeFn  func(ctx context.Context, network, code string) (*domain.Station, error)
	listFn       func(ctx context.Context) ([]domain.Station, error)
	findNearbyFn func(ctx context.Context, center domain.GeoPoint, radiusKm float64, limit int) ([]domain.Station, error)
	upsertFn     func(ctx context.Context, stations []domain.Station) error
}

func (m *mockStationRepo) Upsert(ctx context.Context, s *domain.Station) error {
	return m.UpsertBatch(ctx, []domain.Station{*s})
}

func (m *mockStationRepo) UpsertBatch(ctx context.Context, s []domain.Station) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, s)
	}
	return nil
}

func (m *mockStationRepo) GetByCode(ctx context.Context, network, code string) (*domain.Station, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, network, code)
	}
	return nil, domain.ErrNotFound
}

func (m *mockStationRepo) List(ctx context.Context) ([]domain.Station, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockStationRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radiusKm float64, limit int) ([]domain.Station, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, center, radiusKm, limit)
	}
	return nil, nil
}

// --- Mock SeismicDataProvider ---

type mockProvider struct {
	eventsFn   func(ctx context.Context, q ports.EventQuery) ([]domain.Event, error)
	stationFn  func(ctx context.Context, network, code string) (*domain.Station, error)
	stationsFn func(ctx context.Context, network string, bounds *domain.Bounds) ([]domain.Station, error)
}

func (m *mockProvider) Events(ctx context.Context, q ports.EventQuery) ([]domain.Event, error) {
	if m.eventsFn != nil {
		return m.eventsFn(ctx, q)
	}
	return nil, nil
}

func (m *mockProvider) Station(ctx context.Context, network, code string) (*domain.Station, error) {
	if m.stationFn != nil {
		return m.stationFn(ctx, network, code)
	}
	return nil, domain.ErrNotFound
}

func (m *mockProvider) Stations(ctx context.Context, network string, bounds *domain.Bounds) ([]domain.Station, error) {
	if m.stationsFn != nil {
		return m.stationsFn(ctx, network, bounds)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	events   []domain.Event
	arrivals []domain.ArrivalPrediction
	reports  []domain.AnalysisReport
	failOn   string
}

func (m *mockPublisher) PublishEvent(ctx context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "event" {
		return errBroker
	}
	m.events = append(m.events, *e)
	return nil
}

func (m *mockPublisher) PublishArrival(ctx context.Context, p *domain.ArrivalPrediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "arrival" {
		return errBroker
	}
	m.arrivals = append(m.arrivals, *p)
	return nil
}

func (m *mockPublisher) PublishReport(ctx context.Context, r *domain.AnalysisReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "report" {
		return errBroker
	}
	m.reports = append(m.reports, *r)
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}
