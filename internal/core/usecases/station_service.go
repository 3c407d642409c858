package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/ports"
	"github.com/samirrijal/iberseis/internal/pkg/metrics"
)

// StationService handles station catalog lookups.
type StationService struct {
	stations ports.StationRepository
	provider ports.SeismicDataProvider
	cache    ports.CacheService
}

// NewStationService creates a new StationService. provider and cache may be nil.
func NewStationService(stations ports.StationRepository, provider ports.SeismicDataProvider, cache ports.CacheService) *StationService {
	return &StationService{stations: stations, provider: provider, cache: cache}
}

// GetByCode returns a catalogued station.
func (s *StationService) GetByCode(ctx context.Context, network, code string) (*domain.Station, error) {
	network, code = normalizeCode(network), normalizeCode(code)
	if network == "" || code == "" {
		return nil, fmt.Errorf("network and station code are required")
	}

	cacheKey := stationCacheKey(network, code)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var st domain.Station
			if err := json.Unmarshal(data, &st); err == nil {
				metrics.CacheHits.WithLabelValues("station").Inc()
				return &st, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("station").Inc()
	}

	st, err := s.stations.GetByCode(ctx, network, code)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(st); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600) // 10 min for single station
		}
	}

	return st, nil
}

// Resolve looks a station up in the catalog and falls back to the FDSN
// station service when the catalog has no row for it.
func (s *StationService) Resolve(ctx context.Context, network, code string) (*domain.Station, error) {
	st, err := s.GetByCode(ctx, network, code)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, domain.ErrNotFound) || s.provider == nil {
		return nil, err
	}

	st, err = s.provider.Station(ctx, normalizeCode(network), normalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("fetch station %s.%s: %w", network, code, err)
	}
	return st, nil
}

// List returns every catalogued station.
func (s *StationService) List(ctx context.Context) ([]domain.Station, error) {
	return s.stations.List(ctx)
}

// FindNearby returns stations within radiusKm of center, nearest first.
func (s *StationService) FindNearby(ctx context.Context, center domain.GeoPoint, radiusKm float64, limit int) ([]domain.Station, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if !(radiusKm > 0) {
		return nil, fmt.Errorf("radius must be positive, got %g", radiusKm)
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	return s.stations.FindNearby(ctx, center, radiusKm, limit)
}

// Import upserts stations into the catalog and drops their cached lookups.
// Stations with invalid coordinates are skipped; the number stored is returned.
func (s *StationService) Import(ctx context.Context, stations []domain.Station) (int, error) {
	valid := make([]domain.Station, 0, len(stations))
	for _, st := range stations {
		st.Network, st.Code = normalizeCode(st.Network), normalizeCode(st.Code)
		if st.Network == "" || st.Code == "" || st.Location.Validate() != nil {
			continue
		}
		valid = append(valid, st)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	if err := s.stations.UpsertBatch(ctx, valid); err != nil {
		return 0, fmt.Errorf("upsert %d stations: %w", len(valid), err)
	}

	if s.cache != nil {
		for _, st := range valid {
			_ = s.cache.Delete(ctx, stationCacheKey(st.Network, st.Code))
		}
	}
	return len(valid), nil
}

func stationCacheKey(network, code string) string {
	return "stations:code:" + network + "." + code
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
