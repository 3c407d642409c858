package ports

import (
	"context"

	"github.com/samirrijal/iberseis/internal/core/domain"
)

// StationRepository persists the station catalog.
type StationRepository interface {
	Upsert(ctx context.Context, station *domain.Station) error
	UpsertBatch(ctx context.Context, stations []domain.Station) error
	GetByCode(ctx context.Context, network, code string) (*domain.Station, error)
	List(ctx context.Context) ([]domain.Station, error)
	FindNearby(ctx context.Context, center domain.GeoPoint, radiusKm float64, limit int) ([]domain.Station, error)
}
