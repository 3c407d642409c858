package ports

import (
	"context"
	"time"

	"github.com/samirrijal/iberseis/internal/core/domain"
)

// EventQuery filters a seismic event catalog search.
type EventQuery struct {
	Start        time.Time
	End          time.Time
	MinMagnitude float64
	Bounds       *domain.Bounds
	Limit        int
}

// SeismicDataProvider fetches event and station metadata from external catalogs.
type SeismicDataProvider interface {
	Events(ctx context.Context, q EventQuery) ([]domain.Event, error)
	Station(ctx context.Context, network, code string) (*domain.Station, error)
	Stations(ctx context.Context, network string, bounds *domain.Bounds) ([]domain.Station, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *domain.Event) error
	PublishArrival(ctx context.Context, prediction *domain.ArrivalPrediction) error
	PublishReport(ctx context.Context, report *domain.AnalysisReport) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeEvents(ctx context.Context, handler func(ctx context.Context, event *domain.Event) error) error
	SubscribeArrivals(ctx context.Context, handler func(ctx context.Context, prediction *domain.ArrivalPrediction) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
