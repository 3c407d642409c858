package usecases

import (
	"context"
	"errors"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/traveltime"
	"github.com/samirrijal/iberseis/internal/pkg/metrics"
)

// TravelTimeService exposes the estimator to handlers and workers.
type TravelTimeService struct {
	defaultSpeed float64
}

// NewTravelTimeService creates a TravelTimeService. A non-positive defaultSpeed
// falls back to traveltime.DefaultSpeedKmS.
func NewTravelTimeService(defaultSpeed float64) *TravelTimeService {
	if !(defaultSpeed > 0) {
		defaultSpeed = traveltime.DefaultSpeedKmS
	}
	return &TravelTimeService{defaultSpeed: defaultSpeed}
}

// DefaultSpeed returns the speed used by Estimate.
func (s *TravelTimeService) DefaultSpeed() float64 {
	return s.defaultSpeed
}

// Estimate estimates the P-wave travel time at the configured default speed.
func (s *TravelTimeService) Estimate(ctx context.Context, eq, sta domain.GeoPoint) (domain.TravelTimeEstimate, error) {
	return s.EstimateWithSpeed(ctx, eq, sta, s.defaultSpeed)
}

// EstimateWithSpeed estimates the P-wave travel time at an explicit speed.
func (s *TravelTimeService) EstimateWithSpeed(_ context.Context, eq, sta domain.GeoPoint, speedKmS float64) (domain.TravelTimeEstimate, error) {
	est, err := traveltime.Estimate(eq, sta, speedKmS)
	if err != nil {
		metrics.EstimateErrors.WithLabelValues(errorReason(err)).Inc()
		return domain.TravelTimeEstimate{}, err
	}
	metrics.EstimatesComputed.Inc()
	metrics.EstimatedDistance.Observe(est.RawDistanceKm)
	return est, nil
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidSpeed):
		return "invalid_speed"
	case errors.Is(err, domain.ErrInvalidCoordinate):
		return "invalid_coordinate"
	default:
		return "other"
	}
}
