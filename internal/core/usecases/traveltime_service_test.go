package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/usecases"
)

var errBroker = errors.New("broker unavailable")

var (
	alenquer = domain.GeoPoint{Lat: 39.0, Lon: -9.0}
	toledo   = domain.GeoPoint{Lat: 40.0, Lon: -4.4}
)

func TestTravelTimeService_Estimate(t *testing.T) {
	svc := usecases.NewTravelTimeService(7.0)

	est, err := svc.Estimate(context.Background(), alenquer, toledo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.DistanceKm != 409.99 {
		t.Errorf("expected 409.99 km, got %v", est.DistanceKm)
	}
	if est.TravelTimeSec != 58.57 {
		t.Errorf("expected 58.57 s, got %v", est.TravelTimeSec)
	}
	if est.SpeedKmS != 7.0 {
		t.Errorf("expected speed 7.0, got %v", est.SpeedKmS)
	}
}

func TestTravelTimeService_DefaultSpeedFallback(t *testing.T) {
	for _, speed := range []float64{0, -3} {
		svc := usecases.NewTravelTimeService(speed)
		if svc.DefaultSpeed() != 7.0 {
			t.Errorf("NewTravelTimeService(%v): expected fallback 7.0, got %v", speed, svc.DefaultSpeed())
		}
	}
}

func TestTravelTimeService_EstimateWithSpeed(t *testing.T) {
	svc := usecases.NewTravelTimeService(7.0)

	est, err := svc.EstimateWithSpeed(context.Background(), alenquer, toledo, 3.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.RawTravelTimeSec != est.RawDistanceKm/3.5 {
		t.Errorf("expected time = distance / 3.5, got %v", est.RawTravelTimeSec)
	}
}

func TestTravelTimeService_InvalidInput(t *testing.T) {
	svc := usecases.NewTravelTimeService(7.0)

	_, err := svc.EstimateWithSpeed(context.Background(), alenquer, toledo, 0)
	if !errors.Is(err, domain.ErrInvalidSpeed) {
		t.Errorf("expected ErrInvalidSpeed, got %v", err)
	}

	_, err = svc.Estimate(context.Background(), domain.GeoPoint{Lat: 95}, toledo)
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}
