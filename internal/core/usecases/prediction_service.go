package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/ports"
	"github.com/samirrijal/iberseis/internal/pkg/metrics"
)

// PredictionService turns seismic events into per-station arrival predictions.
type PredictionService struct {
	stations  ports.StationRepository
	estimator *TravelTimeService
	publisher ports.EventPublisher
}

// NewPredictionService creates a new PredictionService. publisher may be nil.
func NewPredictionService(stations ports.StationRepository, estimator *TravelTimeService, publisher ports.EventPublisher) *PredictionService {
	return &PredictionService{stations: stations, estimator: estimator, publisher: publisher}
}

// PredictArrivals estimates the arrival of event at each station at speedKmS,
// earliest first. Stations with invalid coordinates are skipped.
func (s *PredictionService) PredictArrivals(ctx context.Context, event *domain.Event, stations []domain.Station, speedKmS float64) ([]domain.ArrivalPrediction, error) {
	if !(speedKmS > 0) || math.IsInf(speedKmS, 1) {
		return nil, fmt.Errorf("%w: %g km/s", domain.ErrInvalidSpeed, speedKmS)
	}
	if err := event.Location.Validate(); err != nil {
		return nil, fmt.Errorf("event %s: %w", event.ID, err)
	}

	preds := make([]domain.ArrivalPrediction, 0, len(stations))
	for _, st := range stations {
		est, err := s.estimator.EstimateWithSpeed(ctx, event.Location, st.Location, speedKmS)
		if err != nil {
			slog.DebugContext(ctx, "skipping station", "station", st.ID(), "error", err)
			continue
		}
		preds = append(preds, domain.ArrivalPrediction{
			EventID:          event.ID,
			StationID:        st.ID(),
			StationLocation:  st.Location,
			Estimate:         est,
			OriginTime:       event.OriginTime,
			PredictedArrival: event.OriginTime.Add(est.TravelTime()),
		})
	}

	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Estimate.RawTravelTimeSec < preds[j].Estimate.RawTravelTimeSec
	})
	return preds, nil
}

// ArrivalsForEvent predicts arrivals of event at every catalogued station at speedKmS.
func (s *PredictionService) ArrivalsForEvent(ctx context.Context, event *domain.Event, speedKmS float64) ([]domain.ArrivalPrediction, error) {
	stations, err := s.stations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	return s.PredictArrivals(ctx, event, stations, speedKmS)
}

// PublishArrivals publishes the event and one prediction per catalogued station.
// It returns the number of predictions published.
func (s *PredictionService) PublishArrivals(ctx context.Context, event *domain.Event) (int, error) {
	if s.publisher == nil {
		return 0, fmt.Errorf("no publisher configured")
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		return 0, fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return s.PublishPredictions(ctx, event)
}

// PublishPredictions publishes one prediction per catalogued station, at the
// default speed, without re-publishing the event itself.
func (s *PredictionService) PublishPredictions(ctx context.Context, event *domain.Event) (int, error) {
	if s.publisher == nil {
		return 0, fmt.Errorf("no publisher configured")
	}

	preds, err := s.ArrivalsForEvent(ctx, event, s.estimator.DefaultSpeed())
	if err != nil {
		return 0, err
	}

	for i := range preds {
		if err := s.publisher.PublishArrival(ctx, &preds[i]); err != nil {
			return i, fmt.Errorf("publish arrival %s at %s: %w", event.ID, preds[i].StationID, err)
		}
		metrics.PredictionsPublished.Inc()
	}
	return len(preds), nil
}
