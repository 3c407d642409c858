package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/usecases"
)

var catalog = []domain.Station{
	{Network: "IU", Code: "PAB", Location: domain.GeoPoint{Lat: 39.5446, Lon: -4.3499}},
	{Network: "PM", Code: "PESTR", Location: domain.GeoPoint{Lat: 38.8672, Lon: -7.5902}},
	{Network: "XX", Code: "BAD", Location: domain.GeoPoint{Lat: 123, Lon: 0}},
	{Network: "G", Code: "SSB", Location: domain.GeoPoint{Lat: 45.279, Lon: 4.542}},
}

func alenquerEvent() *domain.Event {
	return &domain.Event{
		ID:         "20260219_0000121",
		OriginTime: time.Date(2026, 2, 19, 12, 14, 0, 0, time.UTC),
		Location:   alenquer,
		Magnitude:  4.1,
	}
}

func TestPredictionService_PredictArrivals_SortedAndSkipsInvalid(t *testing.T) {
	svc := usecases.NewPredictionService(&mockStationRepo{}, usecases.NewTravelTimeService(7.0), nil)

	preds, err := svc.PredictArrivals(context.Background(), alenquerEvent(), catalog, 7.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preds) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(preds))
	}
	want := []string{"PM.PESTR", "IU.PAB", "G.SSB"}
	for i, id := range want {
		if preds[i].StationID != id {
			t.Errorf("prediction %d: expected %s, got %s", i, id, preds[i].StationID)
		}
	}
	for _, p := range preds {
		if !p.PredictedArrival.Equal(p.OriginTime.Add(p.Estimate.TravelTime())) {
			t.Errorf("%s: arrival %v does not match origin + travel time", p.StationID, p.PredictedArrival)
		}
	}
}

func TestPredictionService_PredictArrivals_InvalidEvent(t *testing.T) {
	svc := usecases.NewPredictionService(&mockStationRepo{}, usecases.NewTravelTimeService(7.0), nil)
	ev := alenquerEvent()
	ev.Location.Lon = 200

	if _, err := svc.PredictArrivals(context.Background(), ev, catalog, 7.0); !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestPredictionService_PublishArrivals(t *testing.T) {
	repo := &mockStationRepo{
		listFn: func(ctx context.Context) ([]domain.Station, error) { return catalog, nil },
	}
	pub := &mockPublisher{}
	svc := usecases.NewPredictionService(repo, usecases.NewTravelTimeService(7.0), pub)

	n, err := svc.PublishArrivals(context.Background(), alenquerEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 published, got %d", n)
	}
	if len(pub.events) != 1 || len(pub.arrivals) != 3 {
		t.Errorf("expected 1 event and 3 arrivals, got %d and %d", len(pub.events), len(pub.arrivals))
	}
}

func TestPredictionService_PublishArrivals_BrokerFailure(t *testing.T) {
	repo := &mockStationRepo{
		listFn: func(ctx context.Context) ([]domain.Station, error) { return catalog, nil },
	}
	pub := &mockPublisher{failOn: "arrival"}
	svc := usecases.NewPredictionService(repo, usecases.NewTravelTimeService(7.0), pub)

	n, err := svc.PublishArrivals(context.Background(), alenquerEvent())
	if !errors.Is(err, errBroker) {
		t.Fatalf("expected broker error, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 published, got %d", n)
	}
}

func TestPredictionService_PublishArrivals_NoPublisher(t *testing.T) {
	svc := usecases.NewPredictionService(&mockStationRepo{}, usecases.NewTravelTimeService(7.0), nil)
	if _, err := svc.PublishArrivals(context.Background(), alenquerEvent()); err == nil {
		t.Error("expected error without publisher")
	}
}

func TestPredictionService_PublishPredictions_SkipsEvent(t *testing.T) {
	repo := &mockStationRepo{
		listFn: func(ctx context.Context) ([]domain.Station, error) { return catalog, nil },
	}
	pub := &mockPublisher{failOn: "event"}
	svc := usecases.NewPredictionService(repo, usecases.NewTravelTimeService(7.0), pub)

	n, err := svc.PublishPredictions(context.Background(), alenquerEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 || len(pub.arrivals) != 3 {
		t.Errorf("expected 3 arrivals, got n=%d published=%d", n, len(pub.arrivals))
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no events, got %d", len(pub.events))
	}
}

func TestPredictionService_PredictArrivals_CustomSpeed(t *testing.T) {
	svc := usecases.NewPredictionService(&mockStationRepo{}, usecases.NewTravelTimeService(7.0), nil)

	slow, err := svc.PredictArrivals(context.Background(), alenquerEvent(), catalog[:1], 7.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fast, err := svc.PredictArrivals(context.Background(), alenquerEvent(), catalog[:1], 14.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fast[0].Estimate.SpeedKmS != 14.0 {
		t.Errorf("expected speed 14, got %v", fast[0].Estimate.SpeedKmS)
	}
	if got, want := fast[0].Estimate.RawTravelTimeSec, slow[0].Estimate.RawTravelTimeSec/2; math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v s at 14 km/s, got %v", want, got)
	}
}

func TestPredictionService_PredictArrivals_InvalidSpeed(t *testing.T) {
	svc := usecases.NewPredictionService(&mockStationRepo{}, usecases.NewTravelTimeService(7.0), nil)

	for _, speed := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := svc.PredictArrivals(context.Background(), alenquerEvent(), catalog, speed); !errors.Is(err, domain.ErrInvalidSpeed) {
			t.Errorf("speed %v: expected ErrInvalidSpeed, got %v", speed, err)
		}
	}
}
