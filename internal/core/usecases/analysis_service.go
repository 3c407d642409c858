package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/ports"
	"github.com/samirrijal/iberseis/internal/pkg/telemetry"
)

const (
	defaultSearchWindow   = 120 * time.Second
	defaultWaveformLength = 1200 * time.Second
	defaultFreqMinHz      = 0.5
	defaultFreqMaxHz      = 5.0
)

// AnalysisTarget names an event (by approximate origin time) and a station to analyse.
type AnalysisTarget struct {
	EventTime    time.Time     `json:"event_time" yaml:"event_time"`
	SearchWindow time.Duration `json:"search_window,omitempty" yaml:"search_window,omitempty"`
	MinMagnitude float64       `json:"min_magnitude" yaml:"min_magnitude"`
	Network      string        `json:"network" yaml:"network"`
	Station      string        `json:"station" yaml:"station"`
	Location     string        `json:"location,omitempty" yaml:"location,omitempty"`
	Channel      string        `json:"channel,omitempty" yaml:"channel,omitempty"`
	SpeedKmS     float64       `json:"speed_km_s,omitempty" yaml:"speed_km_s,omitempty"`
}

// AnalysisService fetches an event and a station and estimates the P-wave arrival.
type AnalysisService struct {
	provider  ports.SeismicDataProvider
	stations  *StationService
	estimator *TravelTimeService
	publisher ports.EventPublisher
}

// NewAnalysisService creates a new AnalysisService. stations and publisher may be nil.
func NewAnalysisService(provider ports.SeismicDataProvider, stations *StationService, estimator *TravelTimeService, publisher ports.EventPublisher) *AnalysisService {
	return &AnalysisService{provider: provider, stations: stations, estimator: estimator, publisher: publisher}
}

// Analyze runs the whole analysis for one target.
func (s *AnalysisService) Analyze(ctx context.Context, runID string, target AnalysisTarget) (*domain.AnalysisReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "analysis.analyze")
	defer span.End()

	event, err := s.FindEvent(ctx, target)
	if err != nil {
		return nil, err
	}

	station, err := s.FetchStation(ctx, target.Network, target.Station)
	if err != nil {
		return nil, err
	}

	report, err := s.BuildReport(ctx, runID, target, event, station)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, report); err != nil {
			slog.WarnContext(ctx, "publish report failed", "run_id", runID, "error", err)
		}
	}
	return report, nil
}

// FindEvent returns the largest event within the target's search window.
func (s *AnalysisService) FindEvent(ctx context.Context, target AnalysisTarget) (*domain.Event, error) {
	window := target.SearchWindow
	if window <= 0 {
		window = defaultSearchWindow
	}

	events, err := s.provider.Events(ctx, ports.EventQuery{
		Start:        target.EventTime.Add(-window),
		End:          target.EventTime.Add(window),
		MinMagnitude: target.MinMagnitude,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no event M>=%.1f near %s: %w",
			target.MinMagnitude, target.EventTime.Format(time.RFC3339), domain.ErrNotFound)
	}

	best := events[0]
	for _, e := range events[1:] {
		if e.Magnitude > best.Magnitude {
			best = e
		}
	}
	return &best, nil
}

// FetchStation resolves a station through the catalog, or the provider directly
// when no catalog is wired.
func (s *AnalysisService) FetchStation(ctx context.Context, network, code string) (*domain.Station, error) {
	if s.stations != nil {
		return s.stations.Resolve(ctx, network, code)
	}
	st, err := s.provider.Station(ctx, normalizeCode(network), normalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("fetch station %s.%s: %w", network, code, err)
	}
	return st, nil
}

// BuildReport estimates the travel time and assembles the report.
func (s *AnalysisService) BuildReport(ctx context.Context, runID string, target AnalysisTarget, event *domain.Event, station *domain.Station) (*domain.AnalysisReport, error) {
	var (
		est domain.TravelTimeEstimate
		err error
	)
	if target.SpeedKmS != 0 {
		est, err = s.estimator.EstimateWithSpeed(ctx, event.Location, station.Location, target.SpeedKmS)
	} else {
		est, err = s.estimator.Estimate(ctx, event.Location, station.Location)
	}
	if err != nil {
		return nil, fmt.Errorf("estimate %s -> %s: %w", event.ID, station.ID(), err)
	}

	location := target.Location
	if location == "" {
		location = "00"
	}
	channel := target.Channel
	if channel == "" {
		channel = "BHZ"
	}

	return &domain.AnalysisReport{
		RunID:            runID,
		Event:            *event,
		Station:          *station,
		Estimate:         est,
		PredictedArrival: event.OriginTime.Add(est.TravelTime()),
		Waveform: domain.WaveformWindow{
			Network:   station.Network,
			Station:   station.Code,
			Location:  location,
			Channel:   channel,
			Start:     event.OriginTime,
			End:       event.OriginTime.Add(defaultWaveformLength),
			FreqMinHz: defaultFreqMinHz,
			FreqMaxHz: defaultFreqMaxHz,
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}
