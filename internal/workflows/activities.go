package workflows

import (
	"context"
	"errors"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/ports"
	"github.com/samirrijal/iberseis/internal/core/usecases"
)

// Application error types the retry policy treats as permanent.
const (
	ErrTypeNotFound     = "NotFound"
	ErrTypeInvalidInput = "InvalidInput"
)

// EstimateInput carries everything EstimateTravelTime needs.
type EstimateInput struct {
	RunID   string
	Target  usecases.AnalysisTarget
	Event   domain.Event
	Station domain.Station
}

// AnalysisActivities holds the activity implementations for the analysis workflow.
type AnalysisActivities struct {
	Analysis  *usecases.AnalysisService
	Publisher ports.EventPublisher // optional
}

// FindEvent returns the largest event near the target time.
func (a *AnalysisActivities) FindEvent(ctx context.Context, target usecases.AnalysisTarget) (*domain.Event, error) {
	ev, err := a.Analysis.FindEvent(ctx, target)
	return ev, classify(err)
}

// FetchStation resolves station coordinates.
func (a *AnalysisActivities) FetchStation(ctx context.Context, network, code string) (*domain.Station, error) {
	st, err := a.Analysis.FetchStation(ctx, network, code)
	return st, classify(err)
}

// EstimateTravelTime estimates the arrival and builds the report.
func (a *AnalysisActivities) EstimateTravelTime(ctx context.Context, in EstimateInput) (*domain.AnalysisReport, error) {
	report, err := a.Analysis.BuildReport(ctx, in.RunID, in.Target, &in.Event, &in.Station)
	return report, classify(err)
}

// PublishReport publishes the report to the broker, if one is configured.
func (a *AnalysisActivities) PublishReport(ctx context.Context, report domain.AnalysisReport) error {
	if a.Publisher == nil {
		slog.InfoContext(ctx, "report not published, no broker configured", "run_id", report.RunID)
		return nil
	}
	return a.Publisher.PublishReport(ctx, &report)
}

// classify marks errors that retrying cannot fix as non-retryable.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNotFound, err)
	case errors.Is(err, domain.ErrInvalidCoordinate), errors.Is(err, domain.ErrInvalidSpeed):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	default:
		return err
	}
}
