package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/usecases"
)

// TaskQueue is the default task queue for analysis workflows.
const TaskQueue = "seismic-analysis"

// AnalysisInput is the input for the analysis workflow.
type AnalysisInput struct {
	RunID  string
	Target usecases.AnalysisTarget
}

// AnalysisWorkflow finds the event, resolves the station, estimates the P-wave
// arrival and publishes the report. Publishing is best effort: a broker
// failure is logged and the report is still returned.
func AnalysisWorkflow(ctx workflow.Context, input AnalysisInput) (*domain.AnalysisReport, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting analysis workflow", "runID", input.RunID,
		"station", input.Target.Network+"."+input.Target.Station)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeNotFound, ErrTypeInvalidInput},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Event and station lookups are independent.
	eventF := workflow.ExecuteActivity(ctx, "FindEvent", input.Target)
	stationF := workflow.ExecuteActivity(ctx, "FetchStation", input.Target.Network, input.Target.Station)

	var event domain.Event
	if err := eventF.Get(ctx, &event); err != nil {
		return nil, err
	}
	var station domain.Station
	if err := stationF.Get(ctx, &station); err != nil {
		return nil, err
	}

	var report domain.AnalysisReport
	err := workflow.ExecuteActivity(ctx, "EstimateTravelTime", EstimateInput{
		RunID:   input.RunID,
		Target:  input.Target,
		Event:   event,
		Station: station,
	}).Get(ctx, &report)
	if err != nil {
		return nil, err
	}

	if err := workflow.ExecuteActivity(ctx, "PublishReport", report).Get(ctx, nil); err != nil {
		logger.Warn("publish report failed", "runID", input.RunID, "error", err)
	}

	logger.Info("Analysis complete", "runID", input.RunID,
		"distanceKm", report.Estimate.DistanceKm, "travelTimeSec", report.Estimate.TravelTimeSec)
	return &report, nil
}
