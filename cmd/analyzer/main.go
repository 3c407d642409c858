package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/iberseis/internal/adapters/fdsn"
	natsadapter "github.com/samirrijal/iberseis/internal/adapters/nats"
	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/ports"
	"github.com/samirrijal/iberseis/internal/core/usecases"
	"github.com/samirrijal/iberseis/internal/pkg/config"
	"github.com/samirrijal/iberseis/internal/pkg/logging"
	"github.com/samirrijal/iberseis/internal/workflows"
)

func main() {
	targetsPath := flag.String("targets", "targets.yaml", "YAML file listing events and stations to analyse")
	useTemporal := flag.Bool("temporal", false, "submit one workflow per target instead of running inline")
	wait := flag.Bool("wait", true, "with -temporal, wait for every workflow result")
	publish := flag.Bool("publish", false, "publish reports to NATS when running inline")
	flag.Parse()

	cfg, err := config.Load("iberseis-analyzer")
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	tf, err := LoadTargets(*targetsPath)
	if err != nil {
		slog.Error("targets", "path", *targetsPath, "error", err)
		os.Exit(1)
	}
	targets := tf.AnalysisTargets()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := json.NewEncoder(os.Stdout)

	var failed int
	if *useTemporal {
		failed = runWorkflows(ctx, cfg, targets, *wait, out)
	} else {
		failed = runInline(ctx, cfg, targets, *publish, out)
	}

	slog.Info("analysis finished", "targets", len(targets), "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// runInline analyses every target in-process and writes one JSON report per line.
func runInline(ctx context.Context, cfg *config.Config, targets []usecases.AnalysisTarget, publish bool, out *json.Encoder) int {
	provider := fdsn.New(fdsn.Options{
		EventURL:   cfg.FDSN.EventURL,
		StationURL: cfg.FDSN.StationURL,
		Timeout:    time.Duration(cfg.FDSN.Timeout) * time.Second,
		MaxRetries: cfg.FDSN.MaxRetries,
	})

	var publisher ports.EventPublisher
	if publish {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, reports will not be published", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	analysis := usecases.NewAnalysisService(provider, nil, usecases.NewTravelTimeService(cfg.Estimator.SpeedKmS), publisher)

	failed := 0
	for _, t := range targets {
		if ctx.Err() != nil {
			return failed + 1
		}
		runID := uuid.NewString()
		logger := slog.With("run_id", runID, "station", t.Network+"."+t.Station)

		report, err := analysis.Analyze(ctx, runID, t)
		if err != nil {
			failed++
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("nothing to analyse", "error", err)
			} else {
				logger.Error("analysis failed", "error", err)
			}
			continue
		}

		logger.Info("analysis complete",
			"event", report.Event.ID,
			"magnitude", report.Event.Magnitude,
			"distance_km", report.Estimate.DistanceKm,
			"travel_time_sec", report.Estimate.TravelTimeSec,
			"predicted_arrival", report.PredictedArrival.Format(time.RFC3339Nano),
		)
		_ = out.Encode(report)
	}
	return failed
}

// runWorkflows starts one AnalysisWorkflow per target.
func runWorkflows(ctx context.Context, cfg *config.Config, targets []usecases.AnalysisTarget, wait bool, out *json.Encoder) int {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		slog.Error("temporal client", "error", err)
		return len(targets)
	}
	defer c.Close()

	runs := make([]client.WorkflowRun, 0, len(targets))
	failed := 0
	for _, t := range targets {
		runID := uuid.NewString()
		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        "analysis-" + runID,
			TaskQueue: cfg.Temporal.TaskQueue,
		}, workflows.AnalysisWorkflow, workflows.AnalysisInput{RunID: runID, Target: t})
		if err != nil {
			failed++
			slog.Error("start workflow", "station", t.Network+"."+t.Station, "error", err)
			continue
		}
		slog.Info("workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
		runs = append(runs, run)
	}

	if !wait {
		return failed
	}
	for _, run := range runs {
		var report domain.AnalysisReport
		if err := run.Get(ctx, &report); err != nil {
			failed++
			slog.Error("workflow failed", "workflow_id", run.GetID(), "error", err)
			continue
		}
		_ = out.Encode(report)
	}
	return failed
}
