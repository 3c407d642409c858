package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/iberseis/internal/adapters/fdsn"
	natsadapter "github.com/samirrijal/iberseis/internal/adapters/nats"
	"github.com/samirrijal/iberseis/internal/adapters/postgres"
	"github.com/samirrijal/iberseis/internal/core/ports"
	"github.com/samirrijal/iberseis/internal/core/usecases"
	"github.com/samirrijal/iberseis/internal/pkg/config"
	"github.com/samirrijal/iberseis/internal/pkg/logging"
	"github.com/samirrijal/iberseis/internal/workflows"
)

func main() {
	cfg, err := config.Load("iberseis-worker")
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := fdsn.New(fdsn.Options{
		EventURL:   cfg.FDSN.EventURL,
		StationURL: cfg.FDSN.StationURL,
		Timeout:    time.Duration(cfg.FDSN.Timeout) * time.Second,
		MaxRetries: cfg.FDSN.MaxRetries,
	})

	// The station catalog is optional; without it stations come straight from FDSN.
	var stations *usecases.StationService
	if db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns); err != nil {
		slog.Warn("station catalog unavailable, using FDSN only", "error", err)
	} else {
		defer db.Close()
		stations = usecases.NewStationService(postgres.NewStationRepo(db), provider, nil)
	}

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, reports will not be published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    log.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		slog.Error("temporal client", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.AnalysisWorkflow)
	w.RegisterActivity(&workflows.AnalysisActivities{
		Analysis:  usecases.NewAnalysisService(provider, stations, usecases.NewTravelTimeService(cfg.Estimator.SpeedKmS), nil),
		Publisher: publisher,
	})

	slog.Info("analysis worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		slog.Error("worker", "error", err)
		os.Exit(1)
	}
}
