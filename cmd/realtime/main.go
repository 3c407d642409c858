package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samirrijal/iberseis/internal/adapters/fdsn"
	natsadapter "github.com/samirrijal/iberseis/internal/adapters/nats"
	"github.com/samirrijal/iberseis/internal/adapters/postgres"
	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/usecases"
	"github.com/samirrijal/iberseis/internal/pkg/config"
	"github.com/samirrijal/iberseis/internal/pkg/logging"
)

func main() {
	interval := flag.Duration("interval", 30*time.Second, "event service poll interval")
	lookback := flag.Duration("lookback", time.Hour, "window searched on the first poll")
	minMag := flag.Float64("min-magnitude", 2.5, "ignore smaller events")
	region := flag.String("bounds", "", "restrict events to minlat,minlon,maxlat,maxlon")
	fanout := flag.Bool("fanout", true, "compute predictions from the event stream instead of inline")
	flag.Parse()

	cfg, err := config.Load("iberseis-realtime")
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	bounds, err := domain.ParseBounds(*region)
	if err != nil {
		slog.Error("bounds", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		slog.Error("database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Error("nats", "error", err)
		os.Exit(1)
	}
	defer pub.Close()

	provider := fdsn.New(fdsn.Options{
		EventURL:   cfg.FDSN.EventURL,
		StationURL: cfg.FDSN.StationURL,
		Timeout:    time.Duration(cfg.FDSN.Timeout) * time.Second,
		MaxRetries: cfg.FDSN.MaxRetries,
	})
	predictions := usecases.NewPredictionService(
		postgres.NewStationRepo(db),
		usecases.NewTravelTimeService(cfg.Estimator.SpeedKmS),
		pub,
	)

	// With fan-out the poller only publishes events and a durable consumer
	// turns each one into arrival predictions.
	publish := func(ctx context.Context, ev *domain.Event) error {
		n, err := predictions.PublishArrivals(ctx, ev)
		if err == nil {
			slog.Info("event published", "event", ev.ID, "magnitude", ev.Magnitude, "predictions", n)
		}
		return err
	}
	if *fanout {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Error("nats subscriber", "error", err)
			os.Exit(1)
		}
		defer sub.Close()

		err = sub.SubscribeEvents(ctx, func(ctx context.Context, ev *domain.Event) error {
			n, err := predictions.PublishPredictions(ctx, ev)
			if err != nil {
				slog.Error("predict arrivals", "event", ev.ID, "error", err)
				return err
			}
			slog.Info("arrivals published", "event", ev.ID, "predictions", n)
			return nil
		})
		if err != nil {
			slog.Error("subscribe events", "error", err)
			os.Exit(1)
		}
		publish = func(ctx context.Context, ev *domain.Event) error {
			return pub.PublishEvent(ctx, ev)
		}
	}

	p := newPoller(provider, publish, *minMag, bounds, *lookback)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	slog.Info("realtime poller started", "interval", interval.String(), "min_magnitude", *minMag, "fanout", *fanout)

	runOnce := func() {
		n, err := p.poll(ctx)
		if err != nil {
			slog.Error("poll failed", "error", err)
			return
		}
		if n > 0 {
			slog.Info("poll complete", "new_events", n)
		}
	}

	runOnce()
	for {
		select {
		case <-ticker.C:
			runOnce()
		case sig := <-quit:
			slog.Info("shutting down realtime poller", "signal", sig.String())
			cancel()
			return
		}
	}
}
