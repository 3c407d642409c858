package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/iberseis/internal/adapters/fdsn"
	"github.com/samirrijal/iberseis/internal/adapters/http"
	natsadapter "github.com/samirrijal/iberseis/internal/adapters/nats"
	"github.com/samirrijal/iberseis/internal/adapters/postgres"
	"github.com/samirrijal/iberseis/internal/adapters/valkey"
	"github.com/samirrijal/iberseis/internal/core/ports"
	"github.com/samirrijal/iberseis/internal/core/usecases"
	"github.com/samirrijal/iberseis/internal/pkg/config"
	"github.com/samirrijal/iberseis/internal/pkg/logging"
	"github.com/samirrijal/iberseis/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("iberseis-api")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Station catalog
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		slog.Error("database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	go db.ReportPoolMetrics(ctx, 15*time.Second)

	// Cache (optional)
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// Raw NATS connection for the WebSocket relay (optional)
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer natsConn.Drain()
	}

	provider := fdsn.New(fdsn.Options{
		EventURL:   cfg.FDSN.EventURL,
		StationURL: cfg.FDSN.StationURL,
		Timeout:    time.Duration(cfg.FDSN.Timeout) * time.Second,
		MaxRetries: cfg.FDSN.MaxRetries,
		Cache:      cacheSvc,
	})

	stationRepo := postgres.NewStationRepo(db)
	travelTime := usecases.NewTravelTimeService(cfg.Estimator.SpeedKmS)

	deps := &http.Dependencies{
		TravelTime:  travelTime,
		Stations:    usecases.NewStationService(stationRepo, provider, cacheSvc),
		Predictions: usecases.NewPredictionService(stationRepo, travelTime, nil),
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024,
		AppName:      "IberSeis API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "speed_km_s", travelTime.DefaultSpeed())
		if err := app.Listen(addr); err != nil {
			slog.Error("listen", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
