package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samirrijal/iberseis/internal/adapters/fdsn"
	"github.com/samirrijal/iberseis/internal/adapters/postgres"
	"github.com/samirrijal/iberseis/internal/adapters/valkey"
	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/ports"
	"github.com/samirrijal/iberseis/internal/core/usecases"
	"github.com/samirrijal/iberseis/internal/pkg/config"
	"github.com/samirrijal/iberseis/internal/pkg/logging"
)

func main() {
	networks := flag.String("networks", "IU,PM,ES,GE", "comma-separated FDSN network codes to import")
	region := flag.String("bounds", "", "restrict stations to minlat,minlon,maxlat,maxlon")
	flag.Parse()

	cfg, err := config.Load("iberseis-ingestor")
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

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		slog.Error("database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var cacheSvc ports.CacheService
	if cache, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, cached stations expire on their own", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	provider := fdsn.New(fdsn.Options{
		EventURL:   cfg.FDSN.EventURL,
		StationURL: cfg.FDSN.StationURL,
		Timeout:    2 * time.Duration(cfg.FDSN.Timeout) * time.Second,
		MaxRetries: cfg.FDSN.MaxRetries,
	})
	stations := usecases.NewStationService(postgres.NewStationRepo(db), provider, cacheSvc)

	var (
		wg       sync.WaitGroup
		imported atomic.Int64
		failed   atomic.Int64
	)
	sem := make(chan struct{}, 4) // max 4 concurrent inventory downloads

	for _, net := range strings.Split(*networks, ",") {
		net = strings.ToUpper(strings.TrimSpace(net))
		if net == "" {
			continue
		}

		wg.Add(1)
		go func(network string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			inv, err := provider.Stations(ctx, network, bounds)
			if err != nil {
				failed.Add(1)
				slog.Error("fetch inventory", "network", network, "error", err)
				return
			}
			n, err := stations.Import(ctx, inv)
			if err != nil {
				failed.Add(1)
				slog.Error("import stations", "network", network, "error", err)
				return
			}
			imported.Add(int64(n))
			slog.Info("network imported",
				"network", network,
				"fetched", len(inv),
				"stored", n,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}(net)
	}

	wg.Wait()
	slog.Info("ingestion complete", "stations", imported.Load(), "failed_networks", failed.Load())
	if failed.Load() > 0 {
		os.Exit(1)
	}
}
