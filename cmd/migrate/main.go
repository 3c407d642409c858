package main

import (
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/samirrijal/iberseis/internal/pkg/config"
	"github.com/samirrijal/iberseis/internal/pkg/logging"
	"github.com/samirrijal/iberseis/migrations"
)

func main() {
	if len(os.Args) < 2 {
		slog.Error("usage: migrate <up|down|version|steps N>")
		os.Exit(2)
	}

	cfg, err := config.Load("iberseis-migrate")
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	m, err := newMigrate(cfg.Database.DSN())
	if err != nil {
		slog.Error("migrate init", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if len(os.Args) < 3 {
			slog.Error("usage: migrate steps N")
			os.Exit(2)
		}
		n, convErr := strconv.Atoi(os.Args[2])
		if convErr != nil {
			slog.Error("steps must be an integer", "value", os.Args[2])
			os.Exit(2)
		}
		err = m.Steps(n)
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			slog.Info("no migrations applied")
			return
		}
		if verr != nil {
			slog.Error("version", "error", verr)
			os.Exit(1)
		}
		slog.Info("schema version", "version", v, "dirty", dirty)
		return
	default:
		slog.Error("unknown command", "command", os.Args[1])
		os.Exit(2)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("schema already up to date")
		return
	}
	if err != nil {
		slog.Error("migration failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "command", os.Args[1])
}

// newMigrate builds a migrator reading the embedded SQL files.
func newMigrate(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, "postgres", driver)
}
