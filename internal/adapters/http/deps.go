package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/iberseis/internal/adapters/postgres"
	"github.com/samirrijal/iberseis/internal/adapters/valkey"
	"github.com/samirrijal/iberseis/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	TravelTime  *usecases.TravelTimeService
	Stations    *usecases.StationService
	Predictions *usecases.PredictionService
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}
