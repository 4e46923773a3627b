package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/locallens/internal/core/usecases"
)

// Pinger is a backing service that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	POIs      *usecases.POIService
	Search    *usecases.SearchService
	Areas     *usecases.AreaService
	NATS      *nats.Conn
	Storage   Pinger
	Cache     Pinger
	Assistant Pinger
	Version   string
	StaticDir string
}
