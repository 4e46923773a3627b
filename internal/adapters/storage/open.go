// Package storage opens the POI repository selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/locallens/internal/adapters/memory"
	"github.com/samirrijal/locallens/internal/adapters/postgres"
	"github.com/samirrijal/locallens/internal/adapters/sqlite"
	"github.com/samirrijal/locallens/internal/core/ports"
	"github.com/samirrijal/locallens/internal/pkg/config"
)

// Store is a POI repository that can also report readiness.
type Store interface {
	ports.POIRepository
	Ping(ctx context.Context) error
}

// Open opens the repository named by cfg.Storage.Driver. The returned func releases it.
func Open(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		return postgresStore{POIRepo: postgres.NewPOIRepo(db), db: db}, db.Close, nil

	case "sqlite":
		repo, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		return repo, func() { _ = repo.Close() }, nil

	case "memory":
		slog.Warn("using in-memory POI storage; data is lost on restart")
		return memory.NewPOIRepo(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

type postgresStore struct {
	*postgres.POIRepo
	db *postgres.DB
}

func (s postgresStore) Ping(ctx context.Context) error { return s.db.Ping(ctx) }
