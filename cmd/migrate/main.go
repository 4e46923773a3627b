package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/locallens/internal/pkg/config"
	"github.com/samirrijal/locallens/internal/pkg/logging"
)

const migrationsDir = "migrations"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|status>")
	}

	cfg, err := config.Load("locallens-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	if cfg.Storage.Driver != "postgres" {
		slog.Info("storage driver manages its own schema, nothing to migrate", "driver", cfg.Storage.Driver)
		return
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		log.Fatalf("schema_migrations: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}
	sort.Strings(files)

	switch os.Args[1] {
	case "up":
		if err := runMigrations(ctx, pool, files); err != nil {
			log.Fatal(err)
		}
	case "status":
		if err := printStatus(ctx, pool, files); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func applied(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(names))
	for _, n := range names {
		done[n] = true
	}
	return done, nil
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool, files []string) error {
	done, err := applied(ctx, pool)
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	for _, f := range files {
		name := filepath.Base(f)
		if done[name] {
			continue
		}

		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}

		fmt.Printf("OK  %s\n", name)
	}

	slog.Info("all migrations applied")
	return nil
}

func printStatus(ctx context.Context, pool *pgxpool.Pool, files []string) error {
	done, err := applied(ctx, pool)
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}
	for _, f := range files {
		state := "pending"
		if done[filepath.Base(f)] {
			state = "applied"
		}
		fmt.Printf("%-8s %s\n", state, filepath.Base(f))
	}
	return nil
}
