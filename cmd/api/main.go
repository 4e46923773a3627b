package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/locallens/internal/adapters/anthropic"
	"github.com/samirrijal/locallens/internal/adapters/http"
	natsadapter "github.com/samirrijal/locallens/internal/adapters/nats"
	"github.com/samirrijal/locallens/internal/adapters/storage"
	"github.com/samirrijal/locallens/internal/adapters/valkey"
	"github.com/samirrijal/locallens/internal/core/ports"
	"github.com/samirrijal/locallens/internal/core/usecases"
	"github.com/samirrijal/locallens/internal/pkg/config"
	"github.com/samirrijal/locallens/internal/pkg/logging"
	"github.com/samirrijal/locallens/internal/pkg/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("locallens-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Storage
	repo, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeStore()
	slog.Info("poi storage ready", "driver", cfg.Storage.Driver)

	deps := &http.Dependencies{
		Storage:   repo,
		StaticDir: cfg.Server.StaticDir,
		Version:   version,
	}

	// Cache (optional)
	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		vc, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer vc.Close()
			cache = vc
			deps.Cache = vc
		}
	}

	// NATS (optional; /send-to-llm and /ws need it)
	var areas ports.AreaPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			areas = pub
			deps.NATS = pub.Conn()
		}
	}

	// Language model
	if cfg.LLM.APIKey == "" {
		slog.Warn("llm api key not set; POIs are stored unenhanced and search is unavailable")
	}
	assistant := anthropic.New(anthropic.Options{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Concurrency: int64(cfg.LLM.Concurrency),
		Timeout:     time.Duration(cfg.LLM.Timeout) * time.Second,
	})

	deps.Assistant = assistant

	// Use cases
	deps.POIs = usecases.NewPOIService(repo, assistant, cache, cfg.Search.CacheTTL)
	deps.Search = usecases.NewSearchService(repo, assistant, cache, cfg.Search.CacheTTL)
	deps.Areas = usecases.NewAreaService(repo, assistant, areas)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "LocalLens API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
