package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/locallens/internal/adapters/anthropic"
	natsadapter "github.com/samirrijal/locallens/internal/adapters/nats"
	"github.com/samirrijal/locallens/internal/adapters/storage"
	"github.com/samirrijal/locallens/internal/core/usecases"
	"github.com/samirrijal/locallens/internal/pkg/config"
	"github.com/samirrijal/locallens/internal/pkg/logging"
	"github.com/samirrijal/locallens/internal/pkg/telemetry"
	"github.com/samirrijal/locallens/internal/workflows"
)

func main() {
	cfg, err := config.Load("locallens-digester")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	repo, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeStore()

	assistant := anthropic.New(anthropic.Options{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Concurrency: int64(cfg.LLM.Concurrency),
		Timeout:     time.Duration(cfg.LLM.Timeout) * time.Second,
	})

	// Digests are broadcast on core NATS for the API's /ws relay.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.AreaDigestWorkflow)
	w.RegisterActivity(&workflows.DigestActivities{
		Areas:     usecases.NewAreaService(repo, assistant, nil),
		Publisher: pub,
	})

	starter := &workflows.Starter{Client: c, TaskQueue: cfg.Temporal.TaskQueue}
	if err := sub.SubscribeAreas(ctx, starter.StartDigest); err != nil {
		log.Fatalf("subscribe areas: %v", err)
	}

	slog.Info("digester worker started", "task_queue", cfg.Temporal.TaskQueue, "subjects", natsadapter.AreaSubjects)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
