package http

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

// HealthHandler is the liveness probe. It never touches a backing service.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "locallens-api",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": version,
		})
	}
}

// readinessProbe reports one backing service. A nil probe means the service
// is not configured. Advisory probes are reported but never fail readiness.
type readinessProbe struct {
	name     string
	required bool
	advisory bool
	probe    func(ctx context.Context) error
}

func readinessProbes(deps *Dependencies) []readinessProbe {
	pinger := func(p Pinger) func(context.Context) error {
		if p == nil {
			return nil
		}
		return p.Ping
	}

	var broker func(context.Context) error
	if deps.NATS != nil {
		broker = func(context.Context) error {
			if !deps.NATS.IsConnected() {
				return errDisconnected
			}
			return nil
		}
	}

	return []readinessProbe{
		{name: "storage", required: true, probe: pinger(deps.Storage)},
		{name: "nats", probe: broker},
		{name: "cache", probe: pinger(deps.Cache)},
		{name: "assistant", advisory: true, probe: pinger(deps.Assistant)},
	}
}

var errDisconnected = errors.New("disconnected")

// ReadyHandler probes every backing service concurrently. Storage must be up.
// Optional services fail readiness only when configured and unreachable.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		var (
			mu     sync.Mutex
			checks = make(map[string]string)
			ready  = true
		)
		record := func(p readinessProbe, status string, ok bool) {
			mu.Lock()
			defer mu.Unlock()
			checks[p.name] = status
			if !ok {
				ready = false
			}
		}

		var g errgroup.Group
		for _, p := range readinessProbes(deps) {
			if p.probe == nil {
				record(p, "not configured", !p.required)
				continue
			}
			g.Go(func() error {
				err := p.probe(ctx)
				switch {
				case err == nil:
					record(p, "ok", true)
				case errors.Is(err, errDisconnected):
					record(p, "disconnected", false)
				case p.advisory:
					record(p, "unavailable: "+err.Error(), true)
				default:
					record(p, "error: "+err.Error(), false)
				}
				return nil
			})
		}
		_ = g.Wait()

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
