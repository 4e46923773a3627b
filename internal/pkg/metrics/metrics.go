package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "locallens",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "locallens",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10, 30},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "locallens",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Domain metrics
	POIsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "locallens",
		Subsystem: "poi",
		Name:      "created_total",
		Help:      "Total points of interest stored",
	})

	Searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "locallens",
		Subsystem: "search",
		Name:      "queries_total",
		Help:      "Total search queries by outcome",
	}, []string{"outcome"})

	SearchContextSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "locallens",
		Subsystem: "search",
		Name:      "context_pois",
		Help:      "Number of POIs inside the search radius",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "locallens",
		Subsystem: "llm",
		Name:      "requests_total",
		Help:      "Total language model requests by purpose and outcome",
	}, []string{"purpose", "outcome"})

	LLMDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "locallens",
		Subsystem: "llm",
		Name:      "request_duration_seconds",
		Help:      "Language model request latency",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"purpose"})

	AreasForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "locallens",
		Subsystem: "area",
		Name:      "forwarded_total",
		Help:      "Total areas of interest forwarded for digestion",
	})

	DigestsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "locallens",
		Subsystem: "area",
		Name:      "digests_published_total",
		Help:      "Total area digests broadcast",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "locallens",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "locallens",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "locallens",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// Outcome maps an error to the "ok"/"error" label used by the domain counters.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
