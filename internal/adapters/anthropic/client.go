package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/pkg/metrics"
	"github.com/samirrijal/locallens/internal/pkg/telemetry"
)

const apiVersion = "2023-06-01"

const (
	enhanceSystem   = "You are a helpful travel assistant."
	answerSystem    = "You are a helpful assistant that uses context to provide great hidden gems to travelers"
	summarizeSystem = "You are a knowledgeable travel guide."
)

// Options configures the Messages API client.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Concurrency int64
	Timeout     time.Duration
}

// Client implements ports.Assistant on top of the Anthropic Messages API.
type Client struct {
	opts Options
	http *http.Client
	sem  *semaphore.Weighted
}

// New creates a client. Concurrency bounds in-flight requests across all callers.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.anthropic.com"
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Client{
		opts: opts,
		http: &http.Client{Timeout: opts.Timeout},
		sem:  semaphore.NewWeighted(opts.Concurrency),
	}
}

// Enhance rewrites a user's POI description into a short traveller-facing blurb.
func (c *Client) Enhance(ctx context.Context, poi domain.PointOfInterest) (string, error) {
	prompt := fmt.Sprintf(`Enhance the following point of interest description:
Location: Latitude %v, Longitude %v
User description: %s

Provide a concise, engaging description of this location. Include any relevant
details or context that might be interesting for travelers. Maximum 3 short sentences.`,
		poi.Lat, poi.Lng, poi.Description)
	return c.complete(ctx, "enhance", enhanceSystem, prompt)
}

// Answer responds to a free-text query using the enhanced descriptions in range.
func (c *Client) Answer(ctx context.Context, query string, contexts []string) (string, error) {
	prompt := fmt.Sprintf(`User query: %s
Context (if any): %s

Provide a helpful, concise answer to the user's query.
If the context doesn't provide enough information, give a general response
and suggest how the user might find more specific information. Give always a max of
three/four suggestions. Prioritize your context.`,
		query, strings.Join(contexts, ";"))
	return c.complete(ctx, "answer", answerSystem, prompt)
}

// Summarize writes a digest paragraph for the POIs inside a forwarded area.
func (c *Client) Summarize(ctx context.Context, area domain.AreaRequest, pois []domain.PointOfInterest) (string, error) {
	var b strings.Builder
	for _, p := range pois {
		desc := p.EnhancedDescription
		if desc == "" {
			desc = p.Description
		}
		fmt.Fprintf(&b, "- (%v, %v) %s\n", p.Lat, p.Lng, desc)
	}
	prompt := fmt.Sprintf(`Create a short guide for the area centred on Latitude %v, Longitude %v
with a radius of %d meters. These points of interest lie inside it:
%s
Provide an engaging, informative paragraph about this area. Include any
historical context, cultural significance, or travel tips if applicable.`,
		area.Center.Lat, area.Center.Lng, area.RadiusMeters, b.String())
	return c.complete(ctx, "summarize", summarizeSystem, prompt)
}

// Ping reports ErrUnavailable when no API key is configured. It makes no request.
func (c *Client) Ping(context.Context) error {
	if c.opts.APIKey == "" {
		return fmt.Errorf("anthropic: api key not configured: %w", domain.ErrUnavailable)
	}
	return nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, purpose, system, prompt string) (text string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "anthropic."+purpose,
		attribute.String("llm.model", c.opts.Model))
	start := time.Now()
	defer func() {
		metrics.LLMRequests.WithLabelValues(purpose, metrics.Outcome(err)).Inc()
		metrics.LLMDuration.WithLabelValues(purpose).Observe(time.Since(start).Seconds())
		telemetry.End(span, err)
	}()

	if c.opts.APIKey == "" {
		return "", fmt.Errorf("anthropic: api key not configured: %w", domain.ErrUnavailable)
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.sem.Release(1)

	body, err := json.Marshal(request{
		Model:     c.opts.Model,
		MaxTokens: c.opts.MaxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.opts.BaseURL, "/")+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.opts.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("anthropic: read body: %w", err)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("anthropic: decode (status %d): %w", resp.StatusCode, err)
	}
	if out.Error.Message != "" {
		return "", fmt.Errorf("anthropic %s: %s", out.Error.Type, out.Error.Message)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("anthropic: unexpected status %d", resp.StatusCode)
	}

	var b strings.Builder
	for _, part := range out.Content {
		if part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	slog.Debug("llm completion", "purpose", purpose, "chars", b.Len(), "elapsed", time.Since(start))
	return b.String(), nil
}
