// Package gateway is the widget's backend client. Every call is a single
// attempt; any transport, status or decode failure wraps domain.ErrRequestFailed.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/locallens/internal/core/domain"
)

const (
	PathSendLocation = "/send-to-llm"
	PathAddPOI       = "/add_poi"
	PathSearch       = "/search"
	PathListPOIs     = "/get_pois"

	defaultTimeout = 90 * time.Second
)

// Client talks to the LocalLens backend.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request when the context carries no earlier deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying fasthttp client.
func WithHTTPClient(hc *fasthttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		http:    &fasthttp.Client{Name: "locallens-mapclient"},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type locationRequest struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius int     `json:"radius"`
}

// SendAck is the backend's acknowledgement of a forwarded area.
type SendAck struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

// SendLocation forwards the area of interest for downstream processing.
func (c *Client) SendLocation(ctx context.Context, snap domain.AreaSnapshot) (SendAck, error) {
	var ack SendAck
	body := locationRequest{Lat: snap.Center.Lat, Lng: snap.Center.Lng, Radius: snap.RadiusMeters}
	if err := c.do(ctx, fasthttp.MethodPost, PathSendLocation, body, &ack); err != nil {
		return SendAck{}, err
	}
	return ack, nil
}

type addPOIRequest struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// AddPOI persists a point of interest. Only a "success" status counts as
// persisted; anything else is a failure.
func (c *Client) AddPOI(ctx context.Context, at domain.Coordinate, description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}
	var resp statusResponse
	if err := c.do(ctx, fasthttp.MethodPost, PathAddPOI, addPOIRequest{Lat: at.Lat, Lng: at.Lng, Description: description}, &resp); err != nil {
		return err
	}
	if resp.Status != "success" {
		return fmt.Errorf("%w: add poi status %q %s", domain.ErrRequestFailed, resp.Status, resp.Message)
	}
	return nil
}

type searchRequest struct {
	Query  string  `json:"query"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius int     `json:"radius"`
}

type searchResponse struct {
	Result *string `json:"result"`
}

// Search runs a location-scoped query and returns the pre-rendered result markup.
func (c *Client) Search(ctx context.Context, q domain.SearchQuery) (string, error) {
	var resp searchResponse
	body := searchRequest{Query: q.Query, Lat: q.Origin.Lat, Lng: q.Origin.Lng, Radius: q.RadiusMeters}
	if err := c.do(ctx, fasthttp.MethodPost, PathSearch, body, &resp); err != nil {
		return "", err
	}
	if resp.Result == nil {
		return "", fmt.Errorf("%w: search response has no result", domain.ErrRequestFailed)
	}
	return *resp.Result, nil
}

// ListPOIs loads every stored point of interest in backend order.
func (c *Client) ListPOIs(ctx context.Context) ([]domain.PointOfInterest, error) {
	var pois []domain.PointOfInterest
	if err := c.do(ctx, fasthttp.MethodGet, PathListPOIs, nil, &pois); err != nil {
		return nil, err
	}
	if pois == nil {
		pois = []domain.PointOfInterest{}
	}
	return pois, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRequestFailed, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %w", domain.ErrRequestFailed, path, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(payload)
	}

	deadline := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	start := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		slog.Debug("backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %s %s: %w", domain.ErrRequestFailed, method, path, err)
	}

	status := resp.StatusCode()
	slog.Debug("backend request",
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if status < 200 || status > 299 {
		return fmt.Errorf("%w: %s %s: status %d", domain.ErrRequestFailed, method, path, status)
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", domain.ErrRequestFailed, path, err)
	}
	return nil
}
