package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/locallens/internal/core/domain"
)

// DefaultIPEndpoint is an ip-api.com compatible lookup for the caller's own address.
const DefaultIPEndpoint = "http://ip-api.com/json/?fields=status,message,lat,lon"

// IPLocator approximates the position from the public IP via an ip-api style endpoint.
type IPLocator struct {
	Endpoint string
	Timeout  time.Duration
	Client   *fasthttp.Client
}

// NewIPLocator returns a locator for endpoint (DefaultIPEndpoint when empty).
func NewIPLocator(endpoint string, timeout time.Duration) *IPLocator {
	if endpoint == "" {
		endpoint = DefaultIPEndpoint
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IPLocator{
		Endpoint: endpoint,
		Timeout:  timeout,
		Client:   &fasthttp.Client{Name: "locallens-mapclient"},
	}
}

type ipResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (l *IPLocator) CurrentPosition(ctx context.Context) (domain.Coordinate, error) {
	timeout := l.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil || timeout <= 0 {
		return domain.Coordinate{}, unavailable(context.DeadlineExceeded)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(l.Endpoint)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	if err := l.Client.DoTimeout(req, resp, timeout); err != nil {
		return domain.Coordinate{}, unavailable(err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return domain.Coordinate{}, unavailable(fmt.Errorf("ip lookup status %d", code))
	}

	var r ipResponse
	if err := json.Unmarshal(resp.Body(), &r); err != nil {
		return domain.Coordinate{}, unavailable(err)
	}
	if r.Status != "" && r.Status != "success" {
		return domain.Coordinate{}, unavailable(errors.New("ip lookup failed: " + r.Message))
	}

	c := domain.Coordinate{Lat: r.Lat, Lng: r.Lon}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, unavailable(err)
	}
	return c, nil
}
