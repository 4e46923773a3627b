package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/locallens/internal/core/domain"
)

type recorded struct {
	Method string
	Path   string
	Body   map[string]any
}

type backend struct {
	mu       sync.Mutex
	requests []recorded
	status   int
	body     string
}

func newBackend(t *testing.T, status int, body string) (*backend, *Client) {
	t.Helper()
	b := &backend{status: status, body: body}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec := recorded{Method: r.Method, Path: r.URL.Path}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
		b.mu.Lock()
		b.requests = append(b.requests, rec)
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(b.status)
		_, _ = w.Write([]byte(b.body))
	}))
	t.Cleanup(srv.Close)
	return b, New(srv.URL+"/", WithTimeout(2*time.Second))
}

func (b *backend) last(t *testing.T) recorded {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.requests)
	return b.requests[len(b.requests)-1]
}

func TestSendLocation(t *testing.T) {
	b, c := newBackend(t, http.StatusAccepted, `{"status":"queued","id":"abc"}`)

	ack, err := c.SendLocation(context.Background(), domain.AreaSnapshot{
		Center:       domain.Coordinate{Lat: 51.5, Lng: -0.09},
		RadiusMeters: 2500,
	})
	require.NoError(t, err)
	assert.Equal(t, SendAck{Status: "queued", ID: "abc"}, ack)

	req := b.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, PathSendLocation, req.Path)
	assert.Equal(t, map[string]any{"lat": 51.5, "lng": -0.09, "radius": 2500.0}, req.Body)
}

func TestAddPOI_Success(t *testing.T) {
	b, c := newBackend(t, http.StatusOK, `{"status":"success"}`)

	err := c.AddPOI(context.Background(), domain.Coordinate{Lat: 1.5, Lng: 2.5}, "Cafe")
	require.NoError(t, err)

	req := b.last(t)
	assert.Equal(t, PathAddPOI, req.Path)
	assert.Equal(t, map[string]any{"lat": 1.5, "lng": 2.5, "description": "Cafe"}, req.Body)
}

func TestAddPOI_NonSuccessStatus(t *testing.T) {
	_, c := newBackend(t, http.StatusOK, `{"status":"fail"}`)

	err := c.AddPOI(context.Background(), domain.Coordinate{}, "Cafe")
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
}

func TestAddPOI_EmptyDescriptionNeverCalls(t *testing.T) {
	b, c := newBackend(t, http.StatusOK, `{"status":"success"}`)

	err := c.AddPOI(context.Background(), domain.Coordinate{}, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, b.requests)
}

func TestSearch(t *testing.T) {
	b, c := newBackend(t, http.StatusOK, `{"result":"<p>Two cafes nearby</p>"}`)

	got, err := c.Search(context.Background(), domain.SearchQuery{
		Query:        "coffee",
		Origin:       domain.Coordinate{},
		RadiusMeters: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>Two cafes nearby</p>", got)

	req := b.last(t)
	assert.Equal(t, PathSearch, req.Path)
	assert.Equal(t, map[string]any{"query": "coffee", "lat": 0.0, "lng": 0.0, "radius": 1000.0}, req.Body)
}

func TestSearch_MissingResult(t *testing.T) {
	_, c := newBackend(t, http.StatusOK, `{}`)

	_, err := c.Search(context.Background(), domain.SearchQuery{Query: "x", RadiusMeters: 1})
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
}

func TestListPOIs(t *testing.T) {
	b, c := newBackend(t, http.StatusOK, `[{"lat":1,"lng":2,"description":"a"},{"lat":3,"lng":4,"description":"b"}]`)

	pois, err := c.ListPOIs(context.Background())
	require.NoError(t, err)
	require.Len(t, pois, 2)
	assert.Equal(t, "a", pois[0].Description)
	assert.Equal(t, 4.0, pois[1].Lng)

	req := b.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, PathListPOIs, req.Path)
}

func TestListPOIs_Empty(t *testing.T) {
	_, c := newBackend(t, http.StatusOK, `[]`)

	pois, err := c.ListPOIs(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, pois)
	assert.Empty(t, pois)
}

func TestFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"bad request", http.StatusBadRequest, `{"status":"error","message":"bad"}`},
		{"malformed body", http.StatusOK, `not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, c := newBackend(t, tc.status, tc.body)

			_, err := c.ListPOIs(context.Background())
			assert.ErrorIs(t, err, domain.ErrRequestFailed)
			assert.Len(t, b.requests, 1, "no retry")
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, WithTimeout(time.Second)).Search(context.Background(), domain.SearchQuery{Query: "x", RadiusMeters: 1})
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
}

func TestCancelledContext(t *testing.T) {
	b, c := newBackend(t, http.StatusOK, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListPOIs(ctx)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
	assert.Empty(t, b.requests)
}
