package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/widget/eventloop"
	"github.com/samirrijal/locallens/internal/widget/gateway"
	"github.com/samirrijal/locallens/internal/widget/geolocation"
	"github.com/samirrijal/locallens/internal/widget/mapview"
)

type recorded struct {
	Path string
	Body map[string]any
}

type fakeBackend struct {
	mu        sync.Mutex
	requests  []recorded
	addStatus string
	pois      string
	result    string
	searchErr bool
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	rec := recorded{Path: r.URL.Path}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Body)
	}
	b.mu.Lock()
	b.requests = append(b.requests, rec)
	addStatus, pois, result, searchErr := b.addStatus, b.pois, b.result, b.searchErr
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case gateway.PathAddPOI:
		_ = json.NewEncoder(w).Encode(map[string]string{"status": addStatus})
	case gateway.PathListPOIs:
		_, _ = w.Write([]byte(pois))
	case gateway.PathSearch:
		if searchErr {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"assistant unavailable"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"result": result})
	case gateway.PathSendLocation:
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"queued","id":"area-1"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *fakeBackend) to(path string) []recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recorded
	for _, r := range b.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

type recorder struct {
	mu     sync.Mutex
	infos  []string
	errors []string
	errs   []error
}

func (r *recorder) Info(msg string) {
	r.mu.Lock()
	r.infos = append(r.infos, msg)
	r.mu.Unlock()
}

func (r *recorder) Error(msg string, err error) {
	r.mu.Lock()
	r.errors = append(r.errors, msg)
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recorder) errorMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

func (r *recorder) infoMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.infos...)
}

type harness struct {
	loop    *eventloop.Loop
	surface *mapview.MemorySurface
	backend *fakeBackend
	notes   *recorder
	ctrl    *Controller
	results []string
	prompt  string
	prompts int
}

func newHarness(t *testing.T, geo geolocation.Source) *harness {
	t.Helper()
	h := &harness{
		loop:    eventloop.New(),
		surface: mapview.NewMemorySurface(),
		backend: &fakeBackend{addStatus: "success", pois: `[]`, result: "<p>ok</p>"},
		notes:   &recorder{},
	}
	srv := httptest.NewServer(h.backend)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = h.loop.Run(ctx) }()

	h.ctrl = New(Config{
		Loop:        h.loop,
		Geolocation: geo,
		Gateway:     gateway.New(srv.URL, gateway.WithTimeout(2*time.Second)),
		Surface:     h.surface,
		Notifier:    h.notes,
		Prompter: PromptFunc(func(context.Context, string) (string, bool) {
			h.prompts++
			return h.prompt, h.prompt != ""
		}),
		Results: func(m string) { h.results = append(h.results, m) },
	})
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	h.ctrl.Start(context.Background())
	h.loop.Wait()
}

// on runs fn on the loop and waits for everything it triggered.
func (h *harness) on(t *testing.T, fn func()) {
	t.Helper()
	require.NoError(t, h.loop.Call(context.Background(), fn))
	h.loop.Wait()
}

func (h *harness) areaMarkers() int {
	id, ok := h.ctrl.Binding().Marker()
	if !ok {
		return 0
	}
	if _, on := h.surface.Layer(id); on {
		return 1
	}
	return 0
}

var london = domain.Coordinate{Lat: 51.5, Lng: -0.09}

func TestBootstrap_LocatesAndMarks(t *testing.T) {
	h := newHarness(t, geolocation.Fixed{Position: london})
	h.backend.pois = `[{"lat":51.51,"lng":-0.1,"description":"Museum"}]`
	h.start(t)

	snap, err := h.ctrl.Model().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, domain.AreaSnapshot{Center: london, RadiusMeters: 1000}, snap)

	center, zoom := h.surface.View()
	assert.Equal(t, london, center)
	assert.Equal(t, mapview.DefaultZoom, zoom)

	assert.Len(t, h.surface.LayersOf(mapview.MarkerLayer), 2)
	assert.Len(t, h.surface.LayersOf(mapview.CircleLayer), 1)
	assert.Len(t, h.surface.ControlsOf(mapview.EditControl), 1)
	assert.Len(t, h.surface.ControlsOf(mapview.ButtonControl), 1)
	assert.Len(t, h.surface.OpenPopups(), 1)
	assert.Len(t, h.backend.to(gateway.PathListPOIs), 1)
	assert.Empty(t, h.notes.errorMessages())
}

func TestBootstrap_FallbackWithoutMarker(t *testing.T) {
	h := newHarness(t, geolocation.Unsupported{})
	h.backend.pois = `[{"lat":1,"lng":2,"description":"a"},{"lat":3,"lng":4,"description":"b"}]`
	h.start(t)

	center, _ := h.surface.View()
	assert.Equal(t, FallbackCenter, center)
	assert.False(t, h.ctrl.Model().Active())
	assert.Zero(t, h.areaMarkers())
	assert.Empty(t, h.surface.LayersOf(mapview.CircleLayer))
	assert.Empty(t, h.surface.ControlsOf(mapview.EditControl))

	pois := h.surface.LayersOf(mapview.MarkerLayer)
	require.Len(t, pois, 2)
	assert.Equal(t, "a", pois[0].PopupText)
	assert.Equal(t, "b", pois[1].PopupText)

	assert.Len(t, h.surface.ControlsOf(mapview.ButtonControl), 1)
	assert.Equal(t, []string{MsgLocationFallback}, h.notes.errorMessages())

	h.prompt = "Bench"
	h.on(t, func() { h.surface.ClickMap(domain.Coordinate{Lat: 10, Lng: 10}) })
	assert.Len(t, h.backend.to(gateway.PathAddPOI), 1, "features are wired on the fallback path")
}

func TestBootstrap_POILoadFailureIsReported(t *testing.T) {
	h := newHarness(t, geolocation.Fixed{Position: london})
	h.backend.pois = `not json`
	h.start(t)

	assert.Contains(t, h.notes.errorMessages(), MsgLoadPOIsFailed)
	assert.True(t, h.ctrl.Model().Active())
}

func TestRecenter_AfterFallbackPlacesArea(t *testing.T) {
	var calls atomic.Int32
	geo := geolocation.Func(func(context.Context) (domain.Coordinate, error) {
		if calls.Add(1) == 1 {
			return domain.Coordinate{}, errors.New("denied")
		}
		return london, nil
	})
	h := newHarness(t, geo)
	h.start(t)
	require.False(t, h.ctrl.Model().Active())

	rc := h.surface.ControlsOf(mapview.ButtonControl)[0].ID
	h.on(t, func() { require.NoError(t, h.surface.ClickControl(rc)) })

	assert.True(t, h.ctrl.Model().Active())
	assert.Equal(t, 1, h.areaMarkers())
	assert.Len(t, h.surface.OpenPopups(), 1)
}

func TestRecenter_FailureKeepsArea(t *testing.T) {
	var calls atomic.Int32
	geo := geolocation.Func(func(context.Context) (domain.Coordinate, error) {
		if calls.Add(1) == 1 {
			return london, nil
		}
		return domain.Coordinate{}, errors.New("timeout")
	})
	h := newHarness(t, geo)
	h.start(t)

	h.ctrl.Recenter()
	h.loop.Wait()

	snap, err := h.ctrl.Model().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, london, snap.Center)
	assert.Equal(t, []string{MsgLocationFailed}, h.notes.errorMessages())
}

type pending struct {
	pos domain.Coordinate
	err error
}

// gatedSource parks every request until the test resolves it. With
// ignoreCancel set, requests wait for the test even after cancellation.
type gatedSource struct {
	mu           sync.Mutex
	calls        []chan pending
	ctxs         []context.Context
	ignoreCancel bool
}

func (g *gatedSource) CurrentPosition(ctx context.Context) (domain.Coordinate, error) {
	ch := make(chan pending, 1)
	g.mu.Lock()
	g.calls = append(g.calls, ch)
	g.ctxs = append(g.ctxs, ctx)
	ignore := g.ignoreCancel
	g.mu.Unlock()
	if ignore {
		p := <-ch
		return p.pos, p.err
	}
	select {
	case p := <-ch:
		return p.pos, p.err
	case <-ctx.Done():
		return domain.Coordinate{}, ctx.Err()
	}
}

func (g *gatedSource) ctx(i int) context.Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctxs[i]
}

func (g *gatedSource) fail(i int, err error) {
	g.mu.Lock()
	ch := g.calls[i]
	g.mu.Unlock()
	ch <- pending{err: err}
}

func (g *gatedSource) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *gatedSource) resolve(i int, pos domain.Coordinate) {
	g.mu.Lock()
	ch := g.calls[i]
	g.mu.Unlock()
	ch <- pending{pos: pos}
}

func TestRecenter_LaterRequestWins(t *testing.T) {
	geo := &gatedSource{}
	h := newHarness(t, geo)
	h.ctrl.Start(context.Background())
	require.Eventually(t, func() bool { return geo.count() == 1 }, time.Second, time.Millisecond)
	geo.resolve(0, london)
	h.loop.Wait()

	a := domain.Coordinate{Lat: 40.4, Lng: -3.7}
	b := domain.Coordinate{Lat: 43.26, Lng: -2.93}

	h.ctrl.Recenter()
	require.Eventually(t, func() bool { return geo.count() == 2 }, time.Second, time.Millisecond)
	h.ctrl.Recenter()
	require.Eventually(t, func() bool { return geo.count() == 3 }, time.Second, time.Millisecond)

	geo.resolve(2, b)
	require.Eventually(t, func() bool {
		snap, _ := h.ctrl.Model().Snapshot()
		return snap.Center == b
	}, time.Second, time.Millisecond)

	geo.resolve(1, a)
	h.loop.Wait()

	snap, err := h.ctrl.Model().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, b, snap.Center)

	markers := h.surface.LayersOf(mapview.MarkerLayer)
	require.Len(t, markers, 1)
	assert.Equal(t, b, markers[0].Position)
}

func TestBootstrap_LateFailureAfterRecenterIsDiscarded(t *testing.T) {
	geo := &gatedSource{ignoreCancel: true}
	h := newHarness(t, geo)
	h.ctrl.Start(context.Background())
	require.Eventually(t, func() bool { return geo.count() == 1 }, time.Second, time.Millisecond)

	b := domain.Coordinate{Lat: 43.26, Lng: -2.93}
	h.ctrl.Recenter()
	require.Eventually(t, func() bool { return geo.count() == 2 }, time.Second, time.Millisecond)
	geo.resolve(1, b)
	require.Eventually(t, func() bool {
		snap, _ := h.ctrl.Model().Snapshot()
		return snap.Center == b
	}, time.Second, time.Millisecond)

	geo.fail(0, errors.New("timeout"))
	require.Eventually(t, func() bool { return len(h.backend.to(gateway.PathListPOIs)) == 1 }, time.Second, time.Millisecond)
	h.loop.Wait()

	center, _ := h.surface.View()
	assert.Equal(t, b, center)
	assert.NotContains(t, h.notes.errorMessages(), MsgLocationFallback)
	assert.Equal(t, 1, h.areaMarkers())
	assert.Len(t, h.surface.ControlsOf(mapview.ButtonControl), 1, "features are still wired")
}

func TestBootstrap_LateSuccessAfterRecenterKeepsView(t *testing.T) {
	geo := &gatedSource{ignoreCancel: true}
	h := newHarness(t, geo)
	h.ctrl.Start(context.Background())
	require.Eventually(t, func() bool { return geo.count() == 1 }, time.Second, time.Millisecond)

	b := domain.Coordinate{Lat: 43.26, Lng: -2.93}
	h.ctrl.Recenter()
	require.Eventually(t, func() bool { return geo.count() == 2 }, time.Second, time.Millisecond)
	geo.resolve(1, b)
	require.Eventually(t, func() bool {
		snap, _ := h.ctrl.Model().Snapshot()
		return snap.Center == b
	}, time.Second, time.Millisecond)

	geo.resolve(0, london)
	require.Eventually(t, func() bool { return len(h.backend.to(gateway.PathListPOIs)) == 1 }, time.Second, time.Millisecond)
	h.loop.Wait()

	center, _ := h.surface.View()
	assert.Equal(t, b, center)
	snap, err := h.ctrl.Model().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, b, snap.Center)
}

func TestRecenter_CancelsSupersededLookup(t *testing.T) {
	geo := &gatedSource{}
	h := newHarness(t, geo)
	h.ctrl.Start(context.Background())
	require.Eventually(t, func() bool { return geo.count() == 1 }, time.Second, time.Millisecond)
	geo.resolve(0, london)
	h.loop.Wait()

	h.ctrl.Recenter()
	require.Eventually(t, func() bool { return geo.count() == 2 }, time.Second, time.Millisecond)
	h.ctrl.Recenter()
	require.Eventually(t, func() bool { return geo.count() == 3 }, time.Second, time.Millisecond)

	assert.ErrorIs(t, geo.ctx(1).Err(), context.Canceled)
	assert.NoError(t, geo.ctx(2).Err())

	geo.resolve(2, london)
	h.loop.Wait()
	assert.Empty(t, h.notes.errorMessages())
}

func TestAddPOI_EmptyDescriptionNoCall(t *testing.T) {
	h := newHarness(t, geolocation.Fixed{Position: london})
	h.start(t)

	h.prompt = ""
	h.on(t, func() { h.surface.ClickMap(domain.Coordinate{Lat: 1, Lng: 1}) })
	h.prompt = "   "
	h.ctrl.AddPOIAt(domain.Coordinate{Lat: 2, Lng: 2})
	h.loop.Wait()

	assert.Equal(t, 2, h.prompts)
	assert.Empty(t, h.backend.to(gateway.PathAddPOI))
	assert.Len(t, h.surface.LayersOf(mapview.MarkerLayer), 1)
}

func TestAddPOI_Success(t *testing.T) {
	h := newHarness(t, geolocation.Fixed{Position: london})
	h.start(t)

	h.prompt = "Nice cafe"
	at := domain.Coordinate{Lat: 51.52, Lng: -0.1}
	h.on(t, func() { h.surface.ClickMap(at) })

	reqs := h.backend.to(gateway.PathAddPOI)
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{"lat": 51.52, "lng": -0.1, "description": "Nice cafe"}, reqs[0].Body)

	markers := h.surface.LayersOf(mapview.MarkerLayer)
	require.Len(t, markers, 2)
	assert.Equal(t, at, markers[1].Position)
	assert.Equal(t, "Nice cafe", markers[1].PopupText)
	assert.Equal(t, []string{MsgPOIAdded}, h.notes.infoMessages())
}

func TestAddPOI_FailedStatusLeavesMapUnchanged(t *testing.T) {
	h := newHarness(t, geolocation.Fixed{Position: london})
	h.backend.addStatus = "fail"
	h.start(t)
	before := h.surface.Layers()

	h.prompt = "Nice cafe"
	h.on(t, func() { h.surface.ClickMap(domain.Coordinate{Lat: 51.52, Lng: -0.1}) })

	assert.Len(t, h.backend.to(gateway.PathAddPOI), 1)
	assert.Equal(t, before, h.surface.Layers())
	assert.Equal(t, []string{MsgPOIFailed}, h.notes.errorMessages())
	assert.ErrorIs(t, h.notes.errs[0], domain.ErrRequestFailed)
}

func TestAddPOI_ClicksOnControlsDoNotPrompt(t *testing.T) {
	h := newHarness(t, geolocation.Fixed{Position: london})
	h.start(t)
	h.prompt = "x"

	marker, _ := h.ctrl.Binding().Marker()
	circle, _ := h.ctrl.Binding().Circle()
	edit, _ := h.ctrl.Binding().EditControl()
	popupID, _ := h.ctrl.Popup().Popup()
	h.on(t, func() {
		require.NoError(t, h.surface.ClickLayer(marker))
		require.NoError(t, h.surface.ClickLayer(circle))
		require.NoError(t, h.surface.ClickControl(edit))
		require.NoError(t, h.surface.ClickPopupAction(popupID))
	})

	assert.Zero(t, h.prompts)
	assert.Empty(t, h.backend.to(gateway.PathAddPOI))
}

func TestSearch_GeolocationFailureUsesZeroOrigin(t *testing.T) {
	var calls atomic.Int32
	geo := geolocation.Func(func(context.Context) (domain.Coordinate, error) {
		if calls.Add(1) == 1 {
			return london, nil
		}
		return domain.Coordinate{}, errors.New("denied")
	})
	h := newHarness(t, geo)
	h.start(t)

	circle, _ := h.ctrl.Binding().Circle()
	h.on(t, func() {
		require.NoError(t, h.ctrl.Model().EnterEditMode())
		require.NoError(t, h.surface.Resize(circle, 2500.4))
	})
	id, _ := h.ctrl.Popup().Popup()
	p, _ := h.surface.Popup(id)
	assert.Contains(t, p.Content.Text, "2500")

	h.ctrl.Search("coffee")
	h.loop.Wait()

	reqs := h.backend.to(gateway.PathSearch)
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{"query": "coffee", "lat": 0.0, "lng": 0.0, "radius": 2500.0}, reqs[0].Body)
	assert.Equal(t, []string{"<p>ok</p>"}, h.results)
}

func TestSearch_WithoutAreaUsesDefaultRadius(t *testing.T) {
	h := newHarness(t, geolocation.Unsupported{})
	h.start(t)

	h.ctrl.Search("parks")
	h.loop.Wait()

	reqs := h.backend.to(gateway.PathSearch)
	require.Len(t, reqs, 1)
	assert.Equal(t, 1000.0, reqs[0].Body["radius"])
}

func TestSearch_EmptyQuery(t *testing.T) {
	h := newHarness(t, geolocation.Fixed{Position: london})
	h.start(t)

	h.ctrl.Search("  ")
	h.loop.Wait()

	assert.Empty(t, h.backend.to(gateway.PathSearch))
	assert.Equal(t, []string{MsgEmptyQuery}, h.notes.errorMessages())
}

func TestSearch_FailureShowsMessage(t *testing.T) {
	h := newHarness(t, geolocation.Fixed{Position: london})
	h.start(t)
	h.backend.mu.Lock()
	h.backend.searchErr = true
	h.backend.mu.Unlock()

	h.ctrl.Search("coffee")
	h.loop.Wait()

	assert.Equal(t, []string{MsgSearchFailed}, h.results)
	assert.Equal(t, []string{MsgSearchFailed}, h.notes.errorMessages())
}

func TestSend_PopupButtonSendsCurrentArea(t *testing.T) {
	h := newHarness(t, geolocation.Fixed{Position: london})
	h.start(t)

	h.on(t, func() { require.NoError(t, h.ctrl.Model().SetRadius(1800)) })
	id, _ := h.ctrl.Popup().Popup()
	h.on(t, func() { require.NoError(t, h.surface.ClickPopupAction(id)) })

	reqs := h.backend.to(gateway.PathSendLocation)
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{"lat": 51.5, "lng": -0.09, "radius": 1800.0}, reqs[0].Body)
	assert.Equal(t, []string{MsgSent}, h.notes.infoMessages())
}

func TestSend_WithoutArea(t *testing.T) {
	h := newHarness(t, geolocation.Unsupported{})
	h.start(t)

	h.ctrl.SendArea()
	h.loop.Wait()

	assert.Empty(t, h.backend.to(gateway.PathSendLocation))
	assert.Contains(t, h.notes.errorMessages(), MsgNoLocation)
}

func TestResize_InvalidRadiusNotifies(t *testing.T) {
	h := newHarness(t, geolocation.Fixed{Position: london})
	h.start(t)

	circle, _ := h.ctrl.Binding().Circle()
	h.on(t, func() {
		require.NoError(t, h.ctrl.Model().EnterEditMode())
		require.NoError(t, h.surface.Resize(circle, 0.4))
	})

	assert.Equal(t, 1000, h.ctrl.Model().Radius())
	assert.Equal(t, []string{MsgInvalidRadius}, h.notes.errorMessages())
}
