// Package controller boots the map widget and runs every user interaction:
// locating, POI creation, search and forwarding the area to the backend.
//
// All state is touched only from tasks on the event loop. Geolocation and
// backend calls run off-loop and resume with a continuation on the loop.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/widget/area"
	"github.com/samirrijal/locallens/internal/widget/eventloop"
	"github.com/samirrijal/locallens/internal/widget/gateway"
	"github.com/samirrijal/locallens/internal/widget/geolocation"
	"github.com/samirrijal/locallens/internal/widget/mapview"
	"github.com/samirrijal/locallens/internal/widget/popup"
)

// FallbackCenter is where the map starts when no position is available.
var FallbackCenter = domain.Coordinate{Lat: 51.505, Lng: -0.09}

// User-visible messages.
const (
	MsgLocationFallback  = "Couldn't get your location. Using default location."
	MsgLocationFailed    = "Couldn't get your location."
	MsgPromptDescription = "Enter POI description:"
	MsgPOIAdded          = "POI added successfully!"
	MsgPOIFailed         = "Failed to add POI. Please try again."
	MsgEmptyQuery        = "Please enter a search query."
	MsgSearchFailed      = "An error occurred during search. Please try again."
	MsgSent              = "Data sent to LLM successfully!"
	MsgSendFailed        = "Failed to send data to LLM."
	MsgNoLocation        = "Please set your location first."
	MsgLoadPOIsFailed    = "Couldn't load points of interest."
	MsgInvalidRadius     = "Radius must be at least one meter."
)

// Gateway is the subset of the backend client the controller uses.
type Gateway interface {
	SendLocation(ctx context.Context, snap domain.AreaSnapshot) (gateway.SendAck, error)
	AddPOI(ctx context.Context, at domain.Coordinate, description string) error
	Search(ctx context.Context, q domain.SearchQuery) (string, error)
	ListPOIs(ctx context.Context) ([]domain.PointOfInterest, error)
}

// Config wires a Controller.
type Config struct {
	Loop        *eventloop.Loop
	Geolocation geolocation.Source
	Gateway     Gateway
	Surface     mapview.Surface
	Notifier    Notifier
	Prompter    Prompter
	// Results receives rendered search results, or the failure text.
	Results func(markup string)
	Zoom    int
}

// Controller owns the area model and drives the widget.
type Controller struct {
	ctx     context.Context
	loop    *eventloop.Loop
	geo     geolocation.Source
	gw      Gateway
	surface mapview.Surface
	notify  Notifier
	prompt  Prompter
	results func(string)
	zoom    int

	model   *area.Model
	binding *mapview.Binding
	popup   *popup.Presenter

	generation uint64
	cancelLoc  context.CancelFunc
	wired      bool
	pois       []mapview.LayerID
}

// New builds the model, view binding and popup presenter. Nothing happens
// until Start.
func New(cfg Config) *Controller {
	c := &Controller{
		ctx:     context.Background(),
		loop:    cfg.Loop,
		geo:     cfg.Geolocation,
		gw:      cfg.Gateway,
		surface: cfg.Surface,
		notify:  cfg.Notifier,
		prompt:  cfg.Prompter,
		results: cfg.Results,
		zoom:    cfg.Zoom,
		model:   area.NewModel(),
	}
	if c.loop == nil {
		c.loop = eventloop.New()
	}
	if c.geo == nil {
		c.geo = geolocation.Unsupported{}
	}
	if c.notify == nil {
		c.notify = SlogNotifier{}
	}
	if c.zoom == 0 {
		c.zoom = mapview.DefaultZoom
	}
	c.binding = mapview.NewBinding(c.surface, c.model,
		mapview.WithZoom(c.zoom),
		mapview.WithErrorHandler(c.bindingError),
	)
	c.popup = popup.New(c.surface, c.binding, c.model, c.send, c.sendError)
	return c
}

// Model exposes the area of interest for reads.
func (c *Controller) Model() *area.Model { return c.model }

// Binding exposes the view binding.
func (c *Controller) Binding() *mapview.Binding { return c.binding }

// Popup exposes the area popup presenter.
func (c *Controller) Popup() *popup.Presenter { return c.popup }

// Loop returns the event loop the controller runs on.
func (c *Controller) Loop() *eventloop.Loop { return c.loop }

// Start runs the bootstrap: locate, then either mark the position or fall
// back to FallbackCenter without any marker. Features are wired in both cases.
func (c *Controller) Start(ctx context.Context) {
	c.loop.Post(func() {
		c.ctx = ctx
		gen, locCtx := c.nextGeneration()
		c.loop.Async(func() func() {
			pos, err := c.geo.CurrentPosition(locCtx)
			return func() { c.bootstrap(gen, pos, err) }
		})
	})
}

func (c *Controller) bootstrap(gen uint64, pos domain.Coordinate, err error) {
	if gen != c.generation {
		slog.Debug("discarding superseded startup location", "generation", gen, "current", c.generation)
		c.wire()
		return
	}
	if err != nil {
		c.notify.Error(MsgLocationFallback, err)
		c.surface.SetView(FallbackCenter, c.zoom)
		c.wire()
		return
	}

	c.surface.SetView(pos, c.zoom)
	c.wire()
	if err := c.model.SetCenter(pos); err != nil {
		c.notify.Error(MsgLocationFailed, err)
	}
}

// wire performs the one-time feature setup shared by both bootstrap paths.
func (c *Controller) wire() {
	if c.wired {
		return
	}
	c.wired = true
	c.binding.InstallRecenter(c.recenter)
	c.surface.OnMapClick(c.addPOI)
	c.loadPOIs()
	slog.Debug("map initialized")
}

// Recenter re-runs the locate flow. A newer request supersedes any still in flight.
func (c *Controller) Recenter() {
	c.loop.Post(c.recenter)
}

func (c *Controller) recenter() {
	gen, ctx := c.nextGeneration()
	c.loop.Async(func() func() {
		pos, err := c.geo.CurrentPosition(ctx)
		return func() {
			if gen != c.generation {
				slog.Debug("discarding superseded location", "generation", gen, "current", c.generation)
				return
			}
			if err != nil {
				c.notify.Error(MsgLocationFailed, err)
				return
			}
			if err := c.model.SetCenter(pos); err != nil {
				c.notify.Error(MsgLocationFailed, err)
			}
		}
	})
}

// nextGeneration supersedes any locate request still in flight and cancels
// its lookup. The returned context is cancelled by the next generation.
func (c *Controller) nextGeneration() (uint64, context.Context) {
	if c.cancelLoc != nil {
		c.cancelLoc()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelLoc = cancel
	c.generation++
	return c.generation, ctx
}

func (c *Controller) bindingError(err error) {
	if errors.Is(err, domain.ErrInvalidInput) {
		c.notify.Error(MsgInvalidRadius, err)
		return
	}
	c.notify.Error(err.Error(), err)
}

// AddPOIAt runs the POI creation flow for a click at the given position.
func (c *Controller) AddPOIAt(at domain.Coordinate) {
	c.loop.Post(func() { c.addPOI(at) })
}

func (c *Controller) addPOI(at domain.Coordinate) {
	if c.prompt == nil {
		return
	}
	desc, ok := c.prompt.Prompt(c.ctx, MsgPromptDescription)
	if !ok || strings.TrimSpace(desc) == "" {
		slog.Debug("poi creation cancelled", "lat", at.Lat, "lng", at.Lng)
		return
	}

	ctx := c.ctx
	c.loop.Async(func() func() {
		err := c.gw.AddPOI(ctx, at, desc)
		return func() {
			if err != nil {
				c.notify.Error(MsgPOIFailed, err)
				return
			}
			c.addPOIMarker(at, desc)
			c.notify.Info(MsgPOIAdded)
		}
	})
}

func (c *Controller) addPOIMarker(at domain.Coordinate, description string) {
	id := c.surface.AddMarker(at, true)
	c.surface.BindPopup(id, description)
	c.pois = append(c.pois, id)
}

func (c *Controller) loadPOIs() {
	ctx := c.ctx
	c.loop.Async(func() func() {
		pois, err := c.gw.ListPOIs(ctx)
		return func() {
			if err != nil {
				c.notify.Error(MsgLoadPOIsFailed, err)
				return
			}
			for _, p := range pois {
				c.addPOIMarker(p.Coordinate(), p.Description)
			}
			slog.Debug("pois loaded", "count", len(pois))
		}
	})
}

// Search runs a query around the best-effort current position. When
// geolocation fails the origin is (0, 0). The radius is the current area
// radius, or the default when no area exists.
func (c *Controller) Search(query string) {
	c.loop.Post(func() { c.search(query) })
}

func (c *Controller) search(query string) {
	if strings.TrimSpace(query) == "" {
		c.notify.Error(MsgEmptyQuery, domain.ErrInvalidInput)
		return
	}

	ctx := c.ctx
	c.loop.Async(func() func() {
		origin, err := c.geo.CurrentPosition(ctx)
		return func() {
			if err != nil {
				slog.Warn("search without position", "error", err)
				origin = domain.Coordinate{}
			}
			q := domain.SearchQuery{Query: query, Origin: origin, RadiusMeters: c.model.Radius()}
			c.loop.Async(func() func() {
				markup, err := c.gw.Search(ctx, q)
				return func() {
					if err != nil {
						c.notify.Error(MsgSearchFailed, err)
						c.showResults(MsgSearchFailed)
						return
					}
					c.showResults(markup)
				}
			})
		}
	})
}

func (c *Controller) showResults(markup string) {
	if c.results != nil {
		c.results(markup)
	}
}

// SendArea forwards the current area, as the popup button does.
func (c *Controller) SendArea() {
	c.loop.Post(func() {
		snap, err := c.model.Snapshot()
		if err != nil {
			c.sendError(err)
			return
		}
		c.send(snap)
	})
}

func (c *Controller) send(snap domain.AreaSnapshot) {
	ctx := c.ctx
	slog.Debug("sending area", "lat", snap.Center.Lat, "lng", snap.Center.Lng, "radius", snap.RadiusMeters)
	c.loop.Async(func() func() {
		ack, err := c.gw.SendLocation(ctx, snap)
		return func() {
			if err != nil {
				c.notify.Error(MsgSendFailed, err)
				return
			}
			slog.Info("area sent", "status", ack.Status, "id", ack.ID)
			c.notify.Info(MsgSent)
		}
	})
}

func (c *Controller) sendError(err error) {
	if errors.Is(err, domain.ErrNoActiveArea) {
		c.notify.Error(MsgNoLocation, err)
		return
	}
	c.notify.Error(MsgSendFailed, err)
}
