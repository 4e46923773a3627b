package mapview

import (
	"log/slog"
	"math"

	"github.com/samirrijal/locallens/internal/widget/area"
)

// RecenterLabel is the text of the recenter control.
const RecenterLabel = "📍"

// Binding keeps exactly one marker, circle and edit control on the surface
// for the current area. It is the only path from resize gestures to the model.
type Binding struct {
	surface Surface
	model   *area.Model
	zoom    int
	onError func(error)

	attached bool
	marker   LayerID
	circle   LayerID
	edit     ControlID

	recenter    ControlID
	hasRecenter bool

	unsubscribe func()
}

// Option configures a Binding.
type Option func(*Binding)

// WithZoom sets the zoom used when the view follows a new center.
func WithZoom(z int) Option {
	return func(b *Binding) { b.zoom = z }
}

// WithErrorHandler receives rejected resize gestures.
func WithErrorHandler(fn func(error)) Option {
	return func(b *Binding) { b.onError = fn }
}

// NewBinding subscribes to model and registers the surface's edit gestures.
func NewBinding(s Surface, m *area.Model, opts ...Option) *Binding {
	b := &Binding{surface: s, model: m, zoom: DefaultZoom}
	for _, o := range opts {
		o(b)
	}
	b.unsubscribe = m.Subscribe(b.apply)
	s.OnResized(b.resized)
	s.OnEditStart(func(id ControlID) {
		if b.attached && id == b.edit {
			b.report(m.EnterEditMode())
		}
	})
	s.OnEditStop(func(id ControlID) {
		if b.attached && id == b.edit {
			b.report(m.ExitEditMode())
		}
	})
	return b
}

// Close stops mirroring the model. Layers already drawn stay on the surface.
func (b *Binding) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

// Marker returns the current area marker, if an area is shown.
func (b *Binding) Marker() (LayerID, bool) {
	return b.marker, b.attached
}

// Circle returns the current radius circle, if an area is shown.
func (b *Binding) Circle() (LayerID, bool) {
	return b.circle, b.attached
}

// EditControl returns the edit control of the current circle, if an area is shown.
func (b *Binding) EditControl() (ControlID, bool) {
	return b.edit, b.attached
}

// InstallRecenter adds the recenter control once. Later calls return the existing control.
func (b *Binding) InstallRecenter(onClick func()) ControlID {
	if !b.hasRecenter {
		b.recenter = b.surface.AddButtonControl(RecenterLabel, onClick)
		b.hasRecenter = true
	}
	return b.recenter
}

func (b *Binding) apply(ch area.Change) {
	switch ch.Kind {
	case area.CenterChanged:
		b.detach()
		c := ch.Snapshot.Center
		b.surface.SetView(c, b.zoom)
		b.marker = b.surface.AddMarker(c, true)
		b.circle = b.surface.AddCircle(c, float64(ch.Snapshot.RadiusMeters), true)
		b.edit = b.surface.AddEditControl(b.circle, EditOptions{Remove: false})
		b.attached = true
	case area.RadiusChanged:
		if b.attached {
			b.surface.SetCircleRadius(b.circle, float64(ch.Snapshot.RadiusMeters))
		}
	case area.EditingChanged:
		if b.attached {
			b.surface.SetEditing(b.edit, ch.Editing)
		}
	}
}

func (b *Binding) detach() {
	if !b.attached {
		return
	}
	b.surface.RemoveLayer(b.marker)
	b.surface.RemoveLayer(b.circle)
	b.surface.RemoveControl(b.edit)
	b.attached = false
}

func (b *Binding) resized(layer LayerID, radiusMeters float64) {
	if !b.attached || layer != b.circle {
		return
	}
	meters := int(math.Round(radiusMeters))
	slog.Debug("area resized", "raw", radiusMeters, "meters", meters)
	if err := b.model.SetRadius(meters); err != nil {
		b.surface.SetCircleRadius(b.circle, float64(b.model.Radius()))
		b.report(err)
	}
}

func (b *Binding) report(err error) {
	if err == nil {
		return
	}
	if b.onError != nil {
		b.onError(err)
		return
	}
	slog.Warn("map binding", "error", err)
}

