// Package popup renders the area marker's popup: the current radius and a
// button that forwards the area to the backend.
package popup

import (
	"fmt"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/widget/area"
	"github.com/samirrijal/locallens/internal/widget/mapview"
)

// SendLabel is the caption of the popup's action button.
const SendLabel = "Send to LLM"

// Text renders the popup body for a radius.
func Text(radiusMeters int) string {
	return fmt.Sprintf("Radius: %d meters", radiusMeters)
}

// SendFunc receives the area snapshot read when the button is pressed.
type SendFunc func(domain.AreaSnapshot)

// Presenter keeps the marker popup in sync with the model. It must be created
// after the Binding so that the new marker exists when a center change arrives.
type Presenter struct {
	surface mapview.Surface
	binding *mapview.Binding
	model   *area.Model
	send    SendFunc
	onError func(error)

	popup mapview.PopupID
	has   bool

	unsubscribe func()
}

// New subscribes a presenter to model.
func New(s mapview.Surface, b *mapview.Binding, m *area.Model, send SendFunc, onError func(error)) *Presenter {
	p := &Presenter{surface: s, binding: b, model: m, send: send, onError: onError}
	p.unsubscribe = m.Subscribe(p.apply)
	return p
}

// Close stops following the model.
func (p *Presenter) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}

// Popup returns the current popup, if one was ever opened for the current area.
func (p *Presenter) Popup() (mapview.PopupID, bool) {
	return p.popup, p.has
}

// Open shows the popup on the current marker, as when the user clicks it.
func (p *Presenter) Open() error {
	if _, err := p.model.Snapshot(); err != nil {
		return err
	}
	if p.has && p.surface.IsPopupOpen(p.popup) {
		return nil
	}
	p.open()
	return nil
}

func (p *Presenter) apply(ch area.Change) {
	if ch.Kind == area.CenterChanged {
		p.open()
		return
	}
	if p.has && p.surface.IsPopupOpen(p.popup) {
		p.surface.UpdatePopup(p.popup, p.content(ch.Snapshot.RadiusMeters))
	}
}

func (p *Presenter) open() {
	marker, ok := p.binding.Marker()
	if !ok {
		return
	}
	p.popup = p.surface.OpenPopup(marker, p.content(p.model.Radius()))
	p.has = true
}

func (p *Presenter) content(radius int) mapview.PopupContent {
	return mapview.PopupContent{
		Text:        Text(radius),
		ActionLabel: SendLabel,
		OnAction:    p.activate,
	}
}

// activate reads the snapshot at click time, never the one the popup was built with.
func (p *Presenter) activate() {
	snap, err := p.model.Snapshot()
	if err != nil {
		if p.onError != nil {
			p.onError(err)
		}
		return
	}
	if p.send != nil {
		p.send(snap)
	}
}
