package mapview

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/locallens/internal/core/domain"
)

// Layer is the state of one drawn layer on a MemorySurface.
type Layer struct {
	ID          LayerID
	Kind        LayerKind
	Position    domain.Coordinate
	Radius      float64
	Interactive bool
	PopupText   string
}

// Control is the state of one control on a MemorySurface.
type Control struct {
	ID      ControlID
	Kind    ControlKind
	Label   string
	Target  LayerID
	Options EditOptions
	Editing bool

	onClick func()
}

// Popup is the state of one popup on a MemorySurface.
type Popup struct {
	ID      PopupID
	Anchor  LayerID
	Content PopupContent
	Open    bool
	Renders int
}

// MemorySurface is a headless Surface. It keeps layers, controls and popups
// in memory and lets callers simulate gestures.
type MemorySurface struct {
	mu       sync.Mutex
	center   domain.Coordinate
	zoom     int
	layers   map[LayerID]*Layer
	controls map[ControlID]*Control
	popups   map[PopupID]*Popup
	nextID   int

	mapClick  []func(domain.Coordinate)
	editStart []func(ControlID)
	editStop  []func(ControlID)
	resized   []func(LayerID, float64)
}

// NewMemorySurface returns an empty surface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{
		layers:   make(map[LayerID]*Layer),
		controls: make(map[ControlID]*Control),
		popups:   make(map[PopupID]*Popup),
	}
}

func (s *MemorySurface) id() int {
	s.nextID++
	return s.nextID
}

func (s *MemorySurface) SetView(center domain.Coordinate, zoom int) {
	s.mu.Lock()
	s.center, s.zoom = center, zoom
	s.mu.Unlock()
}

func (s *MemorySurface) AddMarker(at domain.Coordinate, interactive bool) LayerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := LayerID(s.id())
	s.layers[id] = &Layer{ID: id, Kind: MarkerLayer, Position: at, Interactive: interactive}
	return id
}

func (s *MemorySurface) AddCircle(center domain.Coordinate, radiusMeters float64, interactive bool) LayerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := LayerID(s.id())
	s.layers[id] = &Layer{ID: id, Kind: CircleLayer, Position: center, Radius: radiusMeters, Interactive: interactive}
	return id
}

func (s *MemorySurface) SetCircleRadius(id LayerID, radiusMeters float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.layers[id]; ok && l.Kind == CircleLayer {
		l.Radius = radiusMeters
	}
}

func (s *MemorySurface) BindPopup(id LayerID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.layers[id]; ok {
		l.PopupText = text
	}
}

// RemoveLayer detaches the layer and discards any popup anchored to it.
func (s *MemorySurface) RemoveLayer(id LayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layers, id)
	for pid, p := range s.popups {
		if p.Anchor == id {
			delete(s.popups, pid)
		}
	}
}

func (s *MemorySurface) AddEditControl(target LayerID, opts EditOptions) ControlID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ControlID(s.id())
	s.controls[id] = &Control{ID: id, Kind: EditControl, Target: target, Options: opts}
	return id
}

func (s *MemorySurface) SetEditing(id ControlID, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.controls[id]; ok && c.Kind == EditControl {
		c.Editing = on
	}
}

func (s *MemorySurface) AddButtonControl(label string, onClick func()) ControlID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ControlID(s.id())
	s.controls[id] = &Control{ID: id, Kind: ButtonControl, Label: label, onClick: onClick}
	return id
}

func (s *MemorySurface) RemoveControl(id ControlID) {
	s.mu.Lock()
	delete(s.controls, id)
	s.mu.Unlock()
}

func (s *MemorySurface) OpenPopup(anchor LayerID, content PopupContent) PopupID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := PopupID(s.id())
	s.popups[id] = &Popup{ID: id, Anchor: anchor, Content: content, Open: true, Renders: 1}
	return id
}

// UpdatePopup re-renders an open popup in place. Closed popups are left closed.
func (s *MemorySurface) UpdatePopup(id PopupID, content PopupContent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.popups[id]; ok && p.Open {
		p.Content = content
		p.Renders++
	}
}

func (s *MemorySurface) IsPopupOpen(id PopupID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.popups[id]
	return ok && p.Open
}

func (s *MemorySurface) OnMapClick(fn func(domain.Coordinate)) {
	s.mu.Lock()
	s.mapClick = append(s.mapClick, fn)
	s.mu.Unlock()
}

func (s *MemorySurface) OnEditStart(fn func(ControlID)) {
	s.mu.Lock()
	s.editStart = append(s.editStart, fn)
	s.mu.Unlock()
}

func (s *MemorySurface) OnEditStop(fn func(ControlID)) {
	s.mu.Lock()
	s.editStop = append(s.editStop, fn)
	s.mu.Unlock()
}

func (s *MemorySurface) OnResized(fn func(LayerID, float64)) {
	s.mu.Lock()
	s.resized = append(s.resized, fn)
	s.mu.Unlock()
}

// ClickMap simulates a click on empty map at the given position.
func (s *MemorySurface) ClickMap(at domain.Coordinate) {
	s.mu.Lock()
	handlers := slices.Clone(s.mapClick)
	s.mu.Unlock()
	for _, fn := range handlers {
		fn(at)
	}
}

// ClickLayer simulates a click on a layer. Interactive layers consume the
// click; anything else falls through to the map at the layer's position.
func (s *MemorySurface) ClickLayer(id LayerID) error {
	s.mu.Lock()
	l, ok := s.layers[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("layer %d not on map", id)
	}
	interactive, at := l.Interactive, l.Position
	s.mu.Unlock()

	if !interactive {
		s.ClickMap(at)
	}
	return nil
}

// ClickControl simulates activating a control. The click never reaches the map.
func (s *MemorySurface) ClickControl(id ControlID) error {
	s.mu.Lock()
	c, ok := s.controls[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("control %d not on map", id)
	}
	kind, onClick, editing := c.Kind, c.onClick, c.Editing
	start, stop := slices.Clone(s.editStart), slices.Clone(s.editStop)
	s.mu.Unlock()

	switch {
	case kind == ButtonControl && onClick != nil:
		onClick()
	case kind == EditControl && !editing:
		for _, fn := range start {
			fn(id)
		}
	case kind == EditControl:
		for _, fn := range stop {
			fn(id)
		}
	}
	return nil
}

// ClickPopupAction simulates pressing the action button of an open popup.
func (s *MemorySurface) ClickPopupAction(id PopupID) error {
	s.mu.Lock()
	p, ok := s.popups[id]
	if !ok || !p.Open {
		s.mu.Unlock()
		return fmt.Errorf("popup %d not open", id)
	}
	action := p.Content.OnAction
	s.mu.Unlock()

	if action == nil {
		return fmt.Errorf("popup %d has no action", id)
	}
	action()
	return nil
}

// ClosePopup simulates the user dismissing a popup.
func (s *MemorySurface) ClosePopup(id PopupID) {
	s.mu.Lock()
	if p, ok := s.popups[id]; ok {
		p.Open = false
	}
	s.mu.Unlock()
}

// Resize simulates a completed resize gesture on a circle. The circle must be
// the target of an edit control that is currently editing.
func (s *MemorySurface) Resize(id LayerID, radiusMeters float64) error {
	s.mu.Lock()
	l, ok := s.layers[id]
	if !ok || l.Kind != CircleLayer {
		s.mu.Unlock()
		return fmt.Errorf("circle %d not on map", id)
	}
	editable := false
	for _, c := range s.controls {
		if c.Kind == EditControl && c.Target == id && c.Editing {
			editable = true
			break
		}
	}
	if !editable {
		s.mu.Unlock()
		return fmt.Errorf("circle %d is not in edit mode", id)
	}
	l.Radius = radiusMeters
	handlers := slices.Clone(s.resized)
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(id, radiusMeters)
	}
	return nil
}

// View returns the current center and zoom.
func (s *MemorySurface) View() (domain.Coordinate, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center, s.zoom
}

// Layers returns copies of the attached layers, oldest first.
func (s *MemorySurface) Layers() []Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Layer, 0, len(s.layers))
	for _, l := range s.layers {
		out = append(out, *l)
	}
	slices.SortFunc(out, func(a, b Layer) int { return int(a.ID) - int(b.ID) })
	return out
}

// LayersOf returns the attached layers of one kind, oldest first.
func (s *MemorySurface) LayersOf(kind LayerKind) []Layer {
	var out []Layer
	for _, l := range s.Layers() {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}

// Layer returns one attached layer.
func (s *MemorySurface) Layer(id LayerID) (Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[id]
	if !ok {
		return Layer{}, false
	}
	return *l, true
}

// Controls returns copies of the attached controls, oldest first.
func (s *MemorySurface) Controls() []Control {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Control, 0, len(s.controls))
	for _, c := range s.controls {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b Control) int { return int(a.ID) - int(b.ID) })
	return out
}

// ControlsOf returns the attached controls of one kind, oldest first.
func (s *MemorySurface) ControlsOf(kind ControlKind) []Control {
	var out []Control
	for _, c := range s.Controls() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Popup returns the state of a popup, open or closed.
func (s *MemorySurface) Popup(id PopupID) (Popup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.popups[id]
	if !ok {
		return Popup{}, false
	}
	return *p, true
}

// OpenPopups returns every open popup, oldest first.
func (s *MemorySurface) OpenPopups() []Popup {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Popup
	for _, p := range s.popups {
		if p.Open {
			out = append(out, *p)
		}
	}
	slices.SortFunc(out, func(a, b Popup) int { return int(a.ID) - int(b.ID) })
	return out
}

// FeatureCollection exports the attached layers as GeoJSON points. Circles
// carry their radius in meters as a property, as Leaflet's toGeoJSON does.
func (s *MemorySurface) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range s.Layers() {
		f := geojson.NewFeature(orb.Point{l.Position.Lng, l.Position.Lat})
		f.ID = int(l.ID)
		f.Properties["kind"] = l.Kind.String()
		if l.Kind == CircleLayer {
			f.Properties["radius"] = l.Radius
		}
		if l.PopupText != "" {
			f.Properties["popup"] = l.PopupText
		}
		fc.Append(f)
	}
	return fc
}

// MarshalGeoJSON renders FeatureCollection as JSON.
func (s *MemorySurface) MarshalGeoJSON() ([]byte, error) {
	return json.Marshal(s.FeatureCollection())
}
