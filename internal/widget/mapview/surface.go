// Package mapview mirrors the area of interest onto a map surface: one
// marker, one circle and one edit control per area, plus the recenter control.
package mapview

import "github.com/samirrijal/locallens/internal/core/domain"

// DefaultZoom is the zoom level used whenever the view recenters.
const DefaultZoom = 13

type (
	LayerID   int
	ControlID int
	PopupID   int
)

// LayerKind distinguishes the drawable layer types.
type LayerKind int

const (
	MarkerLayer LayerKind = iota + 1
	CircleLayer
)

func (k LayerKind) String() string {
	switch k {
	case MarkerLayer:
		return "marker"
	case CircleLayer:
		return "circle"
	default:
		return "unknown"
	}
}

// ControlKind distinguishes map controls.
type ControlKind int

const (
	EditControl ControlKind = iota + 1
	ButtonControl
)

// EditOptions configures an edit control. Draw tools are never offered.
type EditOptions struct {
	Remove bool
}

// PopupContent is the rendered body of a popup with an optional action button.
type PopupContent struct {
	Text        string
	ActionLabel string
	OnAction    func()
}

// Surface is the map the widget draws on. Gesture callbacks are delivered on
// the widget's event loop. Clicks on controls, interactive layers and popups
// are consumed by them and never reach the map click handler.
//
// RemoveLayer must also close every popup anchored to the removed layer;
// IsPopupOpen reports false for such popups and UpdatePopup ignores them.
type Surface interface {
	SetView(center domain.Coordinate, zoom int)

	AddMarker(at domain.Coordinate, interactive bool) LayerID
	AddCircle(center domain.Coordinate, radiusMeters float64, interactive bool) LayerID
	SetCircleRadius(id LayerID, radiusMeters float64)
	BindPopup(id LayerID, text string)
	RemoveLayer(id LayerID)

	AddEditControl(target LayerID, opts EditOptions) ControlID
	SetEditing(id ControlID, on bool)
	AddButtonControl(label string, onClick func()) ControlID
	RemoveControl(id ControlID)

	OpenPopup(anchor LayerID, content PopupContent) PopupID
	UpdatePopup(id PopupID, content PopupContent)
	IsPopupOpen(id PopupID) bool

	OnMapClick(fn func(at domain.Coordinate))
	OnEditStart(fn func(ControlID))
	OnEditStop(fn func(ControlID))
	// OnResized fires when a resize gesture completes, with the raw radius.
	OnResized(fn func(layer LayerID, radiusMeters float64))
}
