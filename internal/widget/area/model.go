// Package area holds the single live area of interest: a center, a radius in
// meters and whether the radius circle is being edited.
package area

import (
	"fmt"
	"slices"
	"sync"

	"github.com/samirrijal/locallens/internal/core/domain"
)

// ChangeKind identifies which part of the area changed.
type ChangeKind int

const (
	CenterChanged ChangeKind = iota + 1
	RadiusChanged
	EditingChanged
)

func (k ChangeKind) String() string {
	switch k {
	case CenterChanged:
		return "center"
	case RadiusChanged:
		return "radius"
	case EditingChanged:
		return "editing"
	default:
		return "unknown"
	}
}

// Change is delivered to observers after every mutation.
type Change struct {
	Kind     ChangeKind
	Snapshot domain.AreaSnapshot
	Editing  bool
}

// Observer receives changes synchronously, on the goroutine that mutated the model.
type Observer func(Change)

// Model owns the area of interest. Nothing exists until the first SetCenter.
// Observers run after the lock is released, so they may read the model.
type Model struct {
	mu        sync.Mutex
	active    bool
	center    domain.Coordinate
	radius    int
	editing   bool
	observers map[int]Observer
	nextID    int
}

// NewModel returns a model with no active area.
func NewModel() *Model {
	return &Model{observers: make(map[int]Observer)}
}

// Subscribe registers o and returns a function that removes it.
func (m *Model) Subscribe(o Observer) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = o
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// SetCenter replaces the area. The radius resets to the default and edit mode is cleared.
func (m *Model) SetCenter(c domain.Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.active = true
	m.center = c
	m.radius = domain.DefaultRadiusMeters
	m.editing = false
	ch := m.changeLocked(CenterChanged)
	m.mu.Unlock()

	m.notify(ch)
	return nil
}

// SetRadius sets the radius in meters. Meters must be positive.
func (m *Model) SetRadius(meters int) error {
	if meters <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %d", domain.ErrInvalidInput, meters)
	}
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return domain.ErrNoActiveArea
	}
	m.radius = meters
	ch := m.changeLocked(RadiusChanged)
	m.mu.Unlock()

	m.notify(ch)
	return nil
}

// EnterEditMode exposes the resize handles. Re-entering is a no-op.
func (m *Model) EnterEditMode() error {
	return m.setEditing(true)
}

// ExitEditMode hides the resize handles. Exiting while not editing is a no-op.
func (m *Model) ExitEditMode() error {
	return m.setEditing(false)
}

func (m *Model) setEditing(on bool) error {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return domain.ErrNoActiveArea
	}
	if m.editing == on {
		m.mu.Unlock()
		return nil
	}
	m.editing = on
	ch := m.changeLocked(EditingChanged)
	m.mu.Unlock()

	m.notify(ch)
	return nil
}

// Snapshot returns a copy of the current center and radius.
func (m *Model) Snapshot() (domain.AreaSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return domain.AreaSnapshot{}, domain.ErrNoActiveArea
	}
	return domain.AreaSnapshot{Center: m.center, RadiusMeters: m.radius}, nil
}

// Radius returns the current radius, or the default when no area exists yet.
func (m *Model) Radius() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return domain.DefaultRadiusMeters
	}
	return m.radius
}

// Active reports whether SetCenter has succeeded at least once.
func (m *Model) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Editing reports whether edit mode is on.
func (m *Model) Editing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editing
}

func (m *Model) changeLocked(kind ChangeKind) Change {
	return Change{
		Kind:     kind,
		Snapshot: domain.AreaSnapshot{Center: m.center, RadiusMeters: m.radius},
		Editing:  m.editing,
	}
}

func (m *Model) notify(ch Change) {
	m.mu.Lock()
	ids := make([]int, 0, len(m.observers))
	for id := range m.observers {
		ids = append(ids, id)
	}
	obs := make([]Observer, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		obs = append(obs, m.observers[id])
	}
	m.mu.Unlock()

	for _, o := range obs {
		o(ch)
	}
}
