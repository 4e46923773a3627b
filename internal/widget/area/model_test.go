package area

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/locallens/internal/core/domain"
)

func TestModel_NoAreaBeforeSetCenter(t *testing.T) {
	m := NewModel()

	_, err := m.Snapshot()
	assert.ErrorIs(t, err, domain.ErrNoActiveArea)
	assert.ErrorIs(t, m.SetRadius(500), domain.ErrNoActiveArea)
	assert.ErrorIs(t, m.EnterEditMode(), domain.ErrNoActiveArea)
	assert.ErrorIs(t, m.ExitEditMode(), domain.ErrNoActiveArea)
	assert.False(t, m.Active())
	assert.Equal(t, domain.DefaultRadiusMeters, m.Radius())
}

func TestModel_SetCenterSnapshot(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.SetCenter(domain.Coordinate{Lat: 51.5, Lng: -0.09}))

	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, domain.AreaSnapshot{Center: domain.Coordinate{Lat: 51.5, Lng: -0.09}, RadiusMeters: 1000}, snap)
}

func TestModel_SetCenterResetsRadiusAndEditing(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.SetCenter(domain.Coordinate{Lat: 1, Lng: 1}))
	require.NoError(t, m.SetRadius(4200))
	require.NoError(t, m.EnterEditMode())

	require.NoError(t, m.SetCenter(domain.Coordinate{Lat: 2, Lng: 2}))
	assert.Equal(t, 1000, m.Radius())
	assert.False(t, m.Editing())
}

func TestModel_SetCenterRejectsInvalid(t *testing.T) {
	m := NewModel()
	err := m.SetCenter(domain.Coordinate{Lat: 91})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, m.Active())
}

func TestModel_RadiusRoundTrip(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.SetCenter(domain.Coordinate{}))

	for _, r := range []int{1, 999, 1000, 2500, 1 << 30} {
		require.NoError(t, m.SetRadius(r))
		snap, err := m.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, r, snap.RadiusMeters)
	}
}

func TestModel_SetRadiusRejectsNonPositive(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.SetCenter(domain.Coordinate{}))

	assert.ErrorIs(t, m.SetRadius(0), domain.ErrInvalidInput)
	assert.ErrorIs(t, m.SetRadius(-5), domain.ErrInvalidInput)
	assert.Equal(t, 1000, m.Radius())
}

func TestModel_EnterEditModeIdempotent(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.SetCenter(domain.Coordinate{}))

	var changes []Change
	m.Subscribe(func(c Change) { changes = append(changes, c) })

	require.NoError(t, m.EnterEditMode())
	require.NoError(t, m.EnterEditMode())
	assert.True(t, m.Editing())
	assert.Len(t, changes, 1)

	require.NoError(t, m.ExitEditMode())
	require.NoError(t, m.ExitEditMode())
	assert.False(t, m.Editing())
	assert.Len(t, changes, 2)
}

func TestModel_SnapshotIsValue(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.SetCenter(domain.Coordinate{Lat: 10, Lng: 10}))
	snap, _ := m.Snapshot()

	require.NoError(t, m.SetRadius(50))
	assert.Equal(t, 1000, snap.RadiusMeters)
}

func TestModel_NotifiesInOrder(t *testing.T) {
	m := NewModel()
	var kinds []ChangeKind
	unsub := m.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })

	require.NoError(t, m.SetCenter(domain.Coordinate{Lat: 3, Lng: 4}))
	require.NoError(t, m.SetRadius(1500))
	require.NoError(t, m.EnterEditMode())
	assert.Equal(t, []ChangeKind{CenterChanged, RadiusChanged, EditingChanged}, kinds)

	unsub()
	require.NoError(t, m.SetRadius(1600))
	assert.Len(t, kinds, 3)
}

func TestModel_ObserverMayReadModel(t *testing.T) {
	m := NewModel()
	var seen int
	m.Subscribe(func(Change) { seen = m.Radius() })

	require.NoError(t, m.SetCenter(domain.Coordinate{}))
	require.NoError(t, m.SetRadius(777))
	assert.Equal(t, 777, seen)
}
