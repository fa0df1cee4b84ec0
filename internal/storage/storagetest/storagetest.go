// Package storagetest checks that a storage.Backend behaves like every other
// one. Backend packages call Run from their tests.
package storagetest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameramfd/extension/internal/storage"
	"github.com/cameramfd/extension/pkg/core"
)

// Open returns a fresh, initialized backend. Run closes it.
type Open func(t *testing.T) storage.Backend

// Snapshot builds a one-camera snapshot labelled label.
func Snapshot(owner string, slot int, label string) *core.Snapshot {
	return &core.Snapshot{
		Owner:    owner,
		Slot:     slot,
		Scenario: "  CCAM 0\n  CLBL " + label + "\n  CURCAM 0\n",
		Current:  0,
		Owned:    slot == 0,
		Cameras:  []core.CameraSummary{{ID: 0, Label: label, FOV: 40}},
		SavedAt:  time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}
}

// Run exercises open's backend through the storage.Backend contract.
func Run(t *testing.T, open Open) {
	cases := []struct {
		name string
		fn   func(*testing.T, storage.Backend)
	}{
		{"LoadMissing", loadMissing},
		{"RoundTrip", roundTrip},
		{"ReplaceSameKey", replaceSameKey},
		{"CallerMutationIsolated", callerMutationIsolated},
		{"ListOrderedBySlot", listOrderedBySlot},
		{"DeleteOwner", deleteOwner},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := open(t)
			defer func() { assert.NoError(t, b.Close()) }()
			c.fn(t, b)
		})
	}
}

func loadMissing(t *testing.T, b storage.Backend) {
	_, err := b.LoadSnapshot("GL-01", 0)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func roundTrip(t *testing.T, b storage.Backend) {
	want := Snapshot("GL-01", 0, "Nose")
	want.Cameras = append(want.Cameras, core.CameraSummary{ID: 3, Label: "Tail", FOV: 65.5})
	want.Current = 3
	require.NoError(t, b.SaveSnapshot(want))

	got, err := b.LoadSnapshot("GL-01", 0)
	require.NoError(t, err)
	assert.Equal(t, want.Owner, got.Owner)
	assert.Equal(t, want.Slot, got.Slot)
	assert.Equal(t, want.Scenario, got.Scenario)
	assert.Equal(t, 3, got.Current)
	assert.True(t, got.Owned)
	assert.Equal(t, want.Cameras, got.Cameras)
	assert.True(t, want.SavedAt.Equal(got.SavedAt), "saved at %v", got.SavedAt)
}

func replaceSameKey(t *testing.T, b storage.Backend) {
	require.NoError(t, b.SaveSnapshot(Snapshot("GL-01", 0, "Nose")))
	require.NoError(t, b.SaveSnapshot(Snapshot("GL-01", 0, "Tail")))

	got, err := b.LoadSnapshot("GL-01", 0)
	require.NoError(t, err)
	assert.Equal(t, "Tail", got.Cameras[0].Label)

	list, err := b.ListSnapshots("GL-01")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func callerMutationIsolated(t *testing.T, b storage.Backend) {
	s := Snapshot("GL-01", 0, "Nose")
	require.NoError(t, b.SaveSnapshot(s))
	s.Cameras[0].Label = "changed"

	got, err := b.LoadSnapshot("GL-01", 0)
	require.NoError(t, err)
	assert.Equal(t, "Nose", got.Cameras[0].Label)
}

func listOrderedBySlot(t *testing.T, b storage.Backend) {
	for _, slot := range []int{2, 0, 1} {
		require.NoError(t, b.SaveSnapshot(Snapshot("GL-01", slot, "s")))
	}
	require.NoError(t, b.SaveSnapshot(Snapshot("GL-02", 0, "other")))

	list, err := b.ListSnapshots("GL-01")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, s := range list {
		assert.Equal(t, i, s.Slot)
	}

	list, err = b.ListSnapshots("nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func deleteOwner(t *testing.T, b storage.Backend) {
	require.NoError(t, b.SaveSnapshot(Snapshot("GL-01", 0, "a")))
	require.NoError(t, b.SaveSnapshot(Snapshot("GL-01", 1, "b")))
	require.NoError(t, b.SaveSnapshot(Snapshot("GL-02", 0, "c")))

	n, err := b.DeleteOwner("GL-01")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = b.LoadSnapshot("GL-01", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = b.LoadSnapshot("GL-02", 0)
	assert.NoError(t, err)

	n, err = b.DeleteOwner("GL-01")
	require.NoError(t, err)
	assert.Zero(t, n)
}
