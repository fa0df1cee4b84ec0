package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameramfd/extension/internal/model"
)

func TestGetOrCreate(t *testing.T) {
	r := New()

	s, existed := r.GetOrCreate("DG-01", 0)
	require.NotNil(t, s)
	assert.False(t, existed)
	assert.Equal(t, model.StateAwaitingOwnerOrConfig, s.State)
	assert.Equal(t, 1, s.Len())

	c := s.CurrentCamera()
	assert.Equal(t, 40.0, c.FOV)
	assert.True(t, c.Control.ChangeRot)

	again, existed := r.GetOrCreate("DG-01", 0)
	assert.True(t, existed)
	assert.Same(t, s, again)

	other, existed := r.GetOrCreate("DG-01", 1)
	assert.False(t, existed)
	assert.NotSame(t, s, other)
}

func TestGetMissing(t *testing.T) {
	r := New()
	_, ok := r.Get("nobody", 0)
	assert.False(t, ok)
}

func TestRemoveOwner(t *testing.T) {
	r := New()
	r.GetOrCreate("a", 0)
	r.GetOrCreate("a", 1)
	r.GetOrCreate("b", 0)

	assert.Equal(t, 2, r.Remove("a"))
	assert.Equal(t, 1, r.Len())
	_, ok := r.Get("b", 0)
	assert.True(t, ok)
	assert.Equal(t, []Key{{Owner: "b", Slot: 0}}, r.Keys())
}

func TestClearAll(t *testing.T) {
	r := New()
	r.GetOrCreate("a", 0)
	r.GetOrCreate("b", 3)
	r.ClearAll()
	assert.Equal(t, 0, r.Len())
}

func TestPutReplaces(t *testing.T) {
	r := New()
	r.GetOrCreate("a", 0)

	s := model.NewCameraSet()
	s.State = model.StateReady
	r.Put("a", 0, s)

	got, ok := r.Get("a", 0)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestConcurrentGetOrCreate(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	sets := make([]*model.CameraSet, 16)
	for i := range sets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sets[i], _ = r.GetOrCreate("shared", 0)
		}(i)
	}
	wg.Wait()

	for _, s := range sets {
		assert.Same(t, sets[0], s)
	}
	assert.Equal(t, 1, r.Len())
}
