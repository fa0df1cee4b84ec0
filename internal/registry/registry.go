// Package registry holds the camera sets shared by all instruments of a session.
package registry

import (
	"sync"

	"github.com/cameramfd/extension/internal/model"
)

// Key identifies the camera set of one instrument slot on one owner.
type Key struct {
	Owner string
	Slot  int
}

// Registry maps (owner, slot) to camera sets. Instruments opened on the same key
// share one set, so a camera set survives instruments being closed and reopened.
type Registry struct {
	m    sync.Mutex
	sets map[Key]*model.CameraSet
}

func New() *Registry {
	return &Registry{
		sets: make(map[Key]*model.CameraSet),
	}
}

// GetOrCreate returns the set for (owner, slot). A new set holds one default
// camera and waits for its owner or a config file. The bool reports whether
// the set already existed.
func (r *Registry) GetOrCreate(owner string, slot int) (*model.CameraSet, bool) {
	r.m.Lock()
	defer r.m.Unlock()

	k := Key{Owner: owner, Slot: slot}
	if s, ok := r.sets[k]; ok {
		return s, true
	}
	s := model.NewCameraSet()
	s.State = model.StateAwaitingOwnerOrConfig
	r.sets[k] = s
	return s, false
}

// Get returns the set for (owner, slot) if it exists.
func (r *Registry) Get(owner string, slot int) (*model.CameraSet, bool) {
	r.m.Lock()
	defer r.m.Unlock()
	s, ok := r.sets[Key{Owner: owner, Slot: slot}]
	return s, ok
}

// Put installs s for (owner, slot), replacing any existing set.
func (r *Registry) Put(owner string, slot int, s *model.CameraSet) {
	r.m.Lock()
	defer r.m.Unlock()
	r.sets[Key{Owner: owner, Slot: slot}] = s
}

// Remove drops every set of owner and returns how many were removed.
func (r *Registry) Remove(owner string) int {
	r.m.Lock()
	defer r.m.Unlock()
	n := 0
	for k := range r.sets {
		if k.Owner == owner {
			delete(r.sets, k)
			n++
		}
	}
	return n
}

// ClearAll drops every set.
func (r *Registry) ClearAll() {
	r.m.Lock()
	defer r.m.Unlock()
	r.sets = make(map[Key]*model.CameraSet)
}

func (r *Registry) Len() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.sets)
}

// Keys returns the keys of all sets, in no particular order.
func (r *Registry) Keys() []Key {
	r.m.Lock()
	defer r.m.Unlock()
	keys := make([]Key, 0, len(r.sets))
	for k := range r.sets {
		keys = append(keys, k)
	}
	return keys
}
