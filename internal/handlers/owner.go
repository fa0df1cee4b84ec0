package handlers

import (
	"errors"
	"sync"

	"github.com/cameramfd/extension/internal/model"
	"github.com/cameramfd/extension/pkg/core"
	"github.com/cameramfd/extension/pkg/hostapi"
)

// vesselOwner is the host-side stand-in for a vessel announced with
// :VESSEL:NEW:. A vessel that claims its cameras pushes its preset camera
// data through the API on attach, the way a vessel module would.
type vesselOwner struct {
	name    string
	class   string
	claims  bool
	presets []core.CameraData

	mu       sync.Mutex
	attached map[int]hostapi.CameraAPI
}

func newVesselOwner(name, class string, claims bool, presets []core.CameraData) *vesselOwner {
	return &vesselOwner{
		name:     name,
		class:    class,
		claims:   claims,
		presets:  presets,
		attached: make(map[int]hostapi.CameraAPI),
	}
}

func (v *vesselOwner) Name() string {
	return v.name
}

func (v *vesselOwner) ClassName() string {
	return v.class
}

func (v *vesselOwner) Attach(slot int, api hostapi.CameraAPI) bool {
	v.mu.Lock()
	v.attached[slot] = api
	v.mu.Unlock()

	if !v.claims {
		return false
	}
	// Base data is supplied on every attach. Cameras restored from a scenario
	// before the handshake keep their user offsets; a rejected preset leaves
	// its camera as it was.
	for i, d := range v.presets {
		if err := api.SetCameraData(i, d); errors.Is(err, model.ErrInvalidCameraID) {
			_ = api.AddCameraWithData(i, d)
		}
	}
	return true
}

func (v *vesselOwner) Detach(slot int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.attached, slot)
}

// api returns the camera API offered on slot, if attached.
func (v *vesselOwner) api(slot int) (hostapi.CameraAPI, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	a, ok := v.attached[slot]
	return a, ok
}
