package model

import (
	"fmt"
	"slices"
	"sync"
)

// State is the lifecycle of a camera set with respect to who controls its data.
type State int

const (
	StateUninitialized State = iota
	// StateAwaitingOwnerOrConfig is a fresh set whose owner has not yet claimed it
	// and whose config file has not been tried.
	StateAwaitingOwnerOrConfig
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateAwaitingOwnerOrConfig:
		return "AwaitingOwnerOrConfig"
	case StateReady:
		return "Ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// CameraSet is the ordered collection of cameras shown in one instrument slot of an owner.
// It is never empty and Current is always a present id.
//
// Methods do not lock; callers sharing a set across goroutines hold Lock for the
// duration of a command.
type CameraSet struct {
	mu sync.Mutex

	cameras map[int]*Camera
	ids     []int
	current int

	Axis Axis
	Page Page
	Info Info

	// OwnedByVehicle is set when the owner supplies the base data of the cameras.
	OwnedByVehicle bool
	// FromConfig is set when the cameras were read from a config file.
	FromConfig bool
	State      State
}

// NewCameraSet returns a set holding one default camera with id 0.
func NewCameraSet() *CameraSet {
	s := &CameraSet{
		Info: InfoMinimal,
	}
	s.ResetCameras()
	return s
}

func (s *CameraSet) Lock() {
	s.mu.Lock()
}

func (s *CameraSet) Unlock() {
	s.mu.Unlock()
}

// ResetCameras replaces all cameras with one default camera and selects it.
func (s *CameraSet) ResetCameras() {
	s.cameras = map[int]*Camera{0: NewCamera(0)}
	s.ids = []int{0}
	s.current = 0
}

// ReplaceCameras installs the given cameras. An empty map resets the set to one
// default camera. Current becomes the lowest id.
func (s *CameraSet) ReplaceCameras(cams map[int]*Camera) {
	if len(cams) == 0 {
		s.ResetCameras()
		return
	}
	s.cameras = make(map[int]*Camera, len(cams))
	s.ids = s.ids[:0]
	for id, c := range cams {
		s.cameras[id] = c
		s.ids = append(s.ids, id)
	}
	slices.Sort(s.ids)
	s.current = s.ids[0]
}

// Len returns the number of cameras.
func (s *CameraSet) Len() int {
	return len(s.ids)
}

// IDs returns the camera ids in ascending order.
func (s *CameraSet) IDs() []int {
	return slices.Clone(s.ids)
}

// Camera returns the camera with the given id.
func (s *CameraSet) Camera(id int) (*Camera, bool) {
	c, ok := s.cameras[id]
	return c, ok
}

// Current returns the id of the selected camera.
func (s *CameraSet) Current() int {
	return s.current
}

// CurrentCamera returns the selected camera.
func (s *CameraSet) CurrentCamera() *Camera {
	return s.cameras[s.current]
}

// Select makes id the current camera.
func (s *CameraSet) Select(id int) error {
	if _, ok := s.cameras[id]; !ok {
		return fmt.Errorf("select camera %d: %w", id, ErrInvalidCameraID)
	}
	s.current = id
	return nil
}

// MaxID returns the highest id in the set.
func (s *CameraSet) MaxID() int {
	return s.ids[len(s.ids)-1]
}

// Next returns the id following the current one. There is no wrap.
func (s *CameraSet) Next() (int, error) {
	i, _ := slices.BinarySearch(s.ids, s.current)
	if i+1 >= len(s.ids) {
		return s.current, fmt.Errorf("next camera after %d: %w", s.current, ErrInvalidCameraID)
	}
	return s.ids[i+1], nil
}

// Previous returns the id preceding the current one. There is no wrap.
func (s *CameraSet) Previous() (int, error) {
	i, _ := slices.BinarySearch(s.ids, s.current)
	if i == 0 {
		return s.current, fmt.Errorf("previous camera before %d: %w", s.current, ErrInvalidCameraID)
	}
	return s.ids[i-1], nil
}

// Add inserts c under id. The id must be non-negative and unused.
func (s *CameraSet) Add(id int, c *Camera) error {
	if id < 0 {
		return fmt.Errorf("add camera %d: %w", id, ErrInvalidCameraID)
	}
	if _, ok := s.cameras[id]; ok {
		return fmt.Errorf("add camera %d: already exists: %w", id, ErrInvalidCameraID)
	}
	i, _ := slices.BinarySearch(s.ids, id)
	s.ids = slices.Insert(s.ids, i, id)
	s.cameras[id] = c
	return nil
}

// Delete removes the camera with the given id. Deleting the current camera
// selects the preceding id, or the lowest remaining id when none precedes.
func (s *CameraSet) Delete(id int) error {
	i, ok := slices.BinarySearch(s.ids, id)
	if !ok {
		return fmt.Errorf("delete camera %d: %w", id, ErrInvalidCameraID)
	}
	if len(s.ids) == 1 {
		return fmt.Errorf("delete camera %d: %w", id, ErrLastCamera)
	}
	s.ids = slices.Delete(s.ids, i, i+1)
	delete(s.cameras, id)

	if s.current == id {
		if i > 0 {
			s.current = s.ids[i-1]
		} else {
			s.current = s.ids[0]
		}
	}
	return nil
}
