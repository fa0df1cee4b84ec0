// Package render is the boundary to the graphics client. The instrument hands it
// a pose per camera change; pixels are the client's business.
package render

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cameramfd/extension/internal/model"
	"github.com/cameramfd/extension/internal/orientation"
)

// ErrDisabled is returned by backends that cannot render, e.g. no graphics client.
var ErrDisabled = errors.New("custom camera interface disabled")

// Pose is what the client needs to place a camera: owner-local position,
// unit forward and up vectors, and the field of view in radians.
type Pose struct {
	Position mgl64.Vec3 `json:"position"`
	Forward  mgl64.Vec3 `json:"forward"`
	Up       mgl64.Vec3 `json:"up"`
	FOV      float64    `json:"fov"`
}

// PoseOf derives the render pose of a camera from its effective position,
// live orientation and effective FOV.
func PoseOf(c *model.Camera) Pose {
	return Pose{
		Position: c.EffectivePos(),
		Forward:  orientation.Forward(c.Orientation),
		Up:       orientation.Up(c.Orientation),
		FOV:      mgl64.DegToRad(c.EffectiveFOV()),
	}
}

// Surface is a render target allocated by the client.
type Surface interface {
	ID() string
	Close() error
}

// Camera is a client-side camera bound to a surface.
type Camera interface {
	Close() error
}

// Backend allocates surfaces and binds cameras to them.
// SetupCamera is called with the previous Camera (nil on first call) and may
// return the same handle updated in place.
type Backend interface {
	CreateSurface(width, height int) (Surface, error)
	SetupCamera(owner string, existing Camera, surface Surface, pose Pose) (Camera, error)
}

// Nop is the backend used when no graphics client is configured.
type Nop struct{}

func (Nop) CreateSurface(int, int) (Surface, error) {
	return nil, ErrDisabled
}

func (Nop) SetupCamera(string, Camera, Surface, Pose) (Camera, error) {
	return nil, ErrDisabled
}
