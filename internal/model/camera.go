package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cameramfd/extension/internal/orientation"
	"github.com/cameramfd/extension/pkg/core"
)

const (
	// DefaultFOV is the field of view of a new camera, in degrees.
	DefaultFOV = 40.0
	// MaxFOV is the exclusive upper bound of the effective field of view.
	MaxFOV = 80.0
	// MaxLabelLength is the longest label accepted from user input, in characters.
	MaxLabelLength = 20
)

// Axis selects what Move adjusts.
type Axis int

const (
	AxisPosition Axis = iota
	AxisDirection
	AxisRotation
)

func (a Axis) String() string {
	switch a {
	case AxisPosition:
		return "Position"
	case AxisDirection:
		return "Direction"
	case AxisRotation:
		return "Rotation"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Valid reports whether a is one of the defined axes.
func (a Axis) Valid() bool {
	return a >= AxisPosition && a <= AxisRotation
}

// Page selects which key set the instrument exposes.
type Page int

const (
	PageMovement Page = iota
	PageCameraManagement
)

func (p Page) String() string {
	switch p {
	case PageMovement:
		return "Movement"
	case PageCameraManagement:
		return "Camera"
	}
	return fmt.Sprintf("Page(%d)", int(p))
}

func (p Page) Valid() bool {
	return p == PageMovement || p == PageCameraManagement
}

// Info is the verbosity of the on-screen camera information.
type Info int

const (
	InfoNone Info = iota
	InfoMinimal
	InfoFull
)

func (i Info) String() string {
	switch i {
	case InfoNone:
		return "None"
	case InfoMinimal:
		return "Minimal"
	case InfoFull:
		return "Full"
	}
	return fmt.Sprintf("Info(%d)", int(i))
}

func (i Info) Valid() bool {
	return i >= InfoNone && i <= InfoFull
}

// Camera is one camera record: a configured base pose plus the user's offset from it.
// Orientation is the live rotation and is never persisted.
type Camera struct {
	Label string

	Pos         mgl64.Vec3
	Orientation mgl64.Mat3
	PitchAngle  float64
	YawAngle    float64
	RotAngle    float64

	UserPos   mgl64.Vec3
	UserPitch float64
	UserYaw   float64
	UserRot   float64

	FOV     float64
	UserFOV float64

	Control      core.UserControl
	MultipleAxes bool
}

// DefaultLabel is the label given to a camera added without data.
func DefaultLabel(id int) string {
	return fmt.Sprintf("Camera %d", id+1)
}

// NewCamera returns a camera with zero pose, default FOV and full user control.
func NewCamera(id int) *Camera {
	return &Camera{
		Label:        DefaultLabel(id),
		Orientation:  orientation.Identity(),
		FOV:          DefaultFOV,
		Control:      core.FullControl(),
		MultipleAxes: true,
	}
}

// NewCameraFromData builds a camera from owner-supplied data.
// The FOV is clamped to [0, MaxFOV].
func NewCameraFromData(d core.CameraData) *Camera {
	c := &Camera{}
	c.Apply(d)
	return c
}

// Apply replaces the base data of the camera, keeping the user offsets,
// and rebuilds the live orientation.
func (c *Camera) Apply(d core.CameraData) {
	c.Label = d.Label
	c.Pos = d.Pos
	c.PitchAngle = d.PitchAngle
	c.YawAngle = d.YawAngle
	c.RotAngle = d.RotAngle
	c.FOV = mgl64.Clamp(d.FOV, 0, MaxFOV)
	c.Control = d.UserControl
	c.DeriveMultipleAxes()
	c.RebuildOrientation()
}

// Data returns the owner-facing view of the camera.
func (c *Camera) Data() core.CameraData {
	return core.CameraData{
		Label:       c.Label,
		Pos:         c.Pos,
		PitchAngle:  c.PitchAngle,
		YawAngle:    c.YawAngle,
		RotAngle:    c.RotAngle,
		FOV:         c.FOV,
		UserControl: c.Control,
	}
}

// RebuildOrientation recomputes the live matrix from base plus user angles.
func (c *Camera) RebuildOrientation() {
	c.Orientation = orientation.FromAngles(
		c.YawAngle+c.UserYaw,
		c.PitchAngle+c.UserPitch,
		c.RotAngle+c.UserRot,
	)
}

// EffectivePos is the base position plus the user offset.
func (c *Camera) EffectivePos() mgl64.Vec3 {
	return c.Pos.Add(c.UserPos)
}

// EffectiveFOV is the configured FOV plus the user offset, in degrees.
func (c *Camera) EffectiveFOV() float64 {
	return c.FOV + c.UserFOV
}

// AxisAllowed reports whether the user may adjust the given axis.
func (c *Camera) AxisAllowed(a Axis) bool {
	switch a {
	case AxisPosition:
		return c.Control.ChangePos
	case AxisDirection:
		return c.Control.ChangeDir
	case AxisRotation:
		return c.Control.ChangeRot
	}
	return false
}

// AllowedAxes returns the adjustable axes in cycle order.
func (c *Camera) AllowedAxes() []Axis {
	var axes []Axis
	for a := AxisPosition; a <= AxisRotation; a++ {
		if c.AxisAllowed(a) {
			axes = append(axes, a)
		}
	}
	return axes
}

// DeriveMultipleAxes sets MultipleAxes when at least two axes are adjustable.
func (c *Camera) DeriveMultipleAxes() {
	c.MultipleAxes = len(c.AllowedAxes()) >= 2
}

// ClampFOV keeps FOV and the effective FOV inside [0, MaxFOV].
func (c *Camera) ClampFOV() {
	c.FOV = mgl64.Clamp(c.FOV, 0, MaxFOV)
	c.UserFOV = mgl64.Clamp(c.UserFOV, -c.FOV, MaxFOV-c.FOV)
}

// RestoreUser copies the user offsets of from, keeping the base data and
// permissions, and rebuilds the orientation.
func (c *Camera) RestoreUser(from *Camera) {
	c.UserPos = from.UserPos
	c.UserPitch, c.UserYaw, c.UserRot = from.UserPitch, from.UserYaw, from.UserRot
	c.UserFOV = from.UserFOV
	c.ClampFOV()
	c.RebuildOrientation()
}

// ResetUser clears every user offset and rebuilds the orientation.
func (c *Camera) ResetUser() {
	c.UserPos = mgl64.Vec3{}
	c.UserPitch, c.UserYaw, c.UserRot = 0, 0, 0
	c.UserFOV = 0
	c.RebuildOrientation()
}

// Clone returns an independent copy.
func (c *Camera) Clone() *Camera {
	cp := *c
	return &cp
}
