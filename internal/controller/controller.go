// Package controller implements the adjustment state machine of a camera set:
// axis and page selection, movement, zoom, reset and camera selection.
//
// A Controller does not lock its set. Callers sharing the set across goroutines
// hold CameraSet.Lock for the duration of a call.
package controller

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cameramfd/extension/internal/model"
	"github.com/cameramfd/extension/internal/orientation"
	"github.com/cameramfd/extension/internal/render"
	"github.com/cameramfd/extension/pkg/core"
)

const (
	// PositionStep is the distance moved per key press, in metres.
	PositionStep = 0.025
	// AngleStep is the rotation per key press, in degrees.
	AngleStep = 0.5
	// FOVStep is the zoom per key press, in degrees.
	FOVStep = 0.5
)

var (
	ErrWrongPage       = errors.New("command not available on this page")
	ErrUnsupportedMove = errors.New("move not supported on this axis")
)

// Direction is a movement key.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "Left"
	case Right:
		return "Right"
	case Up:
		return "Up"
	case Down:
		return "Down"
	case Forward:
		return "Forward"
	case Backward:
		return "Backward"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Listener is told about every successful change.
type Listener interface {
	// InvalidateDisplay is called when anything shown on the instrument changed.
	InvalidateDisplay()
	// UpdatePose is called when the selected camera's pose changed.
	UpdatePose(pose render.Pose)
}

type nopListener struct{}

func (nopListener) InvalidateDisplay()      {}
func (nopListener) UpdatePose(render.Pose) {}

// Controller drives one camera set.
type Controller struct {
	set      *model.CameraSet
	listener Listener
}

// New returns a controller over set. A nil listener discards notifications.
func New(set *model.CameraSet, listener Listener) *Controller {
	if listener == nil {
		listener = nopListener{}
	}
	return &Controller{set: set, listener: listener}
}

// Set returns the controlled camera set.
func (c *Controller) Set() *model.CameraSet {
	return c.set
}

// Pose returns the render pose of the selected camera.
func (c *Controller) Pose() render.Pose {
	return render.PoseOf(c.set.CurrentCamera())
}

// Refresh pushes the current pose and invalidates the display.
func (c *Controller) Refresh() {
	c.listener.UpdatePose(c.Pose())
	c.listener.InvalidateDisplay()
}

func (c *Controller) displayChanged() {
	c.listener.InvalidateDisplay()
}

// CycleAxis selects the next axis the selected camera permits.
func (c *Controller) CycleAxis() error {
	cam := c.set.CurrentCamera()
	next := c.set.Axis
	for range 3 {
		next = (next + 1) % 3
		if cam.AxisAllowed(next) {
			c.set.Axis = next
			c.displayChanged()
			return nil
		}
	}
	return fmt.Errorf("cycle axis: %w", model.ErrPermissionDenied)
}

// CyclePage toggles between the movement and camera management pages.
func (c *Controller) CyclePage() {
	if c.set.Page == model.PageMovement {
		c.set.Page = model.PageCameraManagement
	} else {
		c.set.Page = model.PageMovement
	}
	c.displayChanged()
}

// CycleInfo steps the info verbosity None, Minimal, Full and back to None.
func (c *Controller) CycleInfo() {
	c.set.Info = (c.set.Info + 1) % 3
	c.displayChanged()
}

// Move nudges the selected camera along the current axis.
func (c *Controller) Move(dir Direction) error {
	if c.set.Page != model.PageMovement {
		return fmt.Errorf("move %s: %w", dir, ErrWrongPage)
	}
	cam := c.set.CurrentCamera()
	axis := c.set.Axis
	if !cam.AxisAllowed(axis) {
		return fmt.Errorf("move %s on %s: %w", dir, axis, model.ErrPermissionDenied)
	}

	var err error
	switch axis {
	case model.AxisPosition:
		movePosition(cam, dir)
	case model.AxisDirection:
		err = moveDirection(cam, dir)
	case model.AxisRotation:
		err = moveRotation(cam, dir)
	}
	if err != nil {
		return fmt.Errorf("move %s on %s: %w", dir, axis, err)
	}

	c.Refresh()
	return nil
}

func movePosition(cam *model.Camera, dir Direction) {
	var v mgl64.Vec3
	switch dir {
	case Left:
		v = orientation.Right(cam.Orientation).Mul(-1)
	case Right:
		v = orientation.Right(cam.Orientation)
	case Up:
		v = orientation.Up(cam.Orientation)
	case Down:
		v = orientation.Up(cam.Orientation).Mul(-1)
	case Forward:
		v = orientation.Forward(cam.Orientation)
	case Backward:
		v = orientation.Forward(cam.Orientation).Mul(-1)
	}
	cam.UserPos = cam.UserPos.Add(v.Mul(PositionStep))
}

func moveDirection(cam *model.Camera, dir Direction) error {
	pitch := cam.PitchAngle + cam.UserPitch
	switch dir {
	case Left:
		cam.Orientation = orientation.IncrementalYaw(cam.Orientation, AngleStep, pitch)
		cam.UserYaw = orientation.Wrap(cam.UserYaw + AngleStep)
	case Right:
		cam.Orientation = orientation.IncrementalYaw(cam.Orientation, -AngleStep, pitch)
		cam.UserYaw = orientation.Wrap(cam.UserYaw - AngleStep)
	case Up:
		cam.Orientation = orientation.IncrementalPitch(cam.Orientation, AngleStep)
		cam.UserPitch = orientation.Wrap(cam.UserPitch + AngleStep)
	case Down:
		cam.Orientation = orientation.IncrementalPitch(cam.Orientation, -AngleStep)
		cam.UserPitch = orientation.Wrap(cam.UserPitch - AngleStep)
	default:
		return ErrUnsupportedMove
	}
	return nil
}

func moveRotation(cam *model.Camera, dir Direction) error {
	switch dir {
	case Left:
		cam.Orientation = orientation.IncrementalRoll(cam.Orientation, AngleStep)
		cam.UserRot = orientation.Wrap(cam.UserRot + AngleStep)
	case Right:
		cam.Orientation = orientation.IncrementalRoll(cam.Orientation, -AngleStep)
		cam.UserRot = orientation.Wrap(cam.UserRot - AngleStep)
	default:
		return ErrUnsupportedMove
	}
	return nil
}

// ChangeFOV zooms out for sign > 0 and in for sign < 0 by FOVStep.
// The step goes to UserFOV when the owner supplies the camera data, else to FOV.
func (c *Controller) ChangeFOV(sign int) error {
	if c.set.Page != model.PageMovement {
		return fmt.Errorf("change fov: %w", ErrWrongPage)
	}
	cam := c.set.CurrentCamera()
	if !cam.Control.ChangeFOV {
		return fmt.Errorf("change fov: %w", model.ErrPermissionDenied)
	}

	step := FOVStep
	if sign < 0 {
		step = -FOVStep
	}
	next := cam.EffectiveFOV() + step
	if next <= 0 || next >= model.MaxFOV {
		return fmt.Errorf("change fov to %g: %w", next, model.ErrRangeViolation)
	}

	if c.set.OwnedByVehicle {
		cam.UserFOV += step
	} else {
		cam.FOV += step
	}
	c.Refresh()
	return nil
}

// Reset clears the user offset of the current axis.
func (c *Controller) Reset() error {
	cam := c.set.CurrentCamera()
	axis := c.set.Axis
	if !cam.AxisAllowed(axis) {
		return fmt.Errorf("reset %s: %w", axis, model.ErrPermissionDenied)
	}

	switch axis {
	case model.AxisPosition:
		cam.UserPos = mgl64.Vec3{}
	case model.AxisDirection:
		cam.Orientation = orientation.FromAngles(cam.YawAngle, cam.PitchAngle, cam.RotAngle+cam.UserRot)
		cam.UserPitch = 0
		cam.UserYaw = 0
	case model.AxisRotation:
		cam.Orientation = orientation.IncrementalRoll(cam.Orientation, -cam.UserRot)
		cam.UserRot = 0
	}

	c.Refresh()
	return nil
}

// NextCamera selects the camera with the next higher id.
func (c *Controller) NextCamera() error {
	if !c.set.CurrentCamera().Control.SelectCamera {
		return fmt.Errorf("next camera: %w", model.ErrPermissionDenied)
	}
	id, err := c.set.Next()
	if err != nil {
		return err
	}
	return c.SetCurrent(id)
}

// PreviousCamera selects the camera with the next lower id.
func (c *Controller) PreviousCamera() error {
	if !c.set.CurrentCamera().Control.SelectCamera {
		return fmt.Errorf("previous camera: %w", model.ErrPermissionDenied)
	}
	id, err := c.set.Previous()
	if err != nil {
		return err
	}
	return c.SetCurrent(id)
}

// SetCurrent selects the camera with the given id.
func (c *Controller) SetCurrent(id int) error {
	if err := c.set.Select(id); err != nil {
		return err
	}
	c.Refresh()
	return nil
}

// Current returns the selected camera id.
func (c *Controller) Current() int {
	return c.set.Current()
}

// Count returns the number of cameras.
func (c *Controller) Count() int {
	return c.set.Len()
}

// AddCamera inserts a default camera labeled after its id.
func (c *Controller) AddCamera(id int) error {
	if err := c.set.Add(id, model.NewCamera(id)); err != nil {
		return err
	}
	c.displayChanged()
	return nil
}

// AddCameraWithData inserts a camera built from data.
func (c *Controller) AddCameraWithData(id int, data core.CameraData) error {
	if !data.Valid() {
		return fmt.Errorf("add camera %d: empty label: %w", id, model.ErrRangeViolation)
	}
	if err := c.set.Add(id, model.NewCamera(id)); err != nil {
		return err
	}
	return c.SetCameraData(id, data)
}

// AddNextCamera adds a default camera after the highest id and selects it.
func (c *Controller) AddNextCamera() (int, error) {
	id := c.set.MaxID() + 1
	if err := c.AddCamera(id); err != nil {
		return 0, err
	}
	return id, c.SetCurrent(id)
}

// DeleteCamera removes a camera. The last camera cannot be deleted.
func (c *Controller) DeleteCamera(id int) error {
	if err := c.set.Delete(id); err != nil {
		return err
	}
	c.Refresh()
	return nil
}

// SetLabel renames the selected camera.
func (c *Controller) SetLabel(label string) error {
	n := utf8.RuneCountInString(label)
	if n < 1 || n > model.MaxLabelLength {
		return fmt.Errorf("label of %d characters: %w", n, model.ErrRangeViolation)
	}
	c.set.CurrentCamera().Label = label
	c.displayChanged()
	return nil
}

// CameraData returns the owner-facing data of a camera.
func (c *Controller) CameraData(id int) (core.CameraData, error) {
	cam, ok := c.set.Camera(id)
	if !ok {
		return core.CameraData{}, fmt.Errorf("camera data %d: %w", id, model.ErrInvalidCameraID)
	}
	return cam.Data(), nil
}

// SetCameraData replaces the base data of a camera, keeping its user offsets,
// and re-selects an adjust axis the new permissions allow.
func (c *Controller) SetCameraData(id int, data core.CameraData) error {
	cam, ok := c.set.Camera(id)
	if !ok {
		return fmt.Errorf("set camera data %d: %w", id, model.ErrInvalidCameraID)
	}
	if !data.Valid() {
		return fmt.Errorf("set camera data %d: empty label: %w", id, model.ErrRangeViolation)
	}
	cam.Apply(data)

	axes := cam.AllowedAxes()
	switch {
	case len(axes) == 1:
		c.set.Axis = axes[0]
	case len(axes) > 1 && !cam.AxisAllowed(c.set.Axis):
		c.set.Axis = firstAllowedFrom(cam, c.set.Axis)
	}

	c.Refresh()
	return nil
}

func firstAllowedFrom(cam *model.Camera, a model.Axis) model.Axis {
	for range 3 {
		if cam.AxisAllowed(a) {
			return a
		}
		a = (a + 1) % 3
	}
	return a
}
