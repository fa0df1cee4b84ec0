package controller

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameramfd/extension/internal/model"
	"github.com/cameramfd/extension/internal/orientation"
	"github.com/cameramfd/extension/internal/render"
	"github.com/cameramfd/extension/pkg/core"
)

type recorder struct {
	invalidated int
	poses       []render.Pose
}

func (r *recorder) InvalidateDisplay() {
	r.invalidated++
}

func (r *recorder) UpdatePose(p render.Pose) {
	r.poses = append(r.poses, p)
}

func newController(t *testing.T) (*Controller, *recorder) {
	t.Helper()
	rec := &recorder{}
	return New(model.NewCameraSet(), rec), rec
}

func TestChangeFOVRaisesEffectiveFOV(t *testing.T) {
	c, rec := newController(t)

	for range 8 {
		require.NoError(t, c.ChangeFOV(+1))
	}

	cam := c.Set().CurrentCamera()
	assert.InDelta(t, 44.0, cam.EffectiveFOV(), 1e-9)
	assert.InDelta(t, 44.0, cam.FOV, 1e-9)
	assert.Zero(t, cam.UserFOV)
	require.Len(t, rec.poses, 8)
	assert.InDelta(t, mgl64.DegToRad(44), rec.poses[7].FOV, 1e-12)
}

func TestChangeFOVRejectsAtBounds(t *testing.T) {
	c, _ := newController(t)
	cam := c.Set().CurrentCamera()

	cam.FOV = 79.5
	err := c.ChangeFOV(+1)
	assert.ErrorIs(t, err, model.ErrRangeViolation)
	assert.Equal(t, 79.5, cam.FOV)

	cam.FOV = 0.5
	err = c.ChangeFOV(-1)
	assert.ErrorIs(t, err, model.ErrRangeViolation)
	assert.Equal(t, 0.5, cam.FOV)

	require.NoError(t, c.ChangeFOV(+1))
	assert.Equal(t, 1.0, cam.FOV)
}

func TestChangeFOVOwnedGoesToUserFOV(t *testing.T) {
	c, _ := newController(t)
	c.Set().OwnedByVehicle = true

	require.NoError(t, c.ChangeFOV(-1))

	cam := c.Set().CurrentCamera()
	assert.Equal(t, model.DefaultFOV, cam.FOV)
	assert.Equal(t, -0.5, cam.UserFOV)
	assert.Equal(t, 39.5, cam.EffectiveFOV())
}

func TestChangeFOVGuards(t *testing.T) {
	c, _ := newController(t)

	c.Set().CurrentCamera().Control.ChangeFOV = false
	assert.ErrorIs(t, c.ChangeFOV(+1), model.ErrPermissionDenied)

	c.Set().CurrentCamera().Control.ChangeFOV = true
	c.CyclePage()
	assert.ErrorIs(t, c.ChangeFOV(+1), ErrWrongPage)
}

func TestMovePosition(t *testing.T) {
	tests := []struct {
		dir      Direction
		expected mgl64.Vec3
	}{
		{Left, mgl64.Vec3{-PositionStep, 0, 0}},
		{Right, mgl64.Vec3{PositionStep, 0, 0}},
		{Up, mgl64.Vec3{0, PositionStep, 0}},
		{Down, mgl64.Vec3{0, -PositionStep, 0}},
		{Forward, mgl64.Vec3{0, 0, PositionStep}},
		{Backward, mgl64.Vec3{0, 0, -PositionStep}},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			c, _ := newController(t)
			require.NoError(t, c.Move(tt.dir))
			got := c.Set().CurrentCamera().UserPos
			assert.True(t, got.ApproxEqualThreshold(tt.expected, 1e-12), "got %v", got)
		})
	}
}

func TestMovePositionFollowsOrientation(t *testing.T) {
	c, _ := newController(t)
	cam := c.Set().CurrentCamera()
	cam.YawAngle = 90
	cam.RebuildOrientation()

	require.NoError(t, c.Move(Forward))
	assert.True(t, cam.UserPos.ApproxEqualThreshold(mgl64.Vec3{-PositionStep, 0, 0}, 1e-12))

	pose := c.Pose()
	assert.True(t, pose.Position.ApproxEqualThreshold(cam.UserPos, 1e-12))
}

func TestMoveDirection(t *testing.T) {
	c, _ := newController(t)
	c.Set().Axis = model.AxisDirection
	cam := c.Set().CurrentCamera()

	require.NoError(t, c.Move(Left))
	assert.Equal(t, 0.5, cam.UserYaw)
	assert.True(t, cam.Orientation.ApproxEqualThreshold(orientation.FromAngles(0.5, 0, 0), 1e-12))

	require.NoError(t, c.Move(Up))
	require.NoError(t, c.Move(Up))
	assert.Equal(t, 1.0, cam.UserPitch)
	assert.True(t, cam.Orientation.ApproxEqualThreshold(orientation.FromAngles(0.5, 1, 0), 1e-12))

	// yaw on a pitched frame stays a pure yaw of the level frame
	require.NoError(t, c.Move(Right))
	assert.Equal(t, 0.0, cam.UserYaw)
	assert.True(t, cam.Orientation.ApproxEqualThreshold(orientation.FromAngles(0, 1, 0), 1e-9))

	assert.ErrorIs(t, c.Move(Forward), ErrUnsupportedMove)
	assert.ErrorIs(t, c.Move(Backward), ErrUnsupportedMove)
}

func TestMoveDirectionWraps(t *testing.T) {
	c, _ := newController(t)
	c.Set().Axis = model.AxisDirection
	cam := c.Set().CurrentCamera()

	for range 360 {
		require.NoError(t, c.Move(Left))
	}
	assert.InDelta(t, 180, cam.UserYaw, 1e-9)

	require.NoError(t, c.Move(Left))
	assert.InDelta(t, -179.5, cam.UserYaw, 1e-9)

	for range 1000 {
		require.NoError(t, c.Move(Down))
		assert.True(t, cam.UserPitch > -180 && cam.UserPitch <= 180)
	}
}

func TestMoveRotation(t *testing.T) {
	c, _ := newController(t)
	c.Set().Axis = model.AxisRotation
	cam := c.Set().CurrentCamera()

	require.NoError(t, c.Move(Left))
	require.NoError(t, c.Move(Left))
	require.NoError(t, c.Move(Right))
	assert.Equal(t, 0.5, cam.UserRot)
	assert.True(t, cam.Orientation.ApproxEqualThreshold(orientation.FromAngles(0, 0, 0.5), 1e-12))

	assert.ErrorIs(t, c.Move(Up), ErrUnsupportedMove)
}

func TestMoveGuards(t *testing.T) {
	c, rec := newController(t)
	c.Set().CurrentCamera().Control.ChangePos = false
	assert.ErrorIs(t, c.Move(Left), model.ErrPermissionDenied)

	c.Set().Page = model.PageCameraManagement
	assert.ErrorIs(t, c.Move(Left), ErrWrongPage)
	assert.Empty(t, rec.poses)
}

func TestResetDirectionKeepsUserRot(t *testing.T) {
	c, _ := newController(t)
	set := c.Set()
	cam := set.CurrentCamera()
	cam.PitchAngle = 10

	cam.RebuildOrientation()

	set.Axis = model.AxisRotation
	for range 4 {
		require.NoError(t, c.Move(Left))
	}
	set.Axis = model.AxisDirection
	for range 6 {
		require.NoError(t, c.Move(Left))
		require.NoError(t, c.Move(Up))
	}
	require.Equal(t, 3.0, cam.UserYaw)

	require.NoError(t, c.Reset())

	assert.Zero(t, cam.UserYaw)
	assert.Zero(t, cam.UserPitch)
	assert.Equal(t, 2.0, cam.UserRot)
	assert.True(t, cam.Orientation.ApproxEqualThreshold(orientation.FromAngles(0, 10, 2), 1e-12))
}

func TestResetRotation(t *testing.T) {
	c, _ := newController(t)
	set := c.Set()
	cam := set.CurrentCamera()
	set.Axis = model.AxisRotation
	for range 5 {
		require.NoError(t, c.Move(Right))
	}

	require.NoError(t, c.Reset())
	assert.Zero(t, cam.UserRot)
	assert.True(t, cam.Orientation.ApproxEqualThreshold(orientation.Identity(), 1e-12))
}

func TestResetPosition(t *testing.T) {
	c, _ := newController(t)
	cam := c.Set().CurrentCamera()
	require.NoError(t, c.Move(Up))
	require.NoError(t, c.Reset())
	assert.Equal(t, mgl64.Vec3{}, cam.UserPos)

	cam.Control.ChangePos = false
	assert.ErrorIs(t, c.Reset(), model.ErrPermissionDenied)
}

func TestCycleAxis(t *testing.T) {
	c, _ := newController(t)
	set := c.Set()

	require.NoError(t, c.CycleAxis())
	assert.Equal(t, model.AxisDirection, set.Axis)
	require.NoError(t, c.CycleAxis())
	assert.Equal(t, model.AxisRotation, set.Axis)
	require.NoError(t, c.CycleAxis())
	assert.Equal(t, model.AxisPosition, set.Axis)

	set.CurrentCamera().Control.ChangeDir = false
	require.NoError(t, c.CycleAxis())
	assert.Equal(t, model.AxisRotation, set.Axis)

	set.CurrentCamera().Control = core.UserControl{}
	assert.ErrorIs(t, c.CycleAxis(), model.ErrPermissionDenied)
	assert.Equal(t, model.AxisRotation, set.Axis)
}

func TestCyclePageAndInfo(t *testing.T) {
	c, rec := newController(t)
	set := c.Set()

	c.CyclePage()
	assert.Equal(t, model.PageCameraManagement, set.Page)
	c.CyclePage()
	assert.Equal(t, model.PageMovement, set.Page)

	c.CycleInfo()
	assert.Equal(t, model.InfoFull, set.Info)
	c.CycleInfo()
	assert.Equal(t, model.InfoNone, set.Info)
	c.CycleInfo()
	assert.Equal(t, model.InfoMinimal, set.Info)

	assert.Equal(t, 5, rec.invalidated)
}

func TestNextPreviousCamera(t *testing.T) {
	c, rec := newController(t)
	require.NoError(t, c.AddCamera(3))
	require.NoError(t, c.AddCamera(8))

	assert.ErrorIs(t, c.PreviousCamera(), model.ErrInvalidCameraID)
	assert.Equal(t, 0, c.Current())

	require.NoError(t, c.NextCamera())
	assert.Equal(t, 3, c.Current())
	require.NoError(t, c.NextCamera())
	assert.Equal(t, 8, c.Current())
	assert.ErrorIs(t, c.NextCamera(), model.ErrInvalidCameraID)
	assert.Equal(t, 8, c.Current())

	require.NoError(t, c.PreviousCamera())
	assert.Equal(t, 3, c.Current())
	assert.Len(t, rec.poses, 3)

	c.Set().CurrentCamera().Control.SelectCamera = false
	assert.ErrorIs(t, c.NextCamera(), model.ErrPermissionDenied)
}

func TestAddCameraTwice(t *testing.T) {
	c, _ := newController(t)

	require.NoError(t, c.AddCamera(5))
	assert.ErrorIs(t, c.AddCamera(5), model.ErrInvalidCameraID)
	assert.Equal(t, 2, c.Count())
	assert.Equal(t, 0, c.Current())

	d, err := c.CameraData(5)
	require.NoError(t, err)
	assert.Equal(t, "Camera 6", d.Label)
}

func TestAddNextCameraSelects(t *testing.T) {
	c, _ := newController(t)
	require.NoError(t, c.AddCamera(4))

	id, err := c.AddNextCamera()
	require.NoError(t, err)
	assert.Equal(t, 5, id)
	assert.Equal(t, 5, c.Current())
}

func TestDeleteCamera(t *testing.T) {
	c, _ := newController(t)
	assert.ErrorIs(t, c.DeleteCamera(0), model.ErrLastCamera)

	require.NoError(t, c.AddCamera(5))
	require.NoError(t, c.SetCurrent(5))

	require.NoError(t, c.DeleteCamera(0))
	assert.Equal(t, 5, c.Current())
	assert.Equal(t, []int{5}, c.Set().IDs())

	require.NoError(t, c.AddCamera(2))
	require.NoError(t, c.DeleteCamera(5))
	assert.Equal(t, 2, c.Current())

	assert.ErrorIs(t, c.DeleteCamera(9), model.ErrInvalidCameraID)
}

func TestSetLabel(t *testing.T) {
	c, _ := newController(t)

	assert.ErrorIs(t, c.SetLabel(""), model.ErrRangeViolation)
	assert.ErrorIs(t, c.SetLabel("a label that is far too long"), model.ErrRangeViolation)
	require.NoError(t, c.SetLabel("Docking Port"))
	require.NoError(t, c.SetLabel("Überführungskamera 2"))
	assert.Equal(t, "Überführungskamera 2", c.Set().CurrentCamera().Label)
}

func TestSetCameraData(t *testing.T) {
	c, rec := newController(t)
	set := c.Set()
	cam := set.CurrentCamera()
	cam.UserYaw = 5

	err := c.SetCameraData(0, core.CameraData{
		Label:       "Aft",
		Pos:         mgl64.Vec3{0, 1, -4},
		PitchAngle:  -15,
		YawAngle:    180,
		FOV:         95,
		UserControl: core.UserControl{ChangeRot: true},
	})
	require.NoError(t, err)

	assert.Equal(t, model.MaxFOV, cam.FOV)
	assert.Equal(t, model.AxisRotation, set.Axis)
	assert.False(t, cam.MultipleAxes)
	assert.True(t, cam.Orientation.ApproxEqualThreshold(orientation.FromAngles(185, -15, 0), 1e-12))
	assert.NotEmpty(t, rec.poses)

	err = c.SetCameraData(0, core.CameraData{
		Label:       "Aft",
		UserControl: core.UserControl{ChangePos: true, ChangeDir: true},
	})
	require.NoError(t, err)
	assert.Equal(t, model.AxisPosition, set.Axis)
	assert.True(t, cam.MultipleAxes)

	assert.ErrorIs(t, c.SetCameraData(3, core.CameraData{Label: "x"}), model.ErrInvalidCameraID)

	// an empty label marks invalid data and changes nothing
	err = c.SetCameraData(0, core.CameraData{FOV: 20})
	assert.ErrorIs(t, err, model.ErrRangeViolation)
	assert.Equal(t, "Aft", cam.Label)
	assert.Equal(t, 0.0, cam.FOV)
}

func TestAddCameraWithData(t *testing.T) {
	c, _ := newController(t)

	data := core.CameraData{Label: "Belly", FOV: 30, UserControl: core.FullControl()}
	require.NoError(t, c.AddCameraWithData(2, data))

	got, err := c.CameraData(2)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.ErrorIs(t, c.AddCameraWithData(2, data), model.ErrInvalidCameraID)

	assert.ErrorIs(t, c.AddCameraWithData(6, core.CameraData{FOV: 30}), model.ErrRangeViolation)
	_, ok := c.Set().Camera(6)
	assert.False(t, ok)
}

func TestInfoLines(t *testing.T) {
	c, _ := newController(t)
	set := c.Set()

	assert.Equal(t, []string{"Camera 1", "FOV: 40", "Position"}, c.InfoLines())

	set.Info = model.InfoFull
	set.Axis = model.AxisRotation
	set.CurrentCamera().UserRot = -2.5
	assert.Equal(t, []string{"Camera 1", "FOV: 40", "Rotation", "Rotation: -2.5°"}, c.InfoLines())

	set.Info = model.InfoNone
	assert.Nil(t, c.InfoLines())

	set.Info = model.InfoMinimal
	set.CurrentCamera().Control = core.UserControl{}
	assert.Equal(t, []string{"Camera 1"}, c.InfoLines())
}
