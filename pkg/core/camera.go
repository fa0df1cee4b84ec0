// pkg/core/camera.go
package core

import "github.com/go-gl/mathgl/mgl64"

// UserControl is the policy deciding what the user may change on a camera.
type UserControl struct {
	SelectCamera bool `json:"selectCamera"`
	ChangeFOV    bool `json:"changeFov"`
	ChangePos    bool `json:"changePos"`
	ChangeDir    bool `json:"changeDir"`
	ChangeRot    bool `json:"changeRot"`
}

// FullControl allows everything. It is the policy of a default camera.
func FullControl() UserControl {
	return UserControl{
		SelectCamera: true,
		ChangeFOV:    true,
		ChangePos:    true,
		ChangeDir:    true,
		ChangeRot:    true,
	}
}

// CameraData is the owner-facing description of a camera.
// Pos is in owner-local coordinates, angles are degrees, FOV must be in (0, 80).
// A CameraData with an empty Label is invalid and is rejected by the
// instrument.
type CameraData struct {
	Label       string      `json:"label"`
	Pos         mgl64.Vec3  `json:"pos"`
	PitchAngle  float64     `json:"pitchAngle"`
	YawAngle    float64     `json:"yawAngle"`
	RotAngle    float64     `json:"rotAngle"`
	FOV         float64     `json:"fov"`
	UserControl UserControl `json:"userControl"`
}

// Valid reports whether the data carries a label.
func (d CameraData) Valid() bool {
	return d.Label != ""
}
