package controller

import (
	"fmt"

	"github.com/cameramfd/extension/internal/model"
)

// InfoLines returns the text the instrument overlays on the camera view at the
// set's info verbosity: the label, the effective FOV when it can be changed,
// the adjust axis when any axis can be changed, and at Full the user offsets
// of that axis.
func (c *Controller) InfoLines() []string {
	set := c.set
	if set.Info == model.InfoNone {
		return nil
	}
	cam := set.CurrentCamera()

	lines := []string{cam.Label}
	if cam.Control.ChangeFOV {
		lines = append(lines, fmt.Sprintf("FOV: %g", cam.EffectiveFOV()))
	}
	if len(cam.AllowedAxes()) > 0 {
		lines = append(lines, set.Axis.String())
	}
	if set.Info != model.InfoFull {
		return lines
	}

	switch set.Axis {
	case model.AxisPosition:
		lines = append(lines,
			fmt.Sprintf("X: %g", cam.UserPos[0]),
			fmt.Sprintf("Y: %g", cam.UserPos[1]),
			fmt.Sprintf("Z: %g", cam.UserPos[2]),
		)
	case model.AxisDirection:
		lines = append(lines,
			fmt.Sprintf("Pitch: %g°", cam.UserPitch),
			fmt.Sprintf("Yaw: %g°", cam.UserYaw),
		)
	case model.AxisRotation:
		lines = append(lines, fmt.Sprintf("Rotation: %g°", cam.UserRot))
	}
	return lines
}
