package scenario

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cameramfd/extension/internal/model"
)

const indent = "  "

// Encode writes set as a scenario block. Labels, base poses and FOV are written
// when the instrument owns the data; when the owner supplies it only the user
// offsets and the FOV offset are written.
func Encode(w io.Writer, set *model.CameraSet) error {
	bw := bufio.NewWriter(w)
	e := &encoder{w: bw}

	e.int(TagAdjust, int(set.Axis))
	e.int(TagPage, int(set.Page))
	e.int(TagInfo, int(set.Info))
	e.blank()

	owned := set.OwnedByVehicle
	for _, id := range set.IDs() {
		cam, _ := set.Camera(id)

		e.int(TagCamera, id)
		if !owned {
			e.str(TagLabel, cam.Label)
			e.vec(TagPos, cam.Pos)
			e.float(TagPitch, cam.PitchAngle)
			e.float(TagYaw, cam.YawAngle)
			e.float(TagRot, cam.RotAngle)
		}
		e.vec(TagUserPos, cam.UserPos)
		e.float(TagUserPitch, cam.UserPitch)
		e.float(TagUserYaw, cam.UserYaw)
		e.float(TagUserRot, cam.UserRot)
		if owned {
			e.float(TagUserFOV, cam.UserFOV)
		} else {
			e.float(TagFOV, cam.FOV)
		}
		e.blank()
	}

	e.int(TagCurrentCamera, set.Current())

	if e.err != nil {
		return fmt.Errorf("writing scenario: %w", e.err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing scenario: %w", err)
	}
	return nil
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) line(tag, value string) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, "%s%s %s\n", indent, tag, value)
}

func (e *encoder) blank() {
	if e.err != nil {
		return
	}
	_, e.err = e.w.WriteString("\n")
}

func (e *encoder) int(tag string, v int) {
	e.line(tag, strconv.Itoa(v))
}

func (e *encoder) str(tag, v string) {
	e.line(tag, v)
}

func (e *encoder) float(tag string, v float64) {
	e.line(tag, formatFloat(v))
}

func (e *encoder) vec(tag string, v mgl64.Vec3) {
	e.line(tag, formatFloat(v[0])+" "+formatFloat(v[1])+" "+formatFloat(v[2]))
}

// formatFloat uses the shortest representation that parses back to v.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
