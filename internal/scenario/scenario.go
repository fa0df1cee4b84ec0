// Package scenario reads and writes camera sets in the line-oriented scenario format:
//
//	CADJ <axis>
//	CPG <page>
//	CINF <info>
//
//	CCAM <id>
//	CLBL <label>
//	CPOS <x> <y> <z>
//	CPIT <deg>
//	CYAW <deg>
//	CROT <deg>
//	CUPOS <x> <y> <z>
//	CUPIT <deg>
//	CUYAW <deg>
//	CUROT <deg>
//	CFOV <deg> | CUFOV <deg>
//
//	CURCAM <id>
//
// A CCFG <name> line redirects the reader to the config file <name>.cfg.
// Angles are persisted, orientation matrices never are.
package scenario

import (
	"errors"
	"fmt"

	"github.com/cameramfd/extension/internal/model"
)

// Tags of the scenario format.
const (
	TagAdjust        = "CADJ"
	TagPage          = "CPG"
	TagInfo          = "CINF"
	TagCamera        = "CCAM"
	TagLabel         = "CLBL"
	TagPos           = "CPOS"
	TagPitch         = "CPIT"
	TagYaw           = "CYAW"
	TagRot           = "CROT"
	TagUserPos       = "CUPOS"
	TagUserPitch     = "CUPIT"
	TagUserYaw       = "CUYAW"
	TagUserRot       = "CUROT"
	TagFOV           = "CFOV"
	TagUserFOV       = "CUFOV"
	TagCurrentCamera = "CURCAM"
	TagConfig        = "CCFG"

	// EndBlock terminates an instrument block inside a scenario file.
	EndBlock = "END_MFD"

	// ConfigExt is appended to the name given in a CCFG line.
	ConfigExt = ".cfg"
)

var (
	// ErrConfigNotFound is returned when a CCFG line names a missing config file.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrMissingCamera is returned when a camera field appears before any CCAM line.
	ErrMissingCamera = errors.New("camera field before CCAM")
	// ErrConfigDepth is returned when config files redirect to each other too deeply.
	ErrConfigDepth = errors.New("config redirection too deep")
)

// ParseError reports the line a decode failed on.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is a decoded camera set block.
type Result struct {
	Cameras map[int]*model.Camera
	Current int
	Axis    model.Axis
	Page    model.Page
	Info    model.Info

	// FromConfig is set when the cameras came from a config file.
	FromConfig bool
	// ConfigName is the CCFG name that was followed, if any.
	ConfigName string
}

// HasCameras reports whether the block held any camera.
func (r *Result) HasCameras() bool {
	return len(r.Cameras) > 0
}

// ApplyTo installs the decoded cameras and selection state into set.
// A result without cameras resets the set to one default camera.
func (r *Result) ApplyTo(set *model.CameraSet) {
	set.ReplaceCameras(r.Cameras)
	if _, ok := set.Camera(r.Current); ok {
		_ = set.Select(r.Current)
	}
	set.Axis = r.Axis
	set.Page = r.Page
	set.Info = r.Info
	set.FromConfig = r.FromConfig && r.HasCameras()
}

// ApplyOffsetsTo restores the user offsets and selection state into a set
// whose base data comes from its owner. Labels, base poses, FOV and
// permissions already in set are kept; decoded cameras the set does not hold
// are ignored. It returns the number of cameras restored.
func (r *Result) ApplyOffsetsTo(set *model.CameraSet) int {
	n := 0
	for id, saved := range r.Cameras {
		cam, ok := set.Camera(id)
		if !ok {
			continue
		}
		cam.RestoreUser(saved)
		n++
	}
	if n == 0 {
		return 0
	}

	if _, ok := set.Camera(r.Current); ok {
		_ = set.Select(r.Current)
	}
	if set.CurrentCamera().AxisAllowed(r.Axis) {
		set.Axis = r.Axis
	}
	set.Page = r.Page
	set.Info = r.Info
	return n
}
