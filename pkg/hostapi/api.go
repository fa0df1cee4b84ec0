// Package hostapi is the surface the host simulator and vehicle modules talk to:
// the camera capability interface and the command line protocol.
package hostapi

import "github.com/cameramfd/extension/pkg/core"

// CameraAPI is offered to an owner when an instrument opens on it. An owner
// that accepts it supplies the camera data itself.
//
// Errors wrap the model sentinels (invalid id, last camera, range).
type CameraAPI interface {
	// CameraDataExist reports whether the instrument found saved or
	// previously created camera data when it opened.
	CameraDataExist() bool
	CameraCount() int
	CurrentCamera() int
	CameraData(id int) (core.CameraData, error)
	SetCurrentCamera(id int) error
	// SetCameraData replaces the base data of a camera. FOV is clamped to [0, 80].
	SetCameraData(id int, data core.CameraData) error
	AddCamera(id int) error
	AddCameraWithData(id int, data core.CameraData) error
	DeleteCamera(id int) error
}
