package model

import "errors"

var (
	// ErrInvalidCameraID is returned for operations referencing an id that does not exist,
	// or adding an id that already does.
	ErrInvalidCameraID = errors.New("invalid camera id")
	// ErrLastCamera is returned when deleting the only camera of a set.
	ErrLastCamera = errors.New("cannot delete the last camera")
	// ErrPermissionDenied is returned when the camera's user control forbids the change.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrRangeViolation is returned for FOV or label values outside their domain.
	ErrRangeViolation = errors.New("value out of range")
)
