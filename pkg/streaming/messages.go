// Package streaming defines the messages exchanged with an external camera viewer.
package streaming

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl64"
)

// Message type constants matching the viewer protocol.
const (
	TypeHello          = "hello"
	TypeCreateSurface  = "create_surface"
	TypeReleaseSurface = "release_surface"
	TypeSetupCamera    = "setup_camera"
	TypeReleaseCamera  = "release_camera"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the viewer's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// HelloPayload identifies the extension session. It is replayed after a reconnect.
type HelloPayload struct {
	Session string `json:"session"`
	Version string `json:"version"`
}

// SurfacePayload announces or releases a render target.
type SurfacePayload struct {
	Surface string `json:"surface"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// CameraPayload places a camera on an owner and binds it to a surface.
type CameraPayload struct {
	Camera   string     `json:"camera"`
	Owner    string     `json:"owner,omitempty"`
	Surface  string     `json:"surface,omitempty"`
	Position mgl64.Vec3 `json:"position"`
	Forward  mgl64.Vec3 `json:"forward"`
	Up       mgl64.Vec3 `json:"up"`
	FOV      float64    `json:"fov"`
}
