// Package wsview is a render backend that streams camera poses to an external
// viewer over WebSocket. The viewer renders; this side only describes.
package wsview

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/cameramfd/extension/internal/render"
	"github.com/cameramfd/extension/pkg/streaming"
)

// Config holds viewer connection settings.
type Config struct {
	URL     string
	Token   string
	Session string
	Version string
}

// Backend implements render.Backend against a viewer connection.
type Backend struct {
	conn *connection
	cfg  Config
}

var _ render.Backend = (*Backend)(nil)

func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger),
		cfg:  cfg,
	}
}

// Init connects to the viewer and introduces the session.
func (b *Backend) Init() error {
	hello, err := marshalEnvelope(streaming.TypeHello, streaming.HelloPayload{
		Session: b.cfg.Session,
		Version: b.cfg.Version,
	})
	if err != nil {
		return err
	}
	return b.conn.dial(b.cfg.URL, b.cfg.Token, hello)
}

// Close disconnects from the viewer.
func (b *Backend) Close() error {
	return b.conn.close()
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// CreateSurface announces a render target and waits for the viewer to accept it.
func (b *Backend) CreateSurface(width, height int) (render.Surface, error) {
	s := &surface{id: uuid.NewString(), b: b}
	data, err := marshalEnvelope(streaming.TypeCreateSurface, streaming.SurfacePayload{
		Surface: s.id,
		Width:   width,
		Height:  height,
	})
	if err != nil {
		return nil, err
	}
	if err := b.conn.sendAndWait(data, streaming.TypeCreateSurface, ackTimeout); err != nil {
		return nil, fmt.Errorf("create surface: %w", err)
	}
	return s, nil
}

// SetupCamera sends the pose. An existing camera from this backend keeps its
// id. Poses the viewer has not been sent yet are replaced, not queued.
func (b *Backend) SetupCamera(owner string, existing render.Camera, srf render.Surface, pose render.Pose) (render.Camera, error) {
	cam, ok := existing.(*camera)
	if !ok || cam == nil {
		cam = &camera{id: uuid.NewString(), b: b}
	}

	p := streaming.CameraPayload{
		Camera:   cam.id,
		Owner:    owner,
		Position: pose.Position,
		Forward:  pose.Forward,
		Up:       pose.Up,
		FOV:      pose.FOV,
	}
	if srf != nil {
		p.Surface = srf.ID()
	}
	data, err := marshalEnvelope(streaming.TypeSetupCamera, p)
	if err != nil {
		return nil, err
	}
	b.conn.sendPose(cam.id, data)
	return cam, nil
}

type surface struct {
	id   string
	b    *Backend
	once sync.Once
}

func (s *surface) ID() string {
	return s.id
}

func (s *surface) Close() error {
	var err error
	s.once.Do(func() {
		err = s.b.sendEnvelope(streaming.TypeReleaseSurface, streaming.SurfacePayload{Surface: s.id})
	})
	return err
}

type camera struct {
	id   string
	b    *Backend
	once sync.Once
}

func (c *camera) Close() error {
	var err error
	c.once.Do(func() {
		err = c.b.sendEnvelope(streaming.TypeReleaseCamera, streaming.CameraPayload{Camera: c.id})
	})
	return err
}
