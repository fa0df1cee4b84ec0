// Package instrument is one open camera display on an owner: it binds a shared
// camera set to render resources, negotiates control of the data with the
// owner and maps keys onto the adjustment controller.
package instrument

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/cameramfd/extension/internal/controller"
	"github.com/cameramfd/extension/internal/model"
	"github.com/cameramfd/extension/internal/registry"
	"github.com/cameramfd/extension/internal/render"
	"github.com/cameramfd/extension/internal/scenario"
	"github.com/cameramfd/extension/pkg/core"
	"github.com/cameramfd/extension/pkg/hostapi"
)

// Owner is the vehicle an instrument is opened on.
type Owner interface {
	// Name identifies the owner within the session.
	Name() string
	// ClassName names the owner's config file.
	ClassName() string
	// Attach offers the camera API for the given slot. Returning true claims
	// control of the camera data.
	Attach(slot int, api hostapi.CameraAPI) bool
	// Detach tells the owner the instrument on slot is gone.
	Detach(slot int)
}

// PoseSink receives every pose pushed to the renderer.
type PoseSink interface {
	RecordPose(owner string, slot, camera int, label string, pose render.Pose)
}

// Dependencies are shared by all instruments of a session.
type Dependencies struct {
	Registry *registry.Registry
	Render   render.Backend
	Poses    PoseSink
	Logger   *slog.Logger
}

// Config holds per-instrument settings.
type Config struct {
	Width     int
	Height    int
	ConfigFs  afero.Fs
	ConfigDir string
}

// Instrument is one open camera display.
type Instrument struct {
	id    string
	owner Owner
	slot  int
	deps  Dependencies
	cfg   Config
	log   *slog.Logger

	set  *model.CameraSet
	ctrl *controller.Controller

	dataExist   bool
	handshaken  bool
	attached    bool
	needsRedraw bool

	surface render.Surface
	camera  render.Camera
	closed  bool
}

var _ hostapi.CameraAPI = (*Instrument)(nil)

// Open creates an instrument on the (owner, slot) camera set, creating the set
// when none exists, and allocates its render resources.
func Open(owner Owner, slot int, deps Dependencies, cfg Config) *Instrument {
	if deps.Render == nil {
		deps.Render = render.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	in := &Instrument{
		id:    uuid.NewString(),
		owner: owner,
		slot:  slot,
		deps:  deps,
		cfg:   cfg,
	}
	in.log = deps.Logger.With("instrument", in.id, "owner", owner.Name(), "slot", slot)

	set, existed := deps.Registry.GetOrCreate(owner.Name(), slot)
	in.set = set
	in.dataExist = existed
	in.ctrl = controller.New(set, in)

	srf, err := deps.Render.CreateSurface(cfg.Width, cfg.Height)
	if err != nil {
		in.log.Debug("No render surface", "error", err)
	} else {
		in.surface = srf
	}

	set.Lock()
	in.ctrl.Refresh()
	set.Unlock()

	in.log.Info("Instrument opened", "existing", existed, "cameras", set.Len())
	return in
}

// ID is the unique id of this instrument instance.
func (in *Instrument) ID() string {
	return in.id
}

func (in *Instrument) Owner() Owner {
	return in.owner
}

func (in *Instrument) Slot() int {
	return in.slot
}

// Set returns the shared camera set. Callers lock it around direct access.
func (in *Instrument) Set() *model.CameraSet {
	return in.set
}

// InvalidateDisplay implements controller.Listener.
func (in *Instrument) InvalidateDisplay() {
	in.needsRedraw = true
}

// UpdatePose implements controller.Listener.
func (in *Instrument) UpdatePose(pose render.Pose) {
	if in.closed {
		return
	}
	if in.surface != nil {
		cam, err := in.deps.Render.SetupCamera(in.owner.Name(), in.camera, in.surface, pose)
		if err != nil {
			in.log.Warn("Camera setup failed", "error", err)
		} else {
			in.camera = cam
		}
	}
	if in.deps.Poses != nil {
		cur := in.set.CurrentCamera()
		in.deps.Poses.RecordPose(in.owner.Name(), in.slot, in.set.Current(), cur.Label, pose)
	}
}

// Close releases the instrument: the owner is told first, then the camera is
// released before the surface it renders into. Close is idempotent.
func (in *Instrument) Close() error {
	if in.closed {
		return nil
	}
	in.closed = true

	if in.attached {
		in.owner.Detach(in.slot)
	}

	var errs []error
	if in.camera != nil {
		if err := in.camera.Close(); err != nil {
			errs = append(errs, fmt.Errorf("releasing camera: %w", err))
		}
		in.camera = nil
	}
	if in.surface != nil {
		if err := in.surface.Close(); err != nil {
			errs = append(errs, fmt.Errorf("releasing surface: %w", err))
		}
		in.surface = nil
	}

	in.log.Info("Instrument closed")
	return errors.Join(errs...)
}

// Display is what the instrument shows over the camera image.
type Display struct {
	Title  string   `json:"title"`
	Info   []string `json:"info,omitempty"`
	Status string   `json:"status,omitempty"`
	Page   string   `json:"page"`
	Owned  bool     `json:"owned"`
	Redraw bool     `json:"redraw"`
}

// Update runs once per frame. The first call offers the camera API to the
// owner; a fresh set nobody claimed then falls back to the owner's config file.
func (in *Instrument) Update() Display {
	in.set.Lock()
	defer in.set.Unlock()

	if !in.handshaken {
		in.handshake()
	}

	d := Display{
		Title:  "Camera MFD",
		Info:   in.ctrl.InfoLines(),
		Page:   in.set.Page.String(),
		Owned:  in.set.OwnedByVehicle,
		Redraw: in.needsRedraw,
	}
	if in.camera == nil {
		d.Status = "Custom Camera Interface Disabled"
	}
	in.needsRedraw = false
	return d
}

// handshake must be called with the set locked.
func (in *Instrument) handshake() {
	in.handshaken = true

	in.set.Unlock()
	claimed := in.owner.Attach(in.slot, in)
	in.set.Lock()

	in.attached = true
	if claimed {
		in.set.OwnedByVehicle = true
		in.set.State = model.StateReady
		in.log.Info("Owner controls camera data")
		return
	}

	if in.set.State == model.StateAwaitingOwnerOrConfig {
		in.loadOwnerConfig()
		in.set.State = model.StateReady
	}
}

func (in *Instrument) loadOwnerConfig() {
	name := in.owner.ClassName()
	res, err := scenario.ReadConfig(name, scenario.Options{
		Fs:        in.cfg.ConfigFs,
		ConfigDir: in.cfg.ConfigDir,
		Logger:    in.log,
	})
	if err != nil {
		if errors.Is(err, scenario.ErrConfigNotFound) {
			in.log.Debug("No config for owner class", "class", name)
		} else {
			in.log.Warn("Config load failed", "class", name, "error", err)
		}
		return
	}
	if !res.HasCameras() {
		return
	}
	res.ApplyTo(in.set)
	in.dataExist = true
	in.ctrl.Refresh()
	in.log.Info("Loaded owner config", "class", name, "cameras", in.set.Len())
}

// WriteScenario saves the camera set in scenario format.
func (in *Instrument) WriteScenario(w io.Writer) error {
	in.set.Lock()
	defer in.set.Unlock()
	return scenario.Encode(w, in.set)
}

// ReadScenario restores the camera set from a scenario block. A block with
// cameras marks the data as existing so the owner config is not consulted.
// When the owner controls the set only the user offsets are restored.
func (in *Instrument) ReadScenario(r io.Reader) error {
	in.set.Lock()
	defer in.set.Unlock()

	owned := in.set.OwnedByVehicle
	res, err := scenario.Decode(r, scenario.Options{
		Fs:               in.cfg.ConfigFs,
		ConfigDir:        in.cfg.ConfigDir,
		DeferOrientation: owned,
		Source:           in.owner.Name(),
		Logger:           in.log,
	})
	if err != nil {
		return fmt.Errorf("reading scenario for %s: %w", in.owner.Name(), err)
	}

	if owned {
		n := res.ApplyOffsetsTo(in.set)
		in.log.Debug("Restored user offsets", "cameras", n)
	} else {
		res.ApplyTo(in.set)
		if res.HasCameras() {
			in.dataExist = true
			in.set.State = model.StateReady
		}
	}
	in.ctrl.Refresh()
	return nil
}

// The CameraAPI methods below are called by the owner, possibly from its own
// goroutine, so each takes the set lock.

func (in *Instrument) CameraDataExist() bool {
	in.set.Lock()
	defer in.set.Unlock()
	return in.dataExist
}

func (in *Instrument) CameraCount() int {
	in.set.Lock()
	defer in.set.Unlock()
	return in.ctrl.Count()
}

func (in *Instrument) CurrentCamera() int {
	in.set.Lock()
	defer in.set.Unlock()
	return in.ctrl.Current()
}

func (in *Instrument) CameraData(id int) (core.CameraData, error) {
	in.set.Lock()
	defer in.set.Unlock()
	return in.ctrl.CameraData(id)
}

func (in *Instrument) SetCurrentCamera(id int) error {
	in.set.Lock()
	defer in.set.Unlock()
	return in.ctrl.SetCurrent(id)
}

func (in *Instrument) SetCameraData(id int, data core.CameraData) error {
	in.set.Lock()
	defer in.set.Unlock()
	return in.ctrl.SetCameraData(id, data)
}

func (in *Instrument) AddCamera(id int) error {
	in.set.Lock()
	defer in.set.Unlock()
	return in.ctrl.AddCamera(id)
}

func (in *Instrument) AddCameraWithData(id int, data core.CameraData) error {
	in.set.Lock()
	defer in.set.Unlock()
	return in.ctrl.AddCameraWithData(id, data)
}

func (in *Instrument) DeleteCamera(id int) error {
	in.set.Lock()
	defer in.set.Unlock()
	return in.ctrl.DeleteCamera(id)
}
