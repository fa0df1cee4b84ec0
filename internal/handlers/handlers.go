package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/cameramfd/extension/internal/dispatcher"
	"github.com/cameramfd/extension/internal/instrument"
	"github.com/cameramfd/extension/internal/logging"
	"github.com/cameramfd/extension/internal/model/convert"
	"github.com/cameramfd/extension/internal/registry"
	"github.com/cameramfd/extension/internal/render"
	"github.com/cameramfd/extension/internal/scenario"
	"github.com/cameramfd/extension/internal/storage"
	"github.com/cameramfd/extension/pkg/core"
	"github.com/cameramfd/extension/pkg/hostapi"
)

var (
	ErrUnknownOwner = errors.New("unknown owner")
	ErrNotOpen      = errors.New("no instrument open")
	// ErrNotAttached is returned by :CAM: commands before the instrument
	// offered its camera API to the owner.
	ErrNotAttached = errors.New("camera api not offered")
	ErrNoStorage   = errors.New("no storage backend")
	ErrBadArgs     = errors.New("bad arguments")
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Registry         *registry.Registry
	Render           render.Backend
	Poses            instrument.PoseSink
	LogManager       *logging.SlogManager
	ConfigFs         afero.Fs
	ConfigDir        string
	Width            int
	Height           int
	ExtensionVersion string
	BuildDate        string
}

// Service owns the vessels and open instruments of a session and answers
// host commands for them.
type Service struct {
	deps         Dependencies
	writeLogFunc func(functionName, data, level string)
	backend      storage.Backend
	now          func() time.Time

	mu          sync.Mutex
	owners      map[string]*vesselOwner
	instruments map[registry.Key]*instrument.Instrument
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Registry == nil {
		deps.Registry = registry.New()
	}
	if deps.ConfigFs == nil {
		deps.ConfigFs = afero.NewOsFs()
	}
	s := &Service{
		deps:        deps,
		now:         time.Now,
		owners:      make(map[string]*vesselOwner),
		instruments: make(map[registry.Key]*instrument.Instrument),
	}
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	return s
}

// SetBackend sets the storage backend used by :SAVE: and :LOAD:
func (s *Service) SetBackend(b storage.Backend) {
	s.backend = b
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

func (s *Service) logger() *slog.Logger {
	if s.deps.LogManager != nil {
		if l := s.deps.LogManager.Logger(); l != nil {
			return l
		}
	}
	return slog.Default()
}

// OpenCount reports the number of open instruments. It feeds the log context.
func (s *Service) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.instruments)
}

// CameraSetCount reports the number of camera sets in the registry.
func (s *Service) CameraSetCount() int {
	return s.deps.Registry.Len()
}

// LogContext is a logging.ContextProvider for the session state.
func (s *Service) LogContext() []slog.Attr {
	return []slog.Attr{slog.Int("openInstruments", s.OpenCount())}
}

// Register installs the command handlers on d.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	d.Register(":VERSION:", func(e dispatcher.Event) (any, error) {
		return []string{s.deps.ExtensionVersion, s.deps.BuildDate}, nil
	})

	d.Register(":VESSEL:NEW:", s.handleVesselNew, dispatcher.Logged())
	d.Register(":VESSEL:DELETE:", s.handleVesselDelete, dispatcher.Logged())
	d.Register(":VIEWPORT:CLOSE:", s.handleViewportClose, dispatcher.Logged())

	d.Register(":MFD:OPEN:", s.handleOpen, dispatcher.Logged())
	d.Register(":MFD:CLOSE:", s.handleClose, dispatcher.Logged())
	d.Register(":MFD:UPDATE:", s.handleUpdate)
	d.Register(":KEY:", s.handleKey, dispatcher.Logged())

	d.Register(":CAM:COUNT:", s.handleCamCount)
	d.Register(":CAM:CURRENT:", s.handleCamCurrent)
	d.Register(":CAM:DATA:", s.handleCamData)
	d.Register(":CAM:SET:", s.handleCamSet)
	d.Register(":CAM:ADD:", s.handleCamAdd)
	d.Register(":CAM:DELETE:", s.handleCamDelete)
	d.Register(":CAM:LABEL:", s.handleCamLabel, dispatcher.Logged())

	d.Register(":SAVE:", s.handleSave, dispatcher.Logged())
	d.Register(":LOAD:", s.handleLoad, dispatcher.Logged())
	d.Register(":SCENARIO:WRITE:", s.handleScenarioWrite)
	d.Register(":SCENARIO:READ:", s.handleScenarioRead, dispatcher.Logged())

	d.Register(":COMMANDS:", func(dispatcher.Event) (any, error) {
		return d.Commands(), nil
	})
}

// arguments

func argAt(args []string, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: missing argument %d", ErrBadArgs, i)
	}
	return strings.TrimSpace(args[i]), nil
}

func intArg(args []string, i int) (int, error) {
	raw, err := argAt(args, i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrBadArgs, raw)
	}
	return v, nil
}

// target reads the owner|slot prefix shared by most commands.
func target(args []string) (string, int, error) {
	owner, err := argAt(args, 0)
	if err != nil {
		return "", 0, err
	}
	if owner == "" {
		return "", 0, fmt.Errorf("%w: empty owner", ErrBadArgs)
	}
	slot, err := intArg(args, 1)
	if err != nil {
		return "", 0, err
	}
	return owner, slot, nil
}

func (s *Service) lookup(args []string) (*instrument.Instrument, error) {
	owner, slot, err := target(args)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.instruments[registry.Key{Owner: owner, Slot: slot}]
	if !ok {
		return nil, fmt.Errorf("%s/%d: %w", owner, slot, ErrNotOpen)
	}
	return in, nil
}

// cameraAPI returns the API the instrument on owner|slot offered its owner.
func (s *Service) cameraAPI(args []string) (hostapi.CameraAPI, error) {
	in, err := s.lookup(args)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	v := s.owners[in.Owner().Name()]
	s.mu.Unlock()
	if v == nil {
		return nil, fmt.Errorf("%s: %w", in.Owner().Name(), ErrUnknownOwner)
	}
	api, ok := v.api(in.Slot())
	if !ok {
		return nil, fmt.Errorf("%s/%d: %w", v.name, in.Slot(), ErrNotAttached)
	}
	return api, nil
}

// vessels

// handleVesselNew announces a vessel: name|class[|claims[|presets]]. presets is
// a JSON array of camera data the vessel installs when it claims its cameras.
func (s *Service) handleVesselNew(e dispatcher.Event) (any, error) {
	name, err := argAt(e.Args, 0)
	if err != nil {
		return nil, err
	}
	class, err := argAt(e.Args, 1)
	if err != nil {
		return nil, err
	}
	claims := false
	if raw, err := argAt(e.Args, 2); err == nil && raw != "" {
		claims, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: claims %q", ErrBadArgs, raw)
		}
	}
	var presets []core.CameraData
	if raw, err := argAt(e.Args, 3); err == nil && raw != "" {
		if err := json.Unmarshal([]byte(raw), &presets); err != nil {
			s.writeLog(":VESSEL:NEW:", fmt.Sprintf("Error unmarshalling presets of %s: %v", name, err), "ERROR")
			return nil, fmt.Errorf("%w: presets: %v", ErrBadArgs, err)
		}
	}

	s.mu.Lock()
	s.owners[name] = newVesselOwner(name, class, claims, presets)
	s.mu.Unlock()

	s.logger().Info("Vessel registered", "vessel", name, "class", class, "claims", claims, "presets", len(presets))
	return "ok", nil
}

// handleVesselDelete closes the vessel's instruments and drops its camera sets
// and saved snapshots. It returns the number of sets dropped.
func (s *Service) handleVesselDelete(e dispatcher.Event) (any, error) {
	name, err := argAt(e.Args, 0)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	var open []*instrument.Instrument
	for k, in := range s.instruments {
		if k.Owner == name {
			open = append(open, in)
			delete(s.instruments, k)
		}
	}
	delete(s.owners, name)
	s.mu.Unlock()

	for _, in := range open {
		if err := in.Close(); err != nil {
			s.logger().Warn("Instrument close failed", "vessel", name, "error", err)
		}
	}

	removed := s.deps.Registry.Remove(name)
	if s.backend != nil {
		n, err := s.backend.DeleteOwner(name)
		if err != nil {
			s.writeLog(":VESSEL:DELETE:", fmt.Sprintf("Error deleting snapshots of %s: %v", name, err), "ERROR")
			return nil, err
		}
		s.logger().Debug("Snapshots deleted", "vessel", name, "count", n)
	}
	return removed, nil
}

// handleViewportClose ends the session: every instrument is closed and every
// camera set dropped.
func (s *Service) handleViewportClose(e dispatcher.Event) (any, error) {
	return "ok", s.CloseAll()
}

// CloseAll closes every instrument and clears the registry.
func (s *Service) CloseAll() error {
	s.mu.Lock()
	open := make([]*instrument.Instrument, 0, len(s.instruments))
	for _, in := range s.instruments {
		open = append(open, in)
	}
	s.instruments = make(map[registry.Key]*instrument.Instrument)
	s.mu.Unlock()

	var errs []error
	for _, in := range open {
		errs = append(errs, in.Close())
	}
	s.deps.Registry.ClearAll()
	return errors.Join(errs...)
}

// instruments

// handleOpen opens an instrument on owner|slot and returns its id. An
// instrument already open on the key is closed first.
func (s *Service) handleOpen(e dispatcher.Event) (any, error) {
	owner, slot, err := target(e.Args)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	v, ok := s.owners[owner]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", owner, ErrUnknownOwner)
	}
	k := registry.Key{Owner: owner, Slot: slot}
	prev := s.instruments[k]
	delete(s.instruments, k)
	s.mu.Unlock()

	if prev != nil {
		if err := prev.Close(); err != nil {
			s.logger().Warn("Instrument close failed", "vessel", owner, "slot", slot, "error", err)
		}
	}

	in := instrument.Open(v, slot, instrument.Dependencies{
		Registry: s.deps.Registry,
		Render:   s.deps.Render,
		Poses:    s.deps.Poses,
		Logger:   s.logger(),
	}, instrument.Config{
		Width:     s.deps.Width,
		Height:    s.deps.Height,
		ConfigFs:  s.deps.ConfigFs,
		ConfigDir: s.deps.ConfigDir,
	})

	s.mu.Lock()
	s.instruments[k] = in
	s.mu.Unlock()
	return in.ID(), nil
}

func (s *Service) handleClose(e dispatcher.Event) (any, error) {
	in, err := s.lookup(e.Args)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	delete(s.instruments, registry.Key{Owner: in.Owner().Name(), Slot: in.Slot()})
	s.mu.Unlock()
	return "ok", in.Close()
}

func (s *Service) handleUpdate(e dispatcher.Event) (any, error) {
	in, err := s.lookup(e.Args)
	if err != nil {
		return nil, err
	}
	return in.Update(), nil
}

// handleKey feeds owner|slot|key to the instrument and returns the display.
func (s *Service) handleKey(e dispatcher.Event) (any, error) {
	in, err := s.lookup(e.Args)
	if err != nil {
		return nil, err
	}
	key, err := argAt(e.Args, 2)
	if err != nil {
		return nil, err
	}
	if err := in.ConsumeKey(key); err != nil {
		return nil, err
	}
	return in.Update(), nil
}

// camera api

func (s *Service) handleCamCount(e dispatcher.Event) (any, error) {
	api, err := s.cameraAPI(e.Args)
	if err != nil {
		return nil, err
	}
	return api.CameraCount(), nil
}

// handleCamCurrent returns the current camera, selecting owner|slot|id first
// when an id is given.
func (s *Service) handleCamCurrent(e dispatcher.Event) (any, error) {
	api, err := s.cameraAPI(e.Args)
	if err != nil {
		return nil, err
	}
	if len(e.Args) > 2 {
		id, err := intArg(e.Args, 2)
		if err != nil {
			return nil, err
		}
		if err := api.SetCurrentCamera(id); err != nil {
			return nil, err
		}
	}
	return api.CurrentCamera(), nil
}

func (s *Service) handleCamData(e dispatcher.Event) (any, error) {
	api, err := s.cameraAPI(e.Args)
	if err != nil {
		return nil, err
	}
	id, err := intArg(e.Args, 2)
	if err != nil {
		return nil, err
	}
	return api.CameraData(id)
}

func cameraDataArg(args []string, i int) (core.CameraData, error) {
	raw, err := argAt(args, i)
	if err != nil {
		return core.CameraData{}, err
	}
	var d core.CameraData
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return core.CameraData{}, fmt.Errorf("%w: camera data: %v", ErrBadArgs, err)
	}
	return d, nil
}

// handleCamSet replaces camera data: owner|slot|id|json.
func (s *Service) handleCamSet(e dispatcher.Event) (any, error) {
	api, err := s.cameraAPI(e.Args)
	if err != nil {
		return nil, err
	}
	id, err := intArg(e.Args, 2)
	if err != nil {
		return nil, err
	}
	d, err := cameraDataArg(e.Args, 3)
	if err != nil {
		return nil, err
	}
	return "ok", api.SetCameraData(id, d)
}

// handleCamAdd adds a camera: owner|slot|id[|json].
func (s *Service) handleCamAdd(e dispatcher.Event) (any, error) {
	api, err := s.cameraAPI(e.Args)
	if err != nil {
		return nil, err
	}
	id, err := intArg(e.Args, 2)
	if err != nil {
		return nil, err
	}
	if len(e.Args) > 3 {
		d, err := cameraDataArg(e.Args, 3)
		if err != nil {
			return nil, err
		}
		return "ok", api.AddCameraWithData(id, d)
	}
	return "ok", api.AddCamera(id)
}

func (s *Service) handleCamDelete(e dispatcher.Event) (any, error) {
	api, err := s.cameraAPI(e.Args)
	if err != nil {
		return nil, err
	}
	id, err := intArg(e.Args, 2)
	if err != nil {
		return nil, err
	}
	return "ok", api.DeleteCamera(id)
}

// handleCamLabel is the answer to the label prompt of the L key. The rest of
// the line is the label, so it may contain the separator.
func (s *Service) handleCamLabel(e dispatcher.Event) (any, error) {
	in, err := s.lookup(e.Args)
	if err != nil {
		return nil, err
	}
	if len(e.Args) < 3 {
		return nil, fmt.Errorf("%w: missing label", ErrBadArgs)
	}
	return "ok", in.SetLabel(strings.Join(e.Args[2:], "|"))
}

// persistence

func (s *Service) snapshot(in *instrument.Instrument) (core.Snapshot, error) {
	var buf bytes.Buffer
	if err := in.WriteScenario(&buf); err != nil {
		return core.Snapshot{}, err
	}
	set := in.Set()
	set.Lock()
	defer set.Unlock()
	return convert.NewSnapshot(in.Owner().Name(), in.Slot(), buf.String(), set, s.now()), nil
}

// handleSave stores the scenario of owner|slot, or of every open instrument
// when no target is given. It returns the number of snapshots saved.
func (s *Service) handleSave(e dispatcher.Event) (any, error) {
	if s.backend == nil {
		return nil, ErrNoStorage
	}

	var targets []*instrument.Instrument
	if len(e.Args) == 0 || (len(e.Args) == 1 && strings.TrimSpace(e.Args[0]) == "") {
		s.mu.Lock()
		for _, in := range s.instruments {
			targets = append(targets, in)
		}
		s.mu.Unlock()
		sort.Slice(targets, func(i, j int) bool {
			if targets[i].Owner().Name() != targets[j].Owner().Name() {
				return targets[i].Owner().Name() < targets[j].Owner().Name()
			}
			return targets[i].Slot() < targets[j].Slot()
		})
	} else {
		in, err := s.lookup(e.Args)
		if err != nil {
			return nil, err
		}
		targets = append(targets, in)
	}

	for _, in := range targets {
		snap, err := s.snapshot(in)
		if err != nil {
			return nil, err
		}
		if err := s.backend.SaveSnapshot(&snap); err != nil {
			s.writeLog(":SAVE:", fmt.Sprintf("Error saving %s/%d: %v", snap.Owner, snap.Slot, err), "ERROR")
			return nil, err
		}
	}
	return len(targets), nil
}

// handleLoad restores owner|slot from its saved snapshot.
func (s *Service) handleLoad(e dispatcher.Event) (any, error) {
	if s.backend == nil {
		return nil, ErrNoStorage
	}
	in, err := s.lookup(e.Args)
	if err != nil {
		return nil, err
	}
	snap, err := s.backend.LoadSnapshot(in.Owner().Name(), in.Slot())
	if err != nil {
		return nil, err
	}
	if err := in.ReadScenario(strings.NewReader(snap.Scenario)); err != nil {
		s.writeLog(":LOAD:", fmt.Sprintf("Error restoring %s/%d: %v", snap.Owner, snap.Slot, err), "ERROR")
		return nil, err
	}
	return in.CameraCount(), nil
}

// handleScenarioWrite returns the scenario block of owner|slot, one line per
// element.
func (s *Service) handleScenarioWrite(e dispatcher.Event) (any, error) {
	in, err := s.lookup(e.Args)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := in.WriteScenario(&buf); err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n"), nil
}

// handleScenarioRead restores owner|slot from the lines that follow. Label
// lines split by the host are rejoined.
func (s *Service) handleScenarioRead(e dispatcher.Event) (any, error) {
	in, err := s.lookup(e.Args)
	if err != nil {
		return nil, err
	}
	body := scenario.JoinLines(e.Args[2:])
	if err := in.ReadScenario(strings.NewReader(body)); err != nil {
		return nil, err
	}
	return in.CameraCount(), nil
}
