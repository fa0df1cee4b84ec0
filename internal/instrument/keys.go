package instrument

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cameramfd/extension/internal/controller"
	"github.com/cameramfd/extension/internal/model"
)

var (
	ErrUnknownKey = errors.New("unknown key")
	// ErrInputRequired is returned for keys that need text from the user.
	// The host prompts and calls SetLabel.
	ErrInputRequired = errors.New("input required")
)

type keyFunc func(in *Instrument) error

var movementKeys = map[string]keyFunc{
	"A": move(controller.Left),
	"D": move(controller.Right),
	"W": move(controller.Up),
	"S": move(controller.Down),
	"Q": move(controller.Forward),
	"E": move(controller.Backward),
	"Z": zoom(-1),
	"X": zoom(1),
	"J": func(in *Instrument) error { return in.ctrl.CycleAxis() },
	"R": func(in *Instrument) error { return in.ctrl.Reset() },
	"L": func(in *Instrument) error {
		if in.set.OwnedByVehicle {
			return fmt.Errorf("label: %w", model.ErrPermissionDenied)
		}
		return ErrInputRequired
	},
	"P": cyclePage,
}

var managementKeys = map[string]keyFunc{
	"C": func(in *Instrument) error { return in.ctrl.NextCamera() },
	"V": func(in *Instrument) error { return in.ctrl.PreviousCamera() },
	"G": func(in *Instrument) error {
		if in.set.OwnedByVehicle {
			return fmt.Errorf("add camera: %w", model.ErrPermissionDenied)
		}
		_, err := in.ctrl.AddNextCamera()
		return err
	},
	"H": func(in *Instrument) error {
		if in.set.OwnedByVehicle {
			return fmt.Errorf("delete camera: %w", model.ErrPermissionDenied)
		}
		return in.ctrl.DeleteCamera(in.set.Current())
	},
	"I": func(in *Instrument) error {
		in.ctrl.CycleInfo()
		return nil
	},
	"P": cyclePage,
}

func move(d controller.Direction) keyFunc {
	return func(in *Instrument) error { return in.ctrl.Move(d) }
}

func zoom(sign int) keyFunc {
	return func(in *Instrument) error { return in.ctrl.ChangeFOV(sign) }
}

func cyclePage(in *Instrument) error {
	in.ctrl.CyclePage()
	return nil
}

// Button is one entry of the instrument's button menu.
type Button struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var movementButtons = []Button{
	{"A", "Left"}, {"D", "Right"}, {"W", "Up"}, {"S", "Down"},
	{"Q", "Forward"}, {"E", "Backward"}, {"Z", "Zoom in"}, {"X", "Zoom out"},
	{"J", "Cycle axis"}, {"R", "Reset"}, {"L", "Set label"}, {"P", "Page"},
}

var managementButtons = []Button{
	{"C", "Next camera"}, {"V", "Previous camera"}, {"G", "Add camera"},
	{"H", "Delete camera"}, {"I", "Info level"}, {"P", "Page"},
}

func keysFor(p model.Page) map[string]keyFunc {
	if p == model.PageCameraManagement {
		return managementKeys
	}
	return movementKeys
}

// ConsumeKey performs the action bound to key on the current page. Keys are
// case insensitive.
func (in *Instrument) ConsumeKey(key string) error {
	key = strings.ToUpper(strings.TrimSpace(key))

	in.set.Lock()
	defer in.set.Unlock()

	if fn, ok := keysFor(in.set.Page)[key]; ok {
		if err := fn(in); err != nil {
			return err
		}
		in.needsRedraw = true
		return nil
	}

	other := model.PageCameraManagement
	if in.set.Page == model.PageCameraManagement {
		other = model.PageMovement
	}
	if _, ok := keysFor(other)[key]; ok {
		return fmt.Errorf("key %s: %w", key, controller.ErrWrongPage)
	}
	return fmt.Errorf("key %q: %w", key, ErrUnknownKey)
}

// Buttons lists the keys of the current page.
func (in *Instrument) Buttons() []Button {
	in.set.Lock()
	defer in.set.Unlock()
	if in.set.Page == model.PageCameraManagement {
		return managementButtons
	}
	return movementButtons
}

// SetLabel renames the current camera. It completes the label key.
func (in *Instrument) SetLabel(label string) error {
	in.set.Lock()
	defer in.set.Unlock()
	if in.set.OwnedByVehicle {
		return fmt.Errorf("label: %w", model.ErrPermissionDenied)
	}
	return in.ctrl.SetLabel(label)
}
