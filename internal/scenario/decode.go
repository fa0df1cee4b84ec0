package scenario

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/afero"

	"github.com/cameramfd/extension/internal/model"
)

// maxConfigDepth bounds CCFG chains so config files naming each other terminate.
const maxConfigDepth = 4

// Options controls decoding.
type Options struct {
	// Fs and ConfigDir locate files named by CCFG lines.
	Fs        afero.Fs
	ConfigDir string
	// DeferOrientation leaves orientations unbuilt and FOVs unclamped
	// because the owner supplies the base data the offsets apply to.
	DeferOrientation bool
	// Source names the input in parse errors.
	Source string
	// Logger receives skipped lines at debug level. Nil means slog.Default.
	Logger *slog.Logger
}

// Decode reads one scenario block from r. Reading stops at END_MFD or EOF.
// Unknown tags and lines with malformed values are skipped. A camera field
// before any CCAM line fails the decode with ErrMissingCamera.
func Decode(r io.Reader, opts Options) (*Result, error) {
	return decode(r, opts, 0)
}

// ReadConfig decodes the config file <name>.cfg from opts.ConfigDir.
func ReadConfig(name string, opts Options) (*Result, error) {
	return readConfig(name, opts, 0)
}

func readConfig(name string, opts Options, depth int) (*Result, error) {
	if depth >= maxConfigDepth {
		return nil, fmt.Errorf("reading config %q: %w", name, ErrConfigDepth)
	}
	if opts.Fs == nil {
		return nil, fmt.Errorf("reading config %q: no filesystem: %w", name, ErrConfigNotFound)
	}

	p := filepath.Join(opts.ConfigDir, name+ConfigExt)
	f, err := opts.Fs.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %q: %w", p, ErrConfigNotFound)
		}
		return nil, fmt.Errorf("reading config %q: %w", p, err)
	}
	defer f.Close()

	sub := opts
	sub.Source = p
	res, err := decode(f, sub, depth+1)
	if err != nil {
		return nil, err
	}
	res.FromConfig = true
	if res.ConfigName == "" {
		res.ConfigName = name
	}
	return res, nil
}

type decoder struct {
	opts   Options
	log    *slog.Logger
	res    *Result
	cam    *model.Camera
	lineNo int
	// seenCamera is set by the first CCAM line, valid or not.
	seenCamera bool
}

func decode(r io.Reader, opts Options, depth int) (*Result, error) {
	d := &decoder{
		opts: opts,
		log:  opts.Logger,
		res: &Result{
			Cameras: make(map[int]*model.Camera),
			Current: -1,
			Axis:    model.AxisPosition,
			Page:    model.PageMovement,
			Info:    model.InfoMinimal,
		},
	}

	if d.log == nil {
		d.log = slog.Default()
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		d.lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == EndBlock {
			break
		}

		content := strings.TrimLeft(line, " \t")
		tag, rest := content, ""
		if i := strings.IndexAny(content, " \t"); i >= 0 {
			tag, rest = content[:i], content[i+1:]
		}

		if tag == TagConfig {
			name := strings.TrimSpace(rest)
			res, err := readConfig(name, opts, depth)
			if err != nil {
				return nil, d.wrap(err)
			}
			res.ConfigName = name
			return res, nil
		}

		if err := d.field(tag, rest); err != nil {
			if errors.Is(err, ErrMissingCamera) {
				return nil, d.wrap(err)
			}
			d.log.Debug("Skipping scenario line", "source", opts.Source, "line", d.lineNo, "error", err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	d.finish()
	return d.res, nil
}

func (d *decoder) wrap(err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &ParseError{Source: d.opts.Source, Line: d.lineNo, Err: err}
}

func (d *decoder) field(tag, rest string) error {
	switch tag {
	case TagAdjust:
		v, err := parseInt(tag, rest)
		if err != nil {
			return err
		}
		if a := model.Axis(v); a.Valid() {
			d.res.Axis = a
		}
		return nil
	case TagPage:
		v, err := parseInt(tag, rest)
		if err != nil {
			return err
		}
		if p := model.Page(v); p.Valid() {
			d.res.Page = p
		}
		return nil
	case TagInfo:
		v, err := parseInt(tag, rest)
		if err != nil {
			return err
		}
		if i := model.Info(v); i.Valid() {
			d.res.Info = i
		}
		return nil
	case TagCurrentCamera:
		v, err := parseInt(tag, rest)
		if err != nil {
			return err
		}
		d.res.Current = v
		return nil
	case TagCamera:
		d.seenCamera = true
		// fields up to the next good CCAM belong to no camera
		d.cam = nil
		id, err := parseInt(tag, rest)
		if err != nil {
			return err
		}
		if id < 0 {
			return fmt.Errorf("%s %d: %w", tag, id, model.ErrInvalidCameraID)
		}
		d.cam = model.NewCamera(id)
		d.res.Cameras[id] = d.cam
		return nil
	}

	if !isCameraTag(tag) {
		return nil
	}
	if !d.seenCamera {
		return fmt.Errorf("%s: %w", tag, ErrMissingCamera)
	}
	if d.cam == nil {
		return fmt.Errorf("%s: no valid CCAM before it", tag)
	}

	c := d.cam
	switch tag {
	case TagLabel:
		c.Label = rest
	case TagPos, TagUserPos:
		v, err := parseVec(tag, rest)
		if err != nil {
			return err
		}
		if tag == TagPos {
			c.Pos = v
		} else {
			c.UserPos = v
		}
	default:
		v, err := parseFloat(tag, rest)
		if err != nil {
			return err
		}
		*floatField(c, tag) = v
	}
	return nil
}

func floatField(c *model.Camera, tag string) *float64 {
	switch tag {
	case TagPitch:
		return &c.PitchAngle
	case TagYaw:
		return &c.YawAngle
	case TagRot:
		return &c.RotAngle
	case TagUserPitch:
		return &c.UserPitch
	case TagUserYaw:
		return &c.UserYaw
	case TagUserRot:
		return &c.UserRot
	case TagFOV:
		return &c.FOV
	}
	return &c.UserFOV
}

// JoinLines rebuilds a scenario block from lines the host split on '|'.
// Labels may contain '|', so a fragment that follows a CLBL line and does not
// start with a known tag is glued back onto that label.
func JoinLines(parts []string) string {
	var b strings.Builder
	inLabel := false
	for i, p := range parts {
		tag := ""
		if f := strings.Fields(p); len(f) > 0 {
			tag = f[0]
		}
		switch {
		case inLabel && !isTag(tag):
			b.WriteByte('|')
		case i > 0:
			b.WriteByte('\n')
			inLabel = tag == TagLabel
		default:
			inLabel = tag == TagLabel
		}
		b.WriteString(p)
	}
	return b.String()
}

func isTag(word string) bool {
	switch word {
	case TagAdjust, TagPage, TagInfo, TagCamera, TagCurrentCamera, TagConfig, EndBlock:
		return true
	}
	return isCameraTag(word)
}

func isCameraTag(tag string) bool {
	switch tag {
	case TagLabel, TagPos, TagPitch, TagYaw, TagRot,
		TagUserPos, TagUserPitch, TagUserYaw, TagUserRot,
		TagFOV, TagUserFOV:
		return true
	}
	return false
}

func (d *decoder) finish() {
	res := d.res
	if _, ok := res.Cameras[res.Current]; !ok {
		res.Current = -1
		for id := range res.Cameras {
			if res.Current < 0 || id < res.Current {
				res.Current = id
			}
		}
		if res.Current < 0 {
			res.Current = 0
		}
	}

	for _, c := range res.Cameras {
		c.DeriveMultipleAxes()
		if !d.opts.DeferOrientation {
			c.ClampFOV()
			c.RebuildOrientation()
		}
	}
}

func parseInt(tag, s string) (int, error) {
	f := strings.Fields(s)
	if len(f) == 0 {
		return 0, fmt.Errorf("%s: missing value", tag)
	}
	v, err := strconv.Atoi(f[0])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", tag, err)
	}
	return v, nil
}

func parseFloat(tag, s string) (float64, error) {
	f := strings.Fields(s)
	if len(f) == 0 {
		return 0, fmt.Errorf("%s: missing value", tag)
	}
	v, err := strconv.ParseFloat(f[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", tag, err)
	}
	return v, nil
}

func parseVec(tag, s string) (mgl64.Vec3, error) {
	f := strings.Fields(s)
	if len(f) < 3 {
		return mgl64.Vec3{}, fmt.Errorf("%s: want 3 components, got %d", tag, len(f))
	}
	var v mgl64.Vec3
	for i := range 3 {
		x, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("%s: %w", tag, err)
		}
		v[i] = x
	}
	return v, nil
}
