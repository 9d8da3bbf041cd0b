package x11

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/xgb/randr"

	"github.com/bryanchriswhite/screengrab/internal/logger"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// baseDPI is the X11 DPI that maps to a scale factor of 1
const baseDPI = 96.0

// output is one connected RandR output driving an active CRTC. A zero
// output stands in for the root window when RandR is unavailable.
type output struct {
	id      randr.Output
	name    string
	crtc    randr.Crtc
	primary bool
}

// Monitors enumerates connected RandR outputs with an active CRTC
func (b *Backend) Monitors() ([]screen.Monitor, error) {
	scale, err := screen.ResolveScale(b.hasXftDPI, b.xftScale, func() (float64, error) { return 1, nil })
	if err != nil {
		return nil, err
	}

	var res *randr.GetScreenResourcesCurrentReply
	list := func() ([]output, error) {
		if !b.randrEnabled {
			return []output{{}}, nil
		}
		var err error
		res, err = randr.GetScreenResourcesCurrent(b.c(), b.root).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get screen resources: %w", err)
		}
		outputs, err := b.activeOutputs(res)
		if err == nil && len(outputs) == 0 {
			return []output{{}}, nil
		}
		return outputs, err
	}
	decode := func(o output) (screen.RawMonitor, error) {
		if o.id == 0 {
			return b.rootMonitor(scale), nil
		}
		return b.decodeOutput(o, res, scale)
	}

	return screen.EnumerateMonitors(list, decode)
}

// activeOutputs keeps the outputs that are connected and lit
func (b *Backend) activeOutputs(res *randr.GetScreenResourcesCurrentReply) ([]output, error) {
	log := logger.WithComponent("x11-backend")

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(b.c(), b.root).Reply(); err == nil {
		primary = reply.Output
	}

	outputs := make([]output, 0, len(res.Outputs))
	for _, id := range res.Outputs {
		info, err := randr.GetOutputInfo(b.c(), id, res.ConfigTimestamp).Reply()
		if err != nil {
			log.Warn().Err(err).Uint32("output", uint32(id)).Msg("Failed to get output info")
			continue
		}
		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		outputs = append(outputs, output{
			id:      id,
			name:    string(info.Name),
			crtc:    info.Crtc,
			primary: id == primary,
		})
	}
	return outputs, nil
}

func (b *Backend) decodeOutput(o output, res *randr.GetScreenResourcesCurrentReply, scale float64) (screen.RawMonitor, error) {
	entry := fmt.Sprintf("output %s", o.name)

	crtc, err := randr.GetCrtcInfo(b.c(), o.crtc, res.ConfigTimestamp).Reply()
	if err != nil {
		return screen.RawMonitor{}, screen.NewFieldError(entry, "crtc", err)
	}
	rotation, err := rotationFromRandr(crtc.Rotation)
	if err != nil {
		return screen.RawMonitor{}, screen.NewFieldError(entry, "rotation", err)
	}

	var frequency float64
	for _, mode := range res.Modes {
		if mode.Id == uint32(crtc.Mode) {
			frequency = refreshRate(mode)
			break
		}
	}

	return screen.RawMonitor{
		ID:   uint32(o.id),
		Name: o.name,
		Bounds: screen.Rect{
			X:      int(crtc.X),
			Y:      int(crtc.Y),
			Width:  int(crtc.Width),
			Height: int(crtc.Height),
		},
		Rotation:    rotation,
		ScaleFactor: scale,
		Frequency:   frequency,
		Primary:     o.primary,
	}, nil
}

func (b *Backend) rootMonitor(scale float64) screen.RawMonitor {
	w, h := b.RootSize()
	return screen.RawMonitor{
		ID:          uint32(b.root),
		Name:        "root",
		Bounds:      screen.Rect{Width: w, Height: h},
		ScaleFactor: scale,
		Primary:     true,
	}
}

// rotationFromRandr maps the CRTC rotation bits to degrees. Reflection bits
// are ignored.
func rotationFromRandr(bits uint16) (screen.Rotation, error) {
	switch bits &^ (randr.RotationReflectX | randr.RotationReflectY) {
	case randr.RotationRotate0:
		return screen.Rotate0, nil
	case randr.RotationRotate90:
		return screen.Rotate90, nil
	case randr.RotationRotate180:
		return screen.Rotate180, nil
	case randr.RotationRotate270:
		return screen.Rotate270, nil
	}
	return 0, fmt.Errorf("rotation bits %#x", bits)
}

const (
	modeFlagInterlace  = 1 << 4
	modeFlagDoubleScan = 1 << 5
)

// refreshRate derives the vertical refresh in Hz from a mode line
func refreshRate(m randr.ModeInfo) float64 {
	vtotal := float64(m.Vtotal)
	if m.ModeFlags&modeFlagDoubleScan != 0 {
		vtotal *= 2
	}
	if m.ModeFlags&modeFlagInterlace != 0 {
		vtotal /= 2
	}
	if m.Htotal == 0 || vtotal == 0 {
		return 0
	}
	return float64(m.DotClock) / (float64(m.Htotal) * vtotal)
}

// hasXftDPI reports whether the resource database sets Xft.dpi, the X11
// equivalent of the process being DPI aware
func (b *Backend) hasXftDPI() (bool, error) {
	db, err := b.getProperty(b.root, "RESOURCE_MANAGER")
	if err != nil {
		return false, nil
	}
	_, ok := parseXftDPI(db)
	return ok, nil
}

func (b *Backend) xftScale() (float64, error) {
	db, err := b.getProperty(b.root, "RESOURCE_MANAGER")
	if err != nil {
		return 0, err
	}
	dpi, ok := parseXftDPI(db)
	if !ok {
		return 0, errors.New("no Xft.dpi in resource database")
	}
	return dpi / baseDPI, nil
}

// parseXftDPI finds Xft.dpi in an X resource database string
func parseXftDPI(db string) (float64, bool) {
	sc := bufio.NewScanner(strings.NewReader(db))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Xft.dpi" {
			continue
		}
		dpi, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || dpi <= 0 {
			return 0, false
		}
		return dpi, true
	}
	return 0, false
}
