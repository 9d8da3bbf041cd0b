package screen

import (
	"errors"
	"fmt"
	"math"

	"github.com/bryanchriswhite/screengrab/internal/logger"
)

// RawMonitor is what a backend adapter decodes from one native display handle
type RawMonitor struct {
	ID          uint32
	Name        string
	Bounds      Rect
	Rotation    Rotation
	ScaleFactor float64
	Frequency   float64
	Primary     bool
}

// EnumerateMonitors drives monitor enumeration for any backend. list returns
// the native display handles; decode resolves one handle. A list failure
// aborts with ErrEnumeration. A decode failure only drops that display.
func EnumerateMonitors[H any](list func() ([]H, error), decode func(H) (RawMonitor, error)) ([]Monitor, error) {
	log := logger.WithComponent("monitors")

	handles, err := list()
	if err != nil {
		return nil, NewError("enumerate monitors", ErrEnumeration, err)
	}

	monitors := make([]Monitor, 0, len(handles))
	for _, h := range handles {
		raw, err := decode(h)
		if err == nil {
			err = raw.validate()
		}
		if err != nil {
			ev := log.Warn().Err(err).Str("handle", fmt.Sprint(h))
			var fe *FieldError
			if errors.As(err, &fe) {
				ev = ev.Str("field", fe.Field)
			}
			ev.Msg("Skipping monitor that could not be resolved")
			continue
		}
		monitors = append(monitors, raw.monitor())
	}

	return ensurePrimary(monitors), nil
}

func (r RawMonitor) validate() error {
	entry := fmt.Sprintf("monitor %d", r.ID)
	if r.Bounds.Empty() {
		return NewFieldError(entry, "size", fmt.Errorf("%dx%d", r.Bounds.Width, r.Bounds.Height))
	}
	if !r.Rotation.Valid() {
		return NewFieldError(entry, "rotation", fmt.Errorf("%d degrees", r.Rotation))
	}
	if !(r.ScaleFactor > 0) || math.IsInf(r.ScaleFactor, 0) {
		return NewFieldError(entry, "scale_factor", fmt.Errorf("%v", r.ScaleFactor))
	}
	return nil
}

func (r RawMonitor) monitor() Monitor {
	name := r.Name
	if name == "" {
		name = fmt.Sprintf("Unknown Monitor %d", r.ID)
	}
	return Monitor{
		ID:          r.ID,
		Name:        name,
		X:           r.Bounds.X,
		Y:           r.Bounds.Y,
		Width:       r.Bounds.Width,
		Height:      r.Bounds.Height,
		Rotation:    r.Rotation,
		ScaleFactor: r.ScaleFactor,
		Frequency:   r.Frequency,
		IsPrimary:   r.Primary,
	}
}

// ensurePrimary leaves exactly one primary monitor. With none reported, the
// monitor holding the desktop origin (else the first) is promoted.
func ensurePrimary(monitors []Monitor) []Monitor {
	if len(monitors) == 0 {
		return monitors
	}

	primary := -1
	for i := range monitors {
		if monitors[i].IsPrimary {
			if primary >= 0 {
				monitors[i].IsPrimary = false
				continue
			}
			primary = i
		}
	}
	if primary >= 0 {
		return monitors
	}

	primary = 0
	for i, m := range monitors {
		if m.Bounds().Contains(0, 0) {
			primary = i
			break
		}
	}
	monitors[primary].IsPrimary = true
	logger.WithComponent("monitors").Debug().
		Uint32("id", monitors[primary].ID).
		Msg("No primary monitor reported, promoted fallback")
	return monitors
}

// ResolveScale computes a monitor's physical-to-logical ratio. The DPI-aware
// query runs only when aware reports the process as DPI aware; if it is
// skipped or fails, fallback is used.
func ResolveScale(aware func() (bool, error), hiDPI, fallback func() (float64, error)) (float64, error) {
	log := logger.WithComponent("monitors")

	if aware != nil && hiDPI != nil {
		ok, err := aware()
		switch {
		case err != nil:
			log.Debug().Err(err).Msg("DPI awareness check failed, using fallback scale")
		case !ok:
			log.Debug().Msg("Process not DPI aware, using fallback scale")
		default:
			scale, err := hiDPI()
			if err == nil && scale > 0 {
				return scale, nil
			}
			log.Debug().Err(err).Float64("scale", scale).Msg("DPI query failed, using fallback scale")
		}
	}

	if fallback == nil {
		return 0, NewFieldError("monitor", "scale_factor", errors.New("no scale source"))
	}
	scale, err := fallback()
	if err != nil {
		return 0, NewFieldError("monitor", "scale_factor", err)
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return 0, NewFieldError("monitor", "scale_factor", fmt.Errorf("fallback returned %v", scale))
	}
	return scale, nil
}

// DeviceRatio divides physical by logical device width, the fallback scale
func DeviceRatio(physical, logical int) (float64, error) {
	if physical <= 0 || logical <= 0 {
		return 0, fmt.Errorf("device widths physical=%d logical=%d", physical, logical)
	}
	return float64(physical) / float64(logical), nil
}
