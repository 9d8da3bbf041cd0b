package capture

import (
	"fmt"
	"sync"

	"github.com/bryanchriswhite/screengrab/internal/logger"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// Router routes enumeration and capture requests to the backend selected for
// the current platform and session. Every call opens its own backend and
// releases it before returning.
type Router struct {
	mu        sync.RWMutex
	opts      Options
	factories map[Kind]Factory
}

// NewRouter creates a router using the backends compiled in for this platform
func NewRouter(opts Options) *Router {
	r := &Router{opts: opts, factories: make(map[Kind]Factory)}
	for k, f := range platformFactories() {
		r.factories[k] = f
	}
	return r
}

// Register installs or replaces the factory for a backend kind
func (r *Router) Register(kind Kind, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// SetOptions swaps the options used for subsequent calls
func (r *Router) SetOptions(opts Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = opts
}

// Options returns the current options
func (r *Router) Options() Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

// Backend returns the kind the next call will use
func (r *Router) Backend() Kind {
	return r.Options().Resolve()
}

// Available lists the kinds this build can open
func (r *Router) Available() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var kinds []Kind
	for _, k := range Kinds {
		if _, ok := r.factories[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// open selects and opens a backend, handing it back inside a guard
func (r *Router) open() (*screen.Guard[Backend], Options, error) {
	r.mu.RLock()
	opts := r.opts
	kind := opts.Resolve()
	f, ok := r.factories[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, opts, screen.NewError("open backend", screen.ErrResourceAcquisition,
			fmt.Errorf("backend %s is not available on this platform", kind))
	}

	logger.WithComponent("capture-router").Debug().
		Str("backend", string(kind)).
		Msg("Opening backend")

	g, err := screen.Acquire("backend "+string(kind),
		func() (Backend, error) { return f(opts) },
		func(b Backend) error { return b.Close() })
	return g, opts, err
}

// with runs fn against a freshly opened backend and always closes it
func (r *Router) with(fn func(b Backend, opts Options) error) error {
	g, opts, err := r.open()
	if err != nil {
		return err
	}
	defer g.Release()
	return fn(g.Handle(), opts)
}

// ListMonitors enumerates the attached displays
func (r *Router) ListMonitors() ([]screen.Monitor, error) {
	var monitors []screen.Monitor
	err := r.with(func(b Backend, _ Options) error {
		var err error
		monitors, err = b.Monitors()
		return err
	})
	return monitors, err
}

// ListWindows enumerates top-level windows
func (r *Router) ListWindows() ([]screen.Window, error) {
	var windows []screen.Window
	err := r.with(func(b Backend, _ Options) error {
		var err error
		windows, err = b.Windows()
		return err
	})
	return windows, err
}

// MonitorFromPoint returns the monitor containing a virtual-desktop point
func (r *Router) MonitorFromPoint(x, y int) (screen.Monitor, error) {
	monitors, err := r.ListMonitors()
	if err != nil {
		return screen.Monitor{}, err
	}
	return screen.MonitorFromPoint(monitors, x, y)
}

// CaptureScreen captures a whole monitor
func (r *Router) CaptureScreen(monitorID uint32) (*screen.Image, error) {
	var img *screen.Image
	err := r.with(func(b Backend, opts Options) error {
		monitors, err := b.Monitors()
		if err != nil {
			return err
		}
		m, err := screen.FindMonitor(monitors, monitorID)
		if err != nil {
			return err
		}
		img, err = capture(b, opts, screen.MonitorTarget{Monitor: m}, monitors)
		return err
	})
	return img, err
}

// CaptureScreenArea captures part of a monitor. x and y are relative to the
// monitor's origin; the area must lie inside the monitor.
func (r *Router) CaptureScreenArea(monitorID uint32, x, y, width, height int) (*screen.Image, error) {
	var img *screen.Image
	err := r.with(func(b Backend, opts Options) error {
		monitors, err := b.Monitors()
		if err != nil {
			return err
		}
		m, err := screen.FindMonitor(monitors, monitorID)
		if err != nil {
			return err
		}
		area, err := screen.MonitorArea(m, x, y, width, height)
		if err != nil {
			return err
		}
		img, err = capture(b, opts, screen.RegionTarget{Region: area}, monitors)
		return err
	})
	return img, err
}

// CaptureWindow captures a window by id
func (r *Router) CaptureWindow(windowID uint32) (*screen.Image, error) {
	var img *screen.Image
	err := r.with(func(b Backend, opts Options) error {
		monitors, err := b.Monitors()
		if err != nil {
			return err
		}
		windows, err := b.Windows()
		if err != nil {
			return err
		}
		w, err := screen.FindWindow(windows, windowID)
		if err != nil {
			return err
		}
		img, err = capture(b, opts, screen.WindowTarget{Window: w}, monitors)
		return err
	})
	return img, err
}

// Capture captures an arbitrary target
func (r *Router) Capture(t screen.Target) (*screen.Image, error) {
	var img *screen.Image
	err := r.with(func(b Backend, opts Options) error {
		monitors, err := b.Monitors()
		if err != nil {
			return err
		}
		img, err = capture(b, opts, t, monitors)
		return err
	})
	return img, err
}

func capture(b Backend, opts Options, t screen.Target, monitors []screen.Monitor) (*screen.Image, error) {
	log := logger.WithComponent("capture-router")

	if err := screen.CheckTarget(t, monitors); err != nil {
		return nil, err
	}

	log.Debug().
		Str("backend", b.Name()).
		Str("target", t.String()).
		Str("rect", t.Rect().String()).
		Msg("Capturing")

	img, err := b.Capture(t)
	if err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, screen.NewError("capture "+t.String(), screen.ErrCopy, err)
	}

	if opts.ScaleToLogical {
		scale := targetScale(t, monitors)
		if scale != 1 {
			log.Debug().Float64("scale", scale).Msg("Resampling to logical size")
			return screen.ToLogical(img, scale)
		}
	}
	return img, nil
}

func targetScale(t screen.Target, monitors []screen.Monitor) float64 {
	var m screen.Monitor
	switch t := t.(type) {
	case screen.MonitorTarget:
		m = t.Monitor
	case screen.WindowTarget:
		m = t.Window.Monitor
	default:
		m, _ = screen.MonitorForRect(t.Rect(), monitors)
	}
	if m.ScaleFactor > 0 {
		return m.ScaleFactor
	}
	return 1
}
