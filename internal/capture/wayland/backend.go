// Package wayland captures the desktop of a Wayland session through
// xdg-desktop-portal, taking monitor and window geometry from XWayland.
package wayland

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/bryanchriswhite/screengrab/internal/capture/x11"
	"github.com/bryanchriswhite/screengrab/internal/logger"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// Config tunes the Wayland backend
type Config struct {
	// Composite is passed to the XWayland connection
	Composite bool

	// IncludeCursor draws the pointer; only the GNOME Shell fallback honors it
	IncludeCursor bool

	// Timeout bounds the wait for the portal's response
	Timeout time.Duration
}

// geometry is the XWayland side of the backend
type geometry interface {
	Monitors() ([]screen.Monitor, error)
	Windows() ([]screen.Window, error)
	Close() error
}

// shooter writes a full-desktop PNG and returns its path
type shooter interface {
	Screenshot() (string, error)
}

// Backend combines a screenshot service with XWayland geometry
type Backend struct {
	geometry geometry
	shooters []shooter
	closers  screen.Scope
}

// Open connects to the session bus and to XWayland
func Open(cfg Config) (*Backend, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	b := &Backend{}

	bus, err := screen.Acquire("session bus",
		func() (*dbus.Conn, error) { return dbus.ConnectSessionBus() },
		func(c *dbus.Conn) error { return c.Close() })
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	b.closers.Add(bus)

	xw, err := x11.Open(x11.Config{Composite: cfg.Composite})
	if err != nil {
		b.closers.Close()
		return nil, fmt.Errorf("failed to connect to XWayland for geometry: %w", err)
	}
	b.geometry = xw
	b.closers.Add(screen.NewGuard[geometry]("xwayland", xw, geometry.Close))

	b.shooters = []shooter{
		&portal{conn: bus.Handle(), timeout: cfg.Timeout},
		&gnomeShell{conn: bus.Handle(), includeCursor: cfg.IncludeCursor},
	}
	return b, nil
}

// Close releases the XWayland connection and the session bus
func (b *Backend) Close() error {
	return b.closers.Close()
}

// Name returns the backend name
func (b *Backend) Name() string {
	return "wayland"
}

// Monitors enumerates monitors as XWayland reports them
func (b *Backend) Monitors() ([]screen.Monitor, error) {
	return b.geometry.Monitors()
}

// Windows enumerates XWayland windows; native Wayland windows are not visible
func (b *Backend) Windows() ([]screen.Window, error) {
	return b.geometry.Windows()
}

// Capture takes a full-desktop screenshot and crops it to the target
func (b *Backend) Capture(t screen.Target) (*screen.Image, error) {
	monitors, err := b.geometry.Monitors()
	if err != nil {
		return nil, err
	}
	desktop := screen.VirtualBounds(monitors)

	shot, err := b.screenshot()
	if err != nil {
		return nil, err
	}

	crop, err := cropRect(t.Rect(), desktop, shot.Bounds())
	if err != nil {
		return nil, err
	}
	img, err := screen.FromImage(shot, crop)
	if err != nil {
		return nil, screen.NewError("crop screenshot", screen.ErrCopy, err)
	}
	return img, nil
}

// screenshot tries each shooter in turn and decodes the first PNG produced
func (b *Backend) screenshot() (image.Image, error) {
	log := logger.WithComponent("wayland-backend")

	var errs []error
	for _, s := range b.shooters {
		path, err := s.Screenshot()
		if err != nil {
			log.Debug().Err(err).Str("shooter", fmt.Sprintf("%T", s)).Msg("Screenshot source failed")
			errs = append(errs, err)
			continue
		}
		return decodeScreenshot(path)
	}
	return nil, screen.NewError("screenshot", screen.ErrResourceAcquisition, errors.Join(errs...))
}

// decodeScreenshot reads the PNG at path and removes the file
func decodeScreenshot(path string) (image.Image, error) {
	file, err := screen.Acquire("screenshot file",
		func() (*os.File, error) { return os.Open(path) },
		func(f *os.File) error {
			f.Close()
			return os.Remove(f.Name())
		})
	if err != nil {
		return nil, err
	}
	defer file.Release()

	img, err := png.Decode(file.Handle())
	if err != nil {
		return nil, screen.NewError("decode screenshot", screen.ErrCopy, err)
	}
	return img, nil
}

// cropRect maps a virtual-desktop rectangle onto screenshot pixels. The
// screenshot covers the whole desktop, possibly at a different scale.
func cropRect(target, desktop screen.Rect, shot image.Rectangle) (image.Rectangle, error) {
	if desktop.Empty() || shot.Empty() {
		return image.Rectangle{}, screen.NewError("crop screenshot", screen.ErrGeometry,
			fmt.Errorf("desktop %s, screenshot %v", desktop, shot))
	}
	// windows may hang off the desktop edge; only the visible part is kept
	visible := target.Intersect(desktop)
	if visible.Empty() {
		return image.Rectangle{}, screen.NewError("crop screenshot", screen.ErrUnsupportedTarget,
			fmt.Errorf("%s outside desktop %s", target, desktop))
	}

	scale := float64(shot.Dx()) / float64(desktop.Width)
	local := screen.Rect{
		X:      visible.X - desktop.X,
		Y:      visible.Y - desktop.Y,
		Width:  visible.Width,
		Height: visible.Height,
	}
	r := local.Scale(scale).Image().Add(shot.Min).Intersect(shot)
	if r.Empty() {
		return image.Rectangle{}, screen.NewError("crop screenshot", screen.ErrZeroSize,
			fmt.Errorf("%s scaled by %v is empty", target, scale))
	}
	return r, nil
}
