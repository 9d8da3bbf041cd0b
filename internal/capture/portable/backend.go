// Package portable captures through github.com/kbinani/screenshot. It knows
// display bounds only, so it cannot list windows and reports every display
// at scale 1.
package portable

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"github.com/bryanchriswhite/screengrab/internal/logger"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// displays is the slice of the screenshot package the backend uses
type displays interface {
	NumActiveDisplays() int
	GetDisplayBounds(i int) image.Rectangle
	CaptureRect(r image.Rectangle) (*image.RGBA, error)
}

type kbinani struct{}

func (kbinani) NumActiveDisplays() int { return screenshot.NumActiveDisplays() }
func (kbinani) GetDisplayBounds(i int) image.Rectangle { return screenshot.GetDisplayBounds(i) }
func (kbinani) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(r)
}

// Backend is the fallback backend for platforms without a native adapter
type Backend struct {
	displays displays
}

// Open returns a backend over the screenshot package
func Open() (*Backend, error) {
	logger.WithComponent("portable-backend").Info().
		Int("displays", screenshot.NumActiveDisplays()).
		Msg("Portable backend ready")
	return &Backend{displays: kbinani{}}, nil
}

// Name returns the backend name
func (b *Backend) Name() string {
	return "portable"
}

// Close is a no-op
func (b *Backend) Close() error {
	return nil
}

// Monitors lists active displays; display 0 is the primary one
func (b *Backend) Monitors() ([]screen.Monitor, error) {
	list := func() ([]int, error) {
		n := b.displays.NumActiveDisplays()
		if n <= 0 {
			return nil, errors.New("no active displays")
		}
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}
	decode := func(i int) (screen.RawMonitor, error) {
		r := b.displays.GetDisplayBounds(i)
		return screen.RawMonitor{
			ID:   uint32(i),
			Name: fmt.Sprintf("display %d", i),
			Bounds: screen.Rect{
				X:      r.Min.X,
				Y:      r.Min.Y,
				Width:  r.Dx(),
				Height: r.Dy(),
			},
			ScaleFactor: 1,
			Primary:     i == 0,
		}, nil
	}
	return screen.EnumerateMonitors(list, decode)
}

// Windows is not supported by the screenshot package
func (b *Backend) Windows() ([]screen.Window, error) {
	return nil, screen.NewError("list windows", screen.ErrEnumeration,
		errors.New("portable backend cannot enumerate windows"))
}

// Capture grabs the target rectangle from the screen
func (b *Backend) Capture(t screen.Target) (*screen.Image, error) {
	if _, ok := t.(screen.WindowTarget); ok {
		return nil, screen.NewError("capture", screen.ErrUnsupportedTarget,
			errors.New("portable backend cannot capture windows"))
	}
	rgba, err := b.displays.CaptureRect(t.Rect().Image())
	if err != nil {
		return nil, screen.NewError("capture", screen.ErrCopy, err)
	}
	return screen.FromRGBA(rgba)
}
