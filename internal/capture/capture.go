package capture

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// Backend is one platform adapter. A backend is opened for a single call
// and closed when the call returns.
type Backend interface {
	// Name returns a human-readable name for this backend
	Name() string

	// Monitors enumerates the attached displays
	Monitors() ([]screen.Monitor, error)

	// Windows enumerates top-level windows, z-ordered, with monitor association
	Windows() ([]screen.Window, error)

	// Capture copies the target's pixels into an RGBA image.
	// The target has already been checked against the monitor layout.
	Capture(t screen.Target) (*screen.Image, error)

	// Close releases the connection or handles held by the backend
	Close() error
}

// Kind names a backend family
type Kind string

const (
	KindAuto     Kind = "auto"
	KindX11      Kind = "x11"
	KindWayland  Kind = "wayland"
	KindGDI      Kind = "gdi"
	KindPortable Kind = "portable"
)

// Kinds lists every selectable backend, auto first
var Kinds = []Kind{KindAuto, KindX11, KindWayland, KindGDI, KindPortable}

// ParseKind validates a backend name; the empty string means auto
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindAuto, nil
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown backend %q (want one of %v)", s, Kinds)
}

// Options configures how backends are opened
type Options struct {
	// Backend overrides selection unless it is KindAuto
	Backend Kind

	// ScaleToLogical resamples captures from physical to logical pixels
	ScaleToLogical bool

	// Composite captures X11 windows through the Composite extension
	Composite bool

	// IncludeCursor asks the Wayland screenshot service to draw the pointer
	IncludeCursor bool

	// PortalTimeout bounds the wait for a portal Screenshot response
	PortalTimeout time.Duration

	// GOOS and Getenv feed the selector; empty means the running process
	GOOS   string
	Getenv func(string) string
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Backend:       KindAuto,
		Composite:     true,
		PortalTimeout: 30 * time.Second,
	}
}

func (o Options) goos() string {
	if o.GOOS != "" {
		return o.GOOS
	}
	return runtime.GOOS
}

func (o Options) getenv() func(string) string {
	if o.Getenv != nil {
		return o.Getenv
	}
	return os.Getenv
}

// Factory opens a backend
type Factory func(opts Options) (Backend, error)
