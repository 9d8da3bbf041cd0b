// Package x11 enumerates and captures displays and windows over the X11
// protocol. It also serves XWayland geometry to the wayland backend.
package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/bryanchriswhite/screengrab/internal/logger"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// Config tunes the X11 backend
type Config struct {
	// Composite redirects windows off-screen before capture so obscured
	// windows come out whole
	Composite bool
}

// Backend is an open X11 connection
type Backend struct {
	conn             *screen.Guard[*xgb.Conn]
	setup            *xproto.SetupInfo
	screen           *xproto.ScreenInfo
	root             xproto.Window
	compositeEnabled bool
	randrEnabled     bool

	mu    sync.Mutex
	atoms map[string]xproto.Atom
}

// Open connects to $DISPLAY and initializes the extensions it needs
func Open(cfg Config) (*Backend, error) {
	log := logger.WithComponent("x11-backend")

	conn, err := screen.Acquire("x11 connection", xgb.NewConn, func(c *xgb.Conn) error {
		c.Close()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	c := conn.Handle()
	setup := xproto.Setup(c)
	scr := setup.DefaultScreen(c)

	b := &Backend{
		conn:   conn,
		setup:  setup,
		screen: scr,
		root:   scr.Root,
		atoms:  make(map[string]xproto.Atom),
	}

	if err := randr.Init(c); err != nil {
		log.Warn().Err(err).Msg("RandR extension not available, using root window geometry")
	} else {
		b.randrEnabled = true
	}

	if cfg.Composite {
		if err := composite.Init(c); err != nil {
			log.Warn().
				Err(err).
				Msg("Composite extension not available - window screenshots may fail for obscured windows")
		} else {
			b.compositeEnabled = true
		}
	}

	log.Debug().
		Bool("randr", b.randrEnabled).
		Bool("composite", b.compositeEnabled).
		Uint16("width", scr.WidthInPixels).
		Uint16("height", scr.HeightInPixels).
		Msg("Connected to X server")

	return b, nil
}

// Close closes the X11 connection
func (b *Backend) Close() error {
	return b.conn.Release()
}

// Name returns the backend name
func (b *Backend) Name() string {
	return "x11"
}

// RootSize returns the root window size, the X11 virtual desktop
func (b *Backend) RootSize() (int, int) {
	return int(b.screen.WidthInPixels), int(b.screen.HeightInPixels)
}

func (b *Backend) c() *xgb.Conn {
	return b.conn.Handle()
}

// getAtom gets an atom ID by name
func (b *Backend) getAtom(name string) (xproto.Atom, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if a, ok := b.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(b.c(), false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	b.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// getPropertyReply fetches a whole property
func (b *Backend) getPropertyReply(win xproto.Window, name string) (*xproto.GetPropertyReply, error) {
	atom, err := b.getAtom(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s atom: %w", name, err)
	}
	reply, err := xproto.GetProperty(
		b.c(),
		false,
		win,
		atom,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s property: %w", name, err)
	}
	if reply.ValueLen == 0 {
		return nil, fmt.Errorf("%s: empty property", name)
	}
	return reply, nil
}

// getProperty gets a property value as a string
func (b *Backend) getProperty(win xproto.Window, name string) (string, error) {
	reply, err := b.getPropertyReply(win, name)
	if err != nil {
		return "", err
	}
	return string(reply.Value), nil
}

// getCardinals gets a 32-bit list property (CARDINAL, WINDOW, ATOM)
func (b *Backend) getCardinals(win xproto.Window, name string) ([]uint32, error) {
	reply, err := b.getPropertyReply(win, name)
	if err != nil {
		return nil, err
	}
	if reply.Format != 32 {
		return nil, fmt.Errorf("%s: format %d, want 32", name, reply.Format)
	}
	return cardinals(reply.Value), nil
}

// cardinals decodes little-endian 32-bit values
func cardinals(data []byte) []uint32 {
	out := make([]uint32, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		out = append(out, uint32(data[i])|
			uint32(data[i+1])<<8|
			uint32(data[i+2])<<16|
			uint32(data[i+3])<<24)
	}
	return out
}
