package x11

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/bryanchriswhite/screengrab/internal/logger"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// window types that are part of the desktop shell rather than applications
var skippedWindowTypes = []string{
	"_NET_WM_WINDOW_TYPE_DESKTOP",
	"_NET_WM_WINDOW_TYPE_DOCK",
}

// Windows enumerates managed top-level windows, frontmost first
func (b *Backend) Windows() ([]screen.Window, error) {
	monitors, err := b.Monitors()
	if err != nil {
		return nil, err
	}
	return screen.EnumerateWindows(b.stackingOrder, b.decodeWindow, monitors, screen.DefaultPseudoWindows)
}

// stackingOrder lists windows front to back using EWMH
// _NET_CLIENT_LIST_STACKING with QueryTree fallback
func (b *Backend) stackingOrder() ([]xproto.Window, error) {
	log := logger.WithComponent("x11-backend")

	windows, err := b.stackingEWMH()
	if err == nil && len(windows) > 0 {
		log.Debug().Int("count", len(windows)).Msg("ListWindows: using EWMH _NET_CLIENT_LIST_STACKING")
	} else {
		if err != nil {
			log.Debug().Err(err).Msg("ListWindows: EWMH failed, falling back to QueryTree")
		}
		tree, err := xproto.QueryTree(b.c(), b.root).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to query root window tree: %w", err)
		}
		windows = tree.Children
		log.Debug().Int("count", len(windows)).Msg("ListWindows: using QueryTree fallback")
	}

	// both sources are bottom to top
	windows = slices.Clone(windows)
	slices.Reverse(windows)

	return slices.DeleteFunc(windows, b.isShellWindow), nil
}

func (b *Backend) stackingEWMH() ([]xproto.Window, error) {
	ids, err := b.getCardinals(b.root, "_NET_CLIENT_LIST_STACKING")
	if err != nil {
		return nil, err
	}
	windows := make([]xproto.Window, len(ids))
	for i, id := range ids {
		windows[i] = xproto.Window(id)
	}
	return windows, nil
}

// isShellWindow reports desktop and dock windows
func (b *Backend) isShellWindow(win xproto.Window) bool {
	types, err := b.getCardinals(win, "_NET_WM_WINDOW_TYPE")
	if err != nil {
		return false
	}
	for _, name := range skippedWindowTypes {
		atom, err := b.getAtom(name)
		if err != nil {
			continue
		}
		if slices.Contains(types, uint32(atom)) {
			logger.WithComponent("x11-backend").Debug().
				Uint32("winID", uint32(win)).
				Str("type", name).
				Msg("Skipping shell window")
			return true
		}
	}
	return false
}

// decodeWindow reads the properties and geometry of one window
func (b *Backend) decodeWindow(win xproto.Window) (screen.RawWindow, error) {
	entry := screen.WindowEntry(uint32(win))

	title, err := b.getProperty(win, "_NET_WM_NAME")
	if err != nil || title == "" {
		title, err = b.getProperty(win, "WM_NAME")
	}
	if err != nil {
		return screen.RawWindow{}, screen.NewFieldError(entry, "title", err)
	}
	if err := screen.RequireString(entry, "title", title); err != nil {
		return screen.RawWindow{}, err
	}

	classRaw, err := b.getProperty(win, "WM_CLASS")
	if err != nil {
		return screen.RawWindow{}, screen.NewFieldError(entry, "app_name", err)
	}
	app := parseWMClass(classRaw)
	if err := screen.RequireString(entry, "app_name", app); err != nil {
		return screen.RawWindow{}, err
	}

	var pid int
	if v, err := b.getCardinals(win, "_NET_WM_PID"); err == nil && len(v) > 0 {
		pid = int(v[0])
	}

	bounds, err := b.windowBounds(win)
	if err != nil {
		return screen.RawWindow{}, screen.NewFieldError(entry, "bounds", err)
	}

	attrs, err := xproto.GetWindowAttributes(b.c(), win).Reply()
	if err != nil {
		return screen.RawWindow{}, screen.NewFieldError(entry, "attributes", err)
	}

	return screen.RawWindow{
		ID:       uint32(win),
		Title:    title,
		AppName:  app,
		PID:      pid,
		Bounds:   bounds,
		OnScreen: attrs.MapState == xproto.MapStateViewable && !b.isHidden(win),
		Sharing:  screen.SharingReadWrite,
	}, nil
}

// windowBounds returns the window rectangle in root coordinates
func (b *Backend) windowBounds(win xproto.Window) (screen.Rect, error) {
	geom, err := xproto.GetGeometry(b.c(), xproto.Drawable(win)).Reply()
	if err != nil {
		return screen.Rect{}, fmt.Errorf("failed to get window geometry: %w", err)
	}
	pos, err := xproto.TranslateCoordinates(b.c(), win, b.root, 0, 0).Reply()
	if err != nil {
		return screen.Rect{}, fmt.Errorf("failed to translate coordinates: %w", err)
	}
	return screen.Rect{
		X:      int(pos.DstX),
		Y:      int(pos.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

func (b *Backend) isHidden(win xproto.Window) bool {
	states, err := b.getCardinals(win, "_NET_WM_STATE")
	if err != nil {
		return false
	}
	hidden, err := b.getAtom("_NET_WM_STATE_HIDDEN")
	if err != nil {
		return false
	}
	return slices.Contains(states, uint32(hidden))
}

// parseWMClass returns the class half of WM_CLASS, which is
// instance\0class\0, falling back to the instance
func parseWMClass(raw string) string {
	parts := strings.Split(raw, "\x00")
	if len(parts) >= 2 && parts[1] != "" {
		return parts[1]
	}
	if len(parts) >= 1 {
		return parts[0]
	}
	return ""
}
