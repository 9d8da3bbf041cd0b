package screen

import (
	"errors"
	"fmt"

	"github.com/bryanchriswhite/screengrab/internal/logger"
)

// Sharing is a window's capture-sharing state as reported by the OS
type Sharing int

const (
	// SharingNone marks a window excluded from capture
	SharingNone Sharing = iota
	SharingReadOnly
	SharingReadWrite
)

// RawWindow is what a backend adapter decodes from one native window entry
type RawWindow struct {
	ID       uint32
	Title    string
	AppName  string
	PID      int
	Bounds   Rect
	OnScreen bool
	Sharing  Sharing
}

// PseudoWindow identifies OS-owned entries that look like windows but are not
type PseudoWindow struct {
	Title   string
	AppName string
}

// DefaultPseudoWindows are skipped by EnumerateWindows unless overridden
var DefaultPseudoWindows = []PseudoWindow{
	{Title: "StatusIndicator", AppName: "Window Server"},
}

// EnumerateWindows drives window enumeration for any backend. list must
// return native entries front to back (frontmost first). Entries that fail to
// decode, match a pseudo window, or are excluded from sharing are dropped;
// the survivors get z-indexes n-1 (front) down to 0 (back).
func EnumerateWindows[E any](list func() ([]E, error), decode func(E) (RawWindow, error), monitors []Monitor, pseudo []PseudoWindow) ([]Window, error) {
	log := logger.WithComponent("windows")

	entries, err := list()
	if err != nil {
		return nil, NewError("enumerate windows", ErrEnumeration, err)
	}

	kept := make([]RawWindow, 0, len(entries))
	for i, e := range entries {
		raw, err := decode(e)
		if err != nil {
			ev := log.Warn().Err(err).Int("position", i)
			var fe *FieldError
			if errors.As(err, &fe) {
				ev = ev.Str("entry", fe.Entry).Str("field", fe.Field)
			}
			ev.Msg("Skipping window entry that could not be decoded")
			continue
		}
		if isPseudo(raw, pseudo) {
			log.Debug().Uint32("id", raw.ID).Str("title", raw.Title).Msg("Skipping pseudo window")
			continue
		}
		if raw.Sharing == SharingNone {
			log.Debug().Uint32("id", raw.ID).Str("title", raw.Title).Msg("Skipping window excluded from capture")
			continue
		}
		kept = append(kept, raw)
	}

	windows := make([]Window, 0, len(kept))
	for i, raw := range kept {
		windows = append(windows, buildWindow(raw, len(kept)-1-i, monitors))
	}
	return windows, nil
}

func isPseudo(raw RawWindow, pseudo []PseudoWindow) bool {
	for _, p := range pseudo {
		if raw.Title == p.Title && raw.AppName == p.AppName {
			return true
		}
	}
	return false
}

func buildWindow(raw RawWindow, z int, monitors []Monitor) Window {
	m, ok := MonitorForRect(raw.Bounds, monitors)
	// without a monitor there is nothing to compare the size against
	minimized, maximized := !raw.OnScreen, false
	if ok {
		minimized, maximized = DeriveWindowState(raw.Bounds, m, raw.OnScreen)
	}
	return Window{
		ID:          raw.ID,
		Title:       raw.Title,
		AppName:     raw.AppName,
		PID:         raw.PID,
		X:           raw.Bounds.X,
		Y:           raw.Bounds.Y,
		Z:           z,
		Width:       raw.Bounds.Width,
		Height:      raw.Bounds.Height,
		Monitor:     m,
		IsMinimized: minimized,
		IsMaximized: maximized,
	}
}

// RequireString returns a FieldError when v is empty
func RequireString(entry, field, v string) error {
	if v == "" {
		return NewFieldError(entry, field, nil)
	}
	return nil
}

// WindowEntry names a native window for diagnostics
func WindowEntry(id uint32) string {
	return fmt.Sprintf("window %#x", id)
}
