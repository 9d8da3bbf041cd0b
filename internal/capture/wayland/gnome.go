package wayland

import (
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
)

const (
	gnomeService = "org.gnome.Shell.Screenshot"
	gnomePath    = "/org/gnome/Shell/Screenshot"
)

// gnomeShell takes screenshots through the GNOME Shell D-Bus service, which
// older GNOME sessions expose without a portal
type gnomeShell struct {
	conn          *dbus.Conn
	includeCursor bool
}

// Screenshot writes a PNG of the whole desktop to a temp file
func (g *gnomeShell) Screenshot() (string, error) {
	f, err := os.CreateTemp("", "screengrab-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create screenshot file: %w", err)
	}
	path := f.Name()
	f.Close()

	var (
		success bool
		used    string
	)
	err = g.conn.Object(gnomeService, gnomePath).
		Call(gnomeService+".Screenshot", 0, g.includeCursor, false, path).
		Store(&success, &used)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("GNOME Shell Screenshot call failed: %w", err)
	}
	if !success {
		os.Remove(path)
		return "", fmt.Errorf("GNOME Shell refused the screenshot")
	}
	if used != "" && used != path {
		os.Remove(path)
		path = used
	}
	return path, nil
}
