package capture

import "strings"

// SelectBackend picks the backend family for a platform and session
// environment. It never fails: Unix desktops without a Wayland session
// get X11.
func SelectBackend(goos string, getenv func(string) string) Kind {
	switch goos {
	case "windows":
		return KindGDI
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		if isWayland(getenv) {
			return KindWayland
		}
		return KindX11
	default:
		return KindPortable
	}
}

func isWayland(getenv func(string) string) bool {
	if getenv("XDG_SESSION_TYPE") == "wayland" {
		return true
	}
	return strings.Contains(strings.ToLower(getenv("WAYLAND_DISPLAY")), "wayland")
}

// Resolve returns the backend the options select: the override when one is
// set, otherwise SelectBackend for the configured platform.
func (o Options) Resolve() Kind {
	if o.Backend != "" && o.Backend != KindAuto {
		return o.Backend
	}
	return SelectBackend(o.goos(), o.getenv())
}
