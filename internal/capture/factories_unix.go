//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"github.com/bryanchriswhite/screengrab/internal/capture/portable"
	"github.com/bryanchriswhite/screengrab/internal/capture/wayland"
	"github.com/bryanchriswhite/screengrab/internal/capture/x11"
)

func platformFactories() map[Kind]Factory {
	return map[Kind]Factory{
		KindX11: func(o Options) (Backend, error) {
			return x11.Open(x11.Config{Composite: o.Composite})
		},
		KindWayland: func(o Options) (Backend, error) {
			return wayland.Open(wayland.Config{
				Composite:     o.Composite,
				IncludeCursor: o.IncludeCursor,
				Timeout:       o.PortalTimeout,
			})
		},
		KindPortable: func(Options) (Backend, error) {
			return portable.Open()
		},
	}
}
