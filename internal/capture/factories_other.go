//go:build !windows && !linux && !freebsd && !openbsd && !netbsd && !dragonfly

package capture

import "github.com/bryanchriswhite/screengrab/internal/capture/portable"

func platformFactories() map[Kind]Factory {
	return map[Kind]Factory{
		KindPortable: func(Options) (Backend, error) {
			return portable.Open()
		},
	}
}
