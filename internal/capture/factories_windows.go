//go:build windows

package capture

import (
	"github.com/bryanchriswhite/screengrab/internal/capture/gdi"
	"github.com/bryanchriswhite/screengrab/internal/capture/portable"
)

func platformFactories() map[Kind]Factory {
	return map[Kind]Factory{
		KindGDI: func(Options) (Backend, error) {
			return gdi.Open()
		},
		KindPortable: func(Options) (Backend, error) {
			return portable.Open()
		},
	}
}
