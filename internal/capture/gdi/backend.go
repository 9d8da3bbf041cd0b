//go:build windows

// Package gdi captures Windows desktops with GDI and enumerates monitors and
// top-level windows through user32.
package gdi

import (
	"fmt"

	"github.com/bryanchriswhite/screengrab/internal/logger"
)

// Backend is the Windows GDI backend. It keeps no handles between calls;
// every device context it opens is released before the call returns.
type Backend struct{}

// Open checks that the user32 entry points are present
func Open() (*Backend, error) {
	log := logger.WithComponent("gdi-backend")

	for _, p := range []interface{ Find() error }{
		procEnumDisplayMonitors,
		procGetMonitorInfoW,
		procEnumDisplaySettingsW,
		procGetWindowTextW,
		procGetWindowDC,
	} {
		if err := p.Find(); err != nil {
			return nil, fmt.Errorf("failed to load user32: %w", err)
		}
	}

	if err := procGetDpiForMonitor.Find(); err != nil {
		log.Debug().Err(err).Msg("shcore unavailable, using device ratio for scale")
	}
	if err := procPrintWindow.Find(); err != nil {
		log.Debug().Err(err).Msg("PrintWindow unavailable, windows will be copied from screen")
	}

	log.Info().Msg("GDI backend ready")
	return &Backend{}, nil
}

// Name returns the backend name
func (b *Backend) Name() string {
	return "gdi"
}

// Close is a no-op
func (b *Backend) Close() error {
	return nil
}
