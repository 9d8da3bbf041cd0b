//go:build windows

package gdi

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// Windows enumerates visible top-level windows. EnumWindows reports them in
// z-order, topmost first.
func (b *Backend) Windows() ([]screen.Window, error) {
	monitors, err := b.Monitors()
	if err != nil {
		return nil, err
	}
	return screen.EnumerateWindows(topLevelWindows, decodeWindow, monitors, screen.DefaultPseudoWindows)
}

func topLevelWindows() ([]win.HWND, error) {
	handles, err := collect(windowCallback(), func(cb uintptr) error {
		return windows.EnumWindows(cb, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("EnumWindows failed: %w", err)
	}

	shell, _, _ := procGetShellWindow.Call()
	hwnds := make([]win.HWND, 0, len(handles))
	for _, h := range handles {
		hwnd := win.HWND(h)
		if h == shell || !win.IsWindowVisible(hwnd) || isCloaked(hwnd) {
			continue
		}
		hwnds = append(hwnds, hwnd)
	}
	return hwnds, nil
}

func decodeWindow(hwnd win.HWND) (screen.RawWindow, error) {
	id := uint32(hwnd)
	entry := screen.WindowEntry(id)

	title := windowText(hwnd)
	if err := screen.RequireString(entry, "title", title); err != nil {
		return screen.RawWindow{}, err
	}

	var pid uint32
	win.GetWindowThreadProcessId(hwnd, &pid)
	app, err := processName(pid)
	if err != nil {
		return screen.RawWindow{}, screen.NewFieldError(entry, "app_name", err)
	}

	bounds, err := windowBounds(hwnd)
	if err != nil {
		return screen.RawWindow{}, screen.NewFieldError(entry, "bounds", err)
	}

	return screen.RawWindow{
		ID:       id,
		Title:    title,
		AppName:  app,
		PID:      int(pid),
		Bounds:   bounds,
		OnScreen: !win.IsIconic(hwnd),
		Sharing:  sharing(hwnd),
	}, nil
}

func windowText(hwnd win.HWND) string {
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}

// processName returns the executable base name of pid
func processName(pid uint32) (string, error) {
	if pid == 0 {
		return "", errors.New("no owning process")
	}
	proc, err := screen.Acquire("process handle",
		func() (windows.Handle, error) {
			return windows.OpenProcess(processQueryLimitedInformation, false, pid)
		},
		windows.CloseHandle)
	if err != nil {
		return "", err
	}
	defer proc.Release()

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(proc.Handle(), 0, &buf[0], &size); err != nil {
		return "", err
	}
	return exeBase(windows.UTF16ToString(buf[:size])), nil
}

// exeBase strips the directory and the .exe suffix from an image path
func exeBase(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".exe") {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// windowBounds prefers the DWM frame bounds, which exclude the invisible
// resize border, over GetWindowRect
func windowBounds(hwnd win.HWND) (screen.Rect, error) {
	var r rect
	hr, _, _ := procDwmGetWindowAttribute.Call(uintptr(hwnd), dwmwaExtendedFrameBounds,
		uintptr(unsafe.Pointer(&r)), unsafe.Sizeof(r))
	if hr != 0 {
		var wr win.RECT
		if !win.GetWindowRect(hwnd, &wr) {
			return screen.Rect{}, errors.New("GetWindowRect failed")
		}
		r = rect{Left: wr.Left, Top: wr.Top, Right: wr.Right, Bottom: wr.Bottom}
	}
	return screen.Rect{X: int(r.Left), Y: int(r.Top), Width: r.width(), Height: r.height()}, nil
}

// isCloaked reports windows DWM hides, such as those on other virtual desktops
func isCloaked(hwnd win.HWND) bool {
	var cloaked uint32
	hr, _, _ := procDwmGetWindowAttribute.Call(uintptr(hwnd), dwmwaCloaked,
		uintptr(unsafe.Pointer(&cloaked)), unsafe.Sizeof(cloaked))
	return hr == 0 && cloaked != 0
}

func sharing(hwnd win.HWND) screen.Sharing {
	var affinity uint32
	if r, _, _ := procGetWindowDisplayAffinity.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&affinity))); r == 0 {
		return screen.SharingReadWrite
	}
	return sharingFromAffinity(affinity)
}

// sharingFromAffinity maps a display affinity to a sharing state
func sharingFromAffinity(affinity uint32) screen.Sharing {
	switch affinity {
	case wdaMonitor, wdaExcludeFromCapture:
		return screen.SharingNone
	}
	return screen.SharingReadWrite
}
