//go:build windows

package gdi

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// GetDeviceCaps indexes
const (
	horzRes        = 8
	desktopHorzRes = 118
)

// Monitors enumerates the attached display monitors
func (b *Backend) Monitors() ([]screen.Monitor, error) {
	list := func() ([]uintptr, error) {
		return collect(monitorCallback(), func(cb uintptr) error {
			r, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0)
			if r == 0 {
				return fmt.Errorf("EnumDisplayMonitors failed: %w", err)
			}
			return nil
		})
	}
	return screen.EnumerateMonitors(list, decodeMonitor)
}

func decodeMonitor(h uintptr) (screen.RawMonitor, error) {
	entry := fmt.Sprintf("monitor %#x", h)

	info, err := monitorInfo(h)
	if err != nil {
		return screen.RawMonitor{}, screen.NewFieldError(entry, "info", err)
	}
	device := windows.UTF16ToString(info.Device[:])

	var dm devModeW
	dm.Size = uint16(unsafe.Sizeof(dm))
	r, _, err := procEnumDisplaySettingsW.Call(
		uintptr(unsafe.Pointer(&info.Device[0])),
		enumCurrentSettings,
		uintptr(unsafe.Pointer(&dm)))
	if r == 0 {
		return screen.RawMonitor{}, screen.NewFieldError(entry, "settings", err)
	}

	rotation, err := screen.RotationFromQuarterTurns(int(dm.DisplayOrientation))
	if err != nil {
		return screen.RawMonitor{}, screen.NewFieldError(entry, "rotation", err)
	}

	scale, err := screen.ResolveScale(processDPIAware,
		func() (float64, error) { return dpiScale(h) },
		func() (float64, error) { return deviceRatio(&info.Device[0]) })
	if err != nil {
		return screen.RawMonitor{}, err
	}

	return screen.RawMonitor{
		ID:   uint32(h),
		Name: friendlyName(&info.Device[0], device),
		Bounds: screen.Rect{
			X:      int(dm.PositionX),
			Y:      int(dm.PositionY),
			Width:  int(dm.PelsWidth),
			Height: int(dm.PelsHeight),
		},
		Rotation:    rotation,
		ScaleFactor: scale,
		Frequency:   float64(dm.DisplayFrequency),
		Primary:     info.Flags&win.MONITORINFOF_PRIMARY != 0,
	}, nil
}

func monitorInfo(h uintptr) (*monitorInfoExW, error) {
	info := &monitorInfoExW{}
	info.Size = uint32(unsafe.Sizeof(*info))
	if r, _, err := procGetMonitorInfoW.Call(h, uintptr(unsafe.Pointer(info))); r == 0 {
		return nil, fmt.Errorf("GetMonitorInfoW failed: %w", err)
	}
	return info, nil
}

// friendlyName returns the adapter's description of the device, falling
// back to the GDI device name
func friendlyName(device *uint16, fallback string) string {
	var dd displayDeviceW
	dd.Size = uint32(unsafe.Sizeof(dd))
	r, _, _ := procEnumDisplayDevicesW.Call(uintptr(unsafe.Pointer(device)), 0, uintptr(unsafe.Pointer(&dd)), 0)
	if r == 0 {
		return fallback
	}
	if name := windows.UTF16ToString(dd.DeviceString[:]); name != "" {
		return name
	}
	return fallback
}

// processDPIAware reports whether the process opted into per-monitor or
// system DPI awareness
func processDPIAware() (bool, error) {
	if err := procGetProcessDpiAwareness.Find(); err != nil {
		return false, err
	}
	var awareness uint32
	hr, _, _ := procGetProcessDpiAwareness.Call(0, uintptr(unsafe.Pointer(&awareness)))
	if hr != 0 {
		return false, fmt.Errorf("GetProcessDpiAwareness: HRESULT %#x", hr)
	}
	return awareness != processDPIUnaware, nil
}

func dpiScale(h uintptr) (float64, error) {
	if err := procGetDpiForMonitor.Find(); err != nil {
		return 0, err
	}
	var dpiX, dpiY uint32
	hr, _, _ := procGetDpiForMonitor.Call(h, mdtEffectiveDPI,
		uintptr(unsafe.Pointer(&dpiX)), uintptr(unsafe.Pointer(&dpiY)))
	if hr != 0 {
		return 0, fmt.Errorf("GetDpiForMonitor: HRESULT %#x", hr)
	}
	return float64(dpiX) / baseDPI, nil
}

// deviceRatio compares the physical and logical widths of the display's DC
func deviceRatio(device *uint16) (float64, error) {
	dc, err := screen.Acquire("display dc",
		func() (win.HDC, error) {
			if hdc := win.CreateDC(device, device, nil, nil); hdc != 0 {
				return hdc, nil
			}
			return 0, fmt.Errorf("CreateDC failed")
		},
		func(hdc win.HDC) error {
			win.DeleteDC(hdc)
			return nil
		})
	if err != nil {
		return 0, err
	}
	defer dc.Release()

	return screen.DeviceRatio(
		int(win.GetDeviceCaps(dc.Handle(), desktopHorzRes)),
		int(win.GetDeviceCaps(dc.Handle(), horzRes)))
}
