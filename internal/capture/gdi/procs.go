//go:build windows

package gdi

import (
	"sync"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	shcore = windows.NewLazySystemDLL("shcore.dll")
	dwmapi = windows.NewLazySystemDLL("dwmapi.dll")

	procEnumDisplayMonitors      = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW          = user32.NewProc("GetMonitorInfoW")
	procEnumDisplaySettingsW     = user32.NewProc("EnumDisplaySettingsW")
	procEnumDisplayDevicesW      = user32.NewProc("EnumDisplayDevicesW")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowDC              = user32.NewProc("GetWindowDC")
	procGetShellWindow           = user32.NewProc("GetShellWindow")
	procGetWindowDisplayAffinity = user32.NewProc("GetWindowDisplayAffinity")
	procPrintWindow              = user32.NewProc("PrintWindow")

	procGetDpiForMonitor       = shcore.NewProc("GetDpiForMonitor")
	procGetProcessDpiAwareness = shcore.NewProc("GetProcessDpiAwareness")

	procDwmGetWindowAttribute = dwmapi.NewProc("DwmGetWindowAttribute")
)

const (
	enumCurrentSettings = 0xFFFFFFFF

	mdtEffectiveDPI   = 0
	processDPIUnaware = 0
	baseDPI           = 96.0

	dwmwaExtendedFrameBounds = 9
	dwmwaCloaked             = 14

	wdaNone               = 0x00
	wdaMonitor            = 0x01
	wdaExcludeFromCapture = 0x11

	pwRenderFullContent = 0x2
	captureBlt          = 0x40000000

	processQueryLimitedInformation = 0x1000
)

// monitorInfoExW is MONITORINFOEXW
type monitorInfoExW struct {
	Size    uint32
	Monitor rect
	Work    rect
	Flags   uint32
	Device  [32]uint16
}

type rect struct {
	Left, Top, Right, Bottom int32
}

func (r rect) width() int  { return int(r.Right - r.Left) }
func (r rect) height() int { return int(r.Bottom - r.Top) }

// devModeW is the display variant of DEVMODEW
type devModeW struct {
	DeviceName         [32]uint16
	SpecVersion        uint16
	DriverVersion      uint16
	Size               uint16
	DriverExtra        uint16
	Fields             uint32
	PositionX          int32
	PositionY          int32
	DisplayOrientation uint32
	DisplayFixedOutput uint32
	Color              int16
	Duplex             int16
	YResolution        int16
	TTOption           int16
	Collate            int16
	FormName           [32]uint16
	LogPixels          uint16
	BitsPerPel         uint32
	PelsWidth          uint32
	PelsHeight         uint32
	DisplayFlags       uint32
	DisplayFrequency   uint32
	ICMMethod          uint32
	ICMIntent          uint32
	MediaType          uint32
	DitherType         uint32
	Reserved1          uint32
	Reserved2          uint32
	PanningWidth       uint32
	PanningHeight      uint32
}

// displayDeviceW is DISPLAY_DEVICEW
type displayDeviceW struct {
	Size         uint32
	DeviceName   [32]uint16
	DeviceString [128]uint16
	StateFlags   uint32
	DeviceID     [128]uint16
	DeviceKey    [128]uint16
}

// Enumeration callbacks are created once; the runtime caps how many
// callbacks a process may create. enumMu serializes use of enumHandles.
var (
	enumMu      sync.Mutex
	enumHandles []uintptr

	monitorCallback = sync.OnceValue(func() uintptr {
		return windows.NewCallback(func(h, _, _, _ uintptr) uintptr {
			enumHandles = append(enumHandles, h)
			return 1
		})
	})
	windowCallback = sync.OnceValue(func() uintptr {
		return windows.NewCallback(func(h, _ uintptr) uintptr {
			enumHandles = append(enumHandles, h)
			return 1
		})
	})
)

// collect runs an Enum* call whose callback is cb and returns the handles
// it reported, in callback order
func collect(cb uintptr, call func(cb uintptr) error) ([]uintptr, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumHandles = nil
	err := call(cb)
	handles := enumHandles
	enumHandles = nil
	return handles, err
}
