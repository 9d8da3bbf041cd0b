//go:build windows

package gdi

import (
	"errors"
	"image"
	"testing"
	"unsafe"

	"github.com/bryanchriswhite/screengrab/internal/screen"
)

func TestStructSizes(t *testing.T) {
	if got := unsafe.Sizeof(devModeW{}); got != 220 {
		t.Errorf("DEVMODEW size = %d, want 220", got)
	}
	if got := unsafe.Sizeof(monitorInfoExW{}); got != 104 {
		t.Errorf("MONITORINFOEXW size = %d, want 104", got)
	}
	if got := unsafe.Sizeof(displayDeviceW{}); got != 840 {
		t.Errorf("DISPLAY_DEVICEW size = %d, want 840", got)
	}
}

func TestExeBase(t *testing.T) {
	tests := map[string]string{
		`C:\Windows\explorer.exe`:                 "explorer",
		`C:\Program Files\App\Code.EXE`:           "Code",
		`C:\tools\run.bat`:                        "run.bat",
		`\\?\C:\Users\me\AppData\Local\slack.exe`: "slack",
	}
	for in, want := range tests {
		if got := exeBase(in); got != want {
			t.Errorf("exeBase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSharingFromAffinity(t *testing.T) {
	tests := []struct {
		affinity uint32
		want     screen.Sharing
	}{
		{wdaNone, screen.SharingReadWrite},
		{wdaMonitor, screen.SharingNone},
		{wdaExcludeFromCapture, screen.SharingNone},
	}
	for _, tt := range tests {
		if got := sharingFromAffinity(tt.affinity); got != tt.want {
			t.Errorf("affinity %#x: got %v, want %v", tt.affinity, got, tt.want)
		}
	}
}

func TestBitmapHeader(t *testing.T) {
	h := bitmapHeader(640, 480)
	if h.BiHeight <= 0 {
		t.Fatal("expected a bottom-up DIB")
	}
	if h.BiBitCount != 32 || h.BiPlanes != 1 {
		t.Fatalf("got %d bpp, %d planes", h.BiBitCount, h.BiPlanes)
	}
}

func TestCollectOrder(t *testing.T) {
	got, err := collect(0, func(uintptr) error {
		enumHandles = append(enumHandles, 3, 1, 2)
		return nil
	})
	if err != nil || len(got) != 3 || got[0] != 3 || got[2] != 2 {
		t.Fatalf("got %v, %v", got, err)
	}
	if enumHandles != nil {
		t.Fatal("handles leaked past the call")
	}
}

func TestFrameCrop(t *testing.T) {
	// a 7px invisible border on the left, right and bottom
	outer := screen.Rect{X: 93, Y: 100, Width: 814, Height: 607}
	frame := screen.Rect{X: 100, Y: 100, Width: 800, Height: 600}

	got, err := frameCrop(outer, frame)
	if err != nil {
		t.Fatal(err)
	}
	if want := image.Rect(7, 0, 807, 600); got != want {
		t.Fatalf("crop = %v, want %v", got, want)
	}

	got, err = frameCrop(frame, frame)
	if err != nil || got != image.Rect(0, 0, 800, 600) {
		t.Fatalf("identical rects: %v, %v", got, err)
	}

	if _, err := frameCrop(outer, screen.Rect{X: 5000, Width: 10, Height: 10}); !errors.Is(err, screen.ErrGeometry) {
		t.Fatalf("disjoint frame: got %v", err)
	}
}
