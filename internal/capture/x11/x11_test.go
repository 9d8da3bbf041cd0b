package x11

import (
	"math"
	"testing"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/google/go-cmp/cmp"

	"github.com/bryanchriswhite/screengrab/internal/screen"
)

func TestRotationFromRandr(t *testing.T) {
	tests := []struct {
		bits uint16
		want screen.Rotation
	}{
		{randr.RotationRotate0, screen.Rotate0},
		{randr.RotationRotate90, screen.Rotate90},
		{randr.RotationRotate180, screen.Rotate180},
		{randr.RotationRotate270, screen.Rotate270},
		{randr.RotationRotate90 | randr.RotationReflectX, screen.Rotate90},
	}
	for _, tt := range tests {
		got, err := rotationFromRandr(tt.bits)
		if err != nil || got != tt.want {
			t.Fatalf("rotationFromRandr(%#x) = %v, %v; want %v", tt.bits, got, err, tt.want)
		}
	}
	if _, err := rotationFromRandr(randr.RotationRotate0 | randr.RotationRotate90); err == nil {
		t.Fatal("expected error for two rotation bits")
	}
}

func TestRefreshRate(t *testing.T) {
	// 1920x1080@60 CVT reduced blanking
	mode := randr.ModeInfo{DotClock: 138500000, Htotal: 2080, Vtotal: 1111}
	if got := refreshRate(mode); math.Abs(got-59.93) > 0.01 {
		t.Fatalf("refreshRate = %v", got)
	}

	mode.ModeFlags = modeFlagInterlace
	if got := refreshRate(mode); math.Abs(got-119.87) > 0.01 {
		t.Fatalf("interlaced refreshRate = %v", got)
	}

	if got := refreshRate(randr.ModeInfo{DotClock: 1}); got != 0 {
		t.Fatalf("zero totals = %v", got)
	}
}

func TestParseXftDPI(t *testing.T) {
	tests := []struct {
		name string
		db   string
		want float64
		ok   bool
	}{
		{"set", "Xcursor.size:\t24\nXft.dpi:\t192\nXft.antialias:\t1\n", 192, true},
		{"spaces", "Xft.dpi: 144", 144, true},
		{"missing", "Xcursor.theme:\tAdwaita\n", 0, false},
		{"garbage", "Xft.dpi:\thigh\n", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseXftDPI(tt.db)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("parseXftDPI = %v, %v", got, ok)
			}
		})
	}
}

func TestParseWMClass(t *testing.T) {
	for raw, want := range map[string]string{
		"navigator\x00Firefox\x00": "Firefox",
		"xterm\x00\x00":            "xterm",
		"":                         "",
	} {
		if got := parseWMClass(raw); got != want {
			t.Fatalf("parseWMClass(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestCardinals(t *testing.T) {
	got := cardinals([]byte{1, 0, 0, 0, 0x78, 0x56, 0x34, 0x12, 0xff})
	if diff := cmp.Diff([]uint32{1, 0x12345678}, got); diff != "" {
		t.Fatalf("cardinals (-want +got):\n%s", diff)
	}
}

func TestPixelLayout(t *testing.T) {
	setup := &xproto.SetupInfo{
		PixmapFormats: []xproto.Format{
			{Depth: 1, BitsPerPixel: 1, ScanlinePad: 32},
			{Depth: 24, BitsPerPixel: 32, ScanlinePad: 32},
			{Depth: 32, BitsPerPixel: 32, ScanlinePad: 32},
			{Depth: 16, BitsPerPixel: 16, ScanlinePad: 32},
		},
	}

	got, err := pixelLayout(setup, 24, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != (screen.PixelLayout{Order: screen.OrderBGRX, Stride: 12}) {
		t.Fatalf("depth 24 = %+v", got)
	}

	got, err = pixelLayout(setup, 32, 3)
	if err != nil || got.Order != screen.OrderBGRA {
		t.Fatalf("depth 32 = %+v, %v", got, err)
	}

	if _, err := pixelLayout(setup, 16, 3); err == nil {
		t.Fatal("expected error for 16 bpp")
	}
	if _, err := pixelLayout(setup, 8, 3); err == nil {
		t.Fatal("expected error for missing depth")
	}

	packed := &xproto.SetupInfo{PixmapFormats: []xproto.Format{{Depth: 24, BitsPerPixel: 24, ScanlinePad: 32}}}
	got, err = pixelLayout(packed, 24, 3)
	if err != nil || got != (screen.PixelLayout{Order: screen.OrderBGR24, Stride: 12}) {
		t.Fatalf("packed 24 bpp = %+v, %v", got, err)
	}

	msb := &xproto.SetupInfo{ImageByteOrder: 1, PixmapFormats: setup.PixmapFormats}
	if _, err := pixelLayout(msb, 24, 3); err == nil {
		t.Fatal("expected error for MSB-first servers")
	}
}
