package capture

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bryanchriswhite/screengrab/internal/screen"
)

type fakeBackend struct {
	monitors []screen.Monitor
	windows  []screen.Window
	captured []screen.Target
	closed   int
	err      error
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Monitors() ([]screen.Monitor, error) { return f.monitors, f.err }

func (f *fakeBackend) Windows() ([]screen.Window, error) { return f.windows, f.err }

func (f *fakeBackend) Capture(t screen.Target) (*screen.Image, error) {
	f.captured = append(f.captured, t)
	r := t.Rect()
	return screen.NewImage(r.Width, r.Height)
}

func (f *fakeBackend) Close() error {
	f.closed++
	return nil
}

var (
	primary   = screen.Monitor{ID: 1, Name: "primary", Width: 1920, Height: 1080, ScaleFactor: 1, IsPrimary: true}
	secondary = screen.Monitor{ID: 2, Name: "hidpi", X: 1920, Width: 3840, Height: 2160, ScaleFactor: 2}
)

func newFakeRouter(t *testing.T, opts Options) (*Router, *fakeBackend) {
	t.Helper()
	fake := &fakeBackend{
		monitors: []screen.Monitor{primary, secondary},
		windows: []screen.Window{
			{ID: 7, Title: "editor", X: 10, Y: 10, Width: 640, Height: 480, Z: 1, Monitor: primary},
			{ID: 8, Title: "offscreen", X: 10, Y: 10, Monitor: primary},
		},
	}
	opts.GOOS = "linux"
	opts.Getenv = env(nil)
	r := &Router{opts: opts, factories: map[Kind]Factory{}}
	r.Register(KindX11, func(Options) (Backend, error) { return fake, nil })
	return r, fake
}

func TestRouterReleasesBackendEveryCall(t *testing.T) {
	r, fake := newFakeRouter(t, Options{})

	if _, err := r.ListMonitors(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ListWindows(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.CaptureWindow(404); !errors.Is(err, screen.ErrNotFound) {
		t.Fatalf("missing window: got %v", err)
	}
	if fake.closed != 3 {
		t.Fatalf("backend closed %d times, want 3", fake.closed)
	}
}

func TestRouterCaptureScreen(t *testing.T) {
	r, fake := newFakeRouter(t, Options{})

	img, err := r.CaptureScreen(1)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 1920 || img.Height != 1080 || len(img.Pix) != 1920*1080*4 {
		t.Fatalf("got %dx%d len=%d", img.Width, img.Height, len(img.Pix))
	}
	want := []screen.Target{screen.MonitorTarget{Monitor: primary}}
	if diff := cmp.Diff(want, fake.captured); diff != "" {
		t.Fatalf("targets (-want +got):\n%s", diff)
	}

	if _, err := r.CaptureScreen(99); !errors.Is(err, screen.ErrNotFound) {
		t.Fatalf("unknown monitor: got %v", err)
	}
}

func TestRouterCaptureScreenArea(t *testing.T) {
	r, fake := newFakeRouter(t, Options{})

	img, err := r.CaptureScreenArea(1, 100, 100, 50, 50)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 50 || img.Height != 50 {
		t.Fatalf("got %dx%d", img.Width, img.Height)
	}

	if _, err := r.CaptureScreenArea(1, 1900, 1000, 200, 200); !errors.Is(err, screen.ErrUnsupportedTarget) {
		t.Fatalf("overflowing area: got %v", err)
	}

	// secondary monitor is offset; the area is translated to desktop coordinates
	if _, err := r.CaptureScreenArea(2, 0, 0, 10, 10); err != nil {
		t.Fatal(err)
	}
	last := fake.captured[len(fake.captured)-1].Rect()
	if last != (screen.Rect{X: 1920, Width: 10, Height: 10}) {
		t.Fatalf("translated area = %v", last)
	}
	if len(fake.captured) != 2 {
		t.Fatalf("backend reached %d times, rejected area must not reach it", len(fake.captured))
	}
}

func TestRouterRejectsBeforeNativeCall(t *testing.T) {
	r, fake := newFakeRouter(t, Options{})

	if _, err := r.CaptureWindow(8); !errors.Is(err, screen.ErrZeroSize) {
		t.Fatalf("zero-size window: got %v", err)
	}
	for name, region := range map[string]screen.Rect{
		"right of every monitor": {X: 6000, Width: 10, Height: 10},
		"below primary":          {X: 0, Y: 1500, Width: 10, Height: 10},
	} {
		if _, err := r.Capture(screen.RegionTarget{Region: region}); !errors.Is(err, screen.ErrUnsupportedTarget) {
			t.Fatalf("region %s: got %v", name, err)
		}
	}
	if len(fake.captured) != 0 {
		t.Fatalf("backend captured %v", fake.captured)
	}
}

func TestRouterFullRegionMatchesMonitor(t *testing.T) {
	for _, logical := range []bool{false, true} {
		r, _ := newFakeRouter(t, Options{ScaleToLogical: logical})

		direct, err := r.CaptureScreen(secondary.ID)
		if err != nil {
			t.Fatal(err)
		}
		region, err := r.Capture(screen.RegionTarget{Region: secondary.Bounds()})
		if err != nil {
			t.Fatal(err)
		}
		if direct.Width != region.Width || direct.Height != region.Height {
			t.Fatalf("logical=%v: monitor %dx%d, region %dx%d",
				logical, direct.Width, direct.Height, region.Width, region.Height)
		}
	}
}

func TestRouterScaleToLogical(t *testing.T) {
	r, _ := newFakeRouter(t, Options{ScaleToLogical: true})

	img, err := r.CaptureScreen(2)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 1920 || img.Height != 1080 {
		t.Fatalf("got %dx%d, want logical 1920x1080", img.Width, img.Height)
	}

	img, err = r.CaptureScreen(1)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 1920 {
		t.Fatalf("scale 1 monitor resampled to %d", img.Width)
	}
}

func TestRouterMonitorFromPoint(t *testing.T) {
	r, _ := newFakeRouter(t, Options{})

	m, err := r.MonitorFromPoint(2000, 10)
	if err != nil || m.ID != 2 {
		t.Fatalf("got %d, %v", m.ID, err)
	}
	if _, err := r.MonitorFromPoint(-1, -1); !errors.Is(err, screen.ErrNotFound) {
		t.Fatalf("outside: got %v", err)
	}
}

func TestRouterBackendFailures(t *testing.T) {
	r, fake := newFakeRouter(t, Options{})
	fake.err = screen.NewError("enumerate monitors", screen.ErrEnumeration, errors.New("randr missing"))

	if _, err := r.ListMonitors(); !errors.Is(err, screen.ErrEnumeration) {
		t.Fatalf("got %v", err)
	}
	if fake.closed != 1 {
		t.Fatalf("backend not released on error path, closed=%d", fake.closed)
	}

	r.Register(KindX11, func(Options) (Backend, error) { return nil, errors.New("cannot open display") })
	if _, err := r.ListWindows(); !errors.Is(err, screen.ErrResourceAcquisition) {
		t.Fatalf("open failure: got %v", err)
	}

	r.SetOptions(Options{Backend: KindGDI})
	if _, err := r.ListMonitors(); !errors.Is(err, screen.ErrResourceAcquisition) {
		t.Fatalf("unavailable backend: got %v", err)
	}
	if r.Backend() != KindGDI {
		t.Fatalf("Backend() = %s", r.Backend())
	}
}
