package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/bryanchriswhite/screengrab/internal/capture"
	"github.com/bryanchriswhite/screengrab/internal/output"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

var (
	primary = screen.Monitor{ID: 1, Name: "primary", Width: 1920, Height: 1080, ScaleFactor: 1, IsPrimary: true}
	editor  = screen.Window{ID: 7, Title: "editor", AppName: "code", Width: 64, Height: 48, Z: 0, Monitor: primary}
)

type fakeCapturer struct {
	calls []string
}

func (f *fakeCapturer) Backend() capture.Kind { return capture.KindX11 }

func (f *fakeCapturer) ListMonitors() ([]screen.Monitor, error) {
	return []screen.Monitor{primary}, nil
}

func (f *fakeCapturer) ListWindows() ([]screen.Window, error) {
	return []screen.Window{editor}, nil
}

func (f *fakeCapturer) MonitorFromPoint(x, y int) (screen.Monitor, error) {
	if primary.Bounds().Contains(float64(x), float64(y)) {
		return primary, nil
	}
	return screen.Monitor{}, screen.NewError("monitor from point", screen.ErrNotFound, nil)
}

func (f *fakeCapturer) CaptureScreen(id uint32) (*screen.Image, error) {
	f.calls = append(f.calls, fmt.Sprintf("screen %d", id))
	if id != primary.ID {
		return nil, screen.NewError("capture screen", screen.ErrNotFound, nil)
	}
	return screen.NewImage(32, 18)
}

func (f *fakeCapturer) CaptureScreenArea(id uint32, x, y, w, h int) (*screen.Image, error) {
	f.calls = append(f.calls, fmt.Sprintf("area %d %d,%d %dx%d", id, x, y, w, h))
	area, err := screen.MonitorArea(primary, x, y, w, h)
	if err != nil {
		return nil, err
	}
	return screen.NewImage(area.Width, area.Height)
}

func (f *fakeCapturer) CaptureWindow(id uint32) (*screen.Image, error) {
	f.calls = append(f.calls, fmt.Sprintf("window %d", id))
	if id != editor.ID {
		return nil, screen.NewError("capture window", screen.ErrNotFound, nil)
	}
	return screen.NewImage(editor.Width, editor.Height)
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeCapturer) {
	t.Helper()
	fake := &fakeCapturer{}
	srv := httptest.NewServer(NewServer(fake, output.Config{Format: output.FormatPNG}).Handler())
	t.Cleanup(srv.Close)
	return srv, fake
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return resp, buf.Bytes()
}

func TestListEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := get(t, srv.URL+"/api/monitors")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var monitors []screen.Monitor
	if err := json.Unmarshal(body, &monitors); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]screen.Monitor{primary}, monitors); diff != "" {
		t.Fatalf("monitors mismatch (-want +got):\n%s", diff)
	}

	_, body = get(t, srv.URL+"/api/windows")
	var windows []screen.Window
	if err := json.Unmarshal(body, &windows); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]screen.Window{editor}, windows); diff != "" {
		t.Fatalf("windows mismatch (-want +got):\n%s", diff)
	}

	_, body = get(t, srv.URL+"/api/backend")
	if !strings.Contains(string(body), `"backend":"x11"`) {
		t.Fatalf("backend body %s", body)
	}
}

func TestMonitorAt(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		query string
		want  int
	}{
		{"x=100&y=100", http.StatusOK},
		{"x=5000&y=100", http.StatusNotFound},
		{"x=a&y=1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if resp, _ := get(t, srv.URL+"/api/monitors/at?"+tt.query); resp.StatusCode != tt.want {
			t.Errorf("%s: status %d, want %d", tt.query, resp.StatusCode, tt.want)
		}
	}
}

func TestCaptureEndpoints(t *testing.T) {
	srv, fake := newTestServer(t)

	resp, body := get(t, srv.URL+"/api/monitors/1/capture")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("status %d, type %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 18 {
		t.Fatalf("got %v", b)
	}

	resp, body = get(t, srv.URL+"/api/windows/7/capture?format=jpg")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Fatalf("status %d, type %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if _, err := jpeg.Decode(bytes.NewReader(body)); err != nil {
		t.Fatal(err)
	}

	resp, _ = get(t, srv.URL+"/api/monitors/1/capture?x=10&y=20&width=30&height=40")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("area status %d", resp.StatusCode)
	}

	want := []string{"screen 1", "window 7", "area 1 10,20 30x40"}
	if diff := cmp.Diff(want, fake.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestCaptureErrorStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/monitors/9/capture", http.StatusNotFound},
		{"/api/windows/9/capture", http.StatusNotFound},
		{"/api/monitors/1/capture?x=1900&y=0&width=100&height=10", http.StatusBadRequest},
		{"/api/monitors/1/capture?width=0&height=10", http.StatusBadRequest},
		{"/api/monitors/1/capture?width=w&height=10", http.StatusBadRequest},
		{"/api/monitors/1/capture?format=gif", http.StatusBadRequest},
		{"/api/monitors/99999999999/capture", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if resp, _ := get(t, srv.URL+tt.path); resp.StatusCode != tt.want {
			t.Errorf("%s: status %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestWebSocketCapture(t *testing.T) {
	srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Request{Target: TargetArea, ID: 1, X: 4, Y: 4, Width: 16, Height: 8}); err != nil {
		t.Fatal(err)
	}
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("message type %d, want binary", kind)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Fatalf("got %v", b)
	}

	if err := conn.WriteJSON(Request{Target: "desktop"}); err != nil {
		t.Fatal(err)
	}
	var reply errorReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply.Error, "unsupported capture target") {
		t.Fatalf("error reply %q", reply.Error)
	}

	// the connection stays usable after an error
	if err := conn.WriteJSON(Request{Target: TargetWindow, ID: 7}); err != nil {
		t.Fatal(err)
	}
	if kind, _, err := conn.ReadMessage(); err != nil || kind != websocket.BinaryMessage {
		t.Fatalf("got type %d, %v", kind, err)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{screen.NewError("x", screen.ErrNotFound, nil), http.StatusNotFound},
		{screen.NewError("x", screen.ErrZeroSize, nil), http.StatusBadRequest},
		{screen.NewError("x", screen.ErrUnsupportedTarget, nil), http.StatusBadRequest},
		{screen.NewError("x", screen.ErrCopy, nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("%v: got %d, want %d", tt.err, got, tt.want)
		}
	}
}
