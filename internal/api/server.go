package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/bryanchriswhite/screengrab/internal/capture"
	"github.com/bryanchriswhite/screengrab/internal/logger"
	"github.com/bryanchriswhite/screengrab/internal/output"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// Capturer is the enumeration and capture surface the API serves.
// *capture.Router implements it.
type Capturer interface {
	Backend() capture.Kind
	ListMonitors() ([]screen.Monitor, error)
	ListWindows() ([]screen.Window, error)
	MonitorFromPoint(x, y int) (screen.Monitor, error)
	CaptureScreen(monitorID uint32) (*screen.Image, error)
	CaptureScreenArea(monitorID uint32, x, y, width, height int) (*screen.Image, error)
	CaptureWindow(windowID uint32) (*screen.Image, error)
}

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	capturer Capturer
	encoding output.Config
	upgrader websocket.Upgrader
}

// NewServer creates a new API server. encoding is the default image format;
// requests may override it with ?format=.
func NewServer(capturer Capturer, encoding output.Config) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		capturer: capturer,
		encoding: encoding,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local tool, any origin
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/backend", s.handleBackend).Methods("GET")

	// Monitors
	api.HandleFunc("/monitors", s.handleListMonitors).Methods("GET")
	api.HandleFunc("/monitors/at", s.handleMonitorAt).Methods("GET")
	api.HandleFunc("/monitors/{id:[0-9]+}/capture", s.handleCaptureMonitor).Methods("GET")

	// Windows
	api.HandleFunc("/windows", s.handleListWindows).Methods("GET")
	api.HandleFunc("/windows/{id:[0-9]+}/capture", s.handleCaptureWindow).Methods("GET")

	// Capture requests over a websocket
	api.HandleFunc("/ws", s.handleWebSocket)
}

// Handler returns the routes wrapped with CORS headers
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start serves on port until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	log := logger.WithComponent("api")

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", "http://localhost"+srv.Addr).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusFor maps capture errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, screen.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, screen.ErrUnsupportedTarget), errors.Is(err, screen.ErrZeroSize):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// HTTP Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

func (s *Server) handleBackend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"backend": string(s.capturer.Backend())})
}

func (s *Server) handleListMonitors(w http.ResponseWriter, r *http.Request) {
	monitors, err := s.capturer.ListMonitors()
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, monitors)
}

func (s *Server) handleMonitorAt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := strconv.Atoi(q.Get("x"))
	y, errY := strconv.Atoi(q.Get("y"))
	if errX != nil || errY != nil {
		http.Error(w, "x and y must be integers", http.StatusBadRequest)
		return
	}

	m, err := s.capturer.MonitorFromPoint(x, y)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, m)
}

func (s *Server) handleListWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := s.capturer.ListWindows()
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, windows)
}

func (s *Server) handleCaptureMonitor(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := Request{Target: TargetMonitor, ID: id}
	if q := r.URL.Query(); q.Has("width") || q.Has("height") {
		area, err := parseArea(q.Get("x"), q.Get("y"), q.Get("width"), q.Get("height"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Target = TargetArea
		req.X, req.Y, req.Width, req.Height = area[0], area[1], area[2], area[3]
	}
	s.serveCapture(w, r, req)
}

func (s *Server) handleCaptureWindow(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.serveCapture(w, r, Request{Target: TargetWindow, ID: id})
}

func (s *Server) serveCapture(w http.ResponseWriter, r *http.Request, req Request) {
	enc := s.encoding
	if f := r.URL.Query().Get("format"); f != "" {
		format, err := output.ParseFormat(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		enc.Format = format
	}

	img, err := s.capture(req)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", enc.Format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint32(id), nil
}

// parseArea reads x, y, width, height; x and y default to 0
func parseArea(values ...string) ([4]int, error) {
	var area [4]int
	names := [4]string{"x", "y", "width", "height"}
	for i, v := range values {
		if v == "" && i < 2 {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return area, fmt.Errorf("%s must be an integer", names[i])
		}
		area[i] = n
	}
	return area, nil
}
