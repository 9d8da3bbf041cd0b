package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/bryanchriswhite/screengrab/internal/logger"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// TargetKind names what a websocket capture request is aimed at
type TargetKind string

const (
	TargetMonitor TargetKind = "monitor"
	TargetWindow  TargetKind = "window"
	TargetArea    TargetKind = "area"
)

// Request is one capture request. For area requests ID is the monitor and
// X, Y are relative to its top-left corner.
type Request struct {
	Target TargetKind `json:"target"`
	ID     uint32     `json:"id"`
	X      int        `json:"x,omitempty"`
	Y      int        `json:"y,omitempty"`
	Width  int        `json:"width,omitempty"`
	Height int        `json:"height,omitempty"`
}

type errorReply struct {
	Error string `json:"error"`
}

// handleWebSocket answers each JSON request with a binary image frame, or a
// JSON error, until the client disconnects
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		frame, err := s.frame(req)
		if err != nil {
			log.Debug().Err(err).Str("target", string(req.Target)).Uint32("id", req.ID).Msg("Capture request failed")
			if err := conn.WriteJSON(errorReply{Error: err.Error()}); err != nil {
				log.Warn().Err(err).Msg("WebSocket write error")
				return
			}
			continue
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			log.Warn().Err(err).Msg("WebSocket write error")
			return
		}
	}
}

// frame captures and encodes one request
func (s *Server) frame(req Request) ([]byte, error) {
	img, err := s.capture(req)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.encoding.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// capture dispatches a request to the capturer
func (s *Server) capture(req Request) (*screen.Image, error) {
	switch req.Target {
	case TargetMonitor:
		return s.capturer.CaptureScreen(req.ID)
	case TargetWindow:
		return s.capturer.CaptureWindow(req.ID)
	case TargetArea:
		return s.capturer.CaptureScreenArea(req.ID, req.X, req.Y, req.Width, req.Height)
	}
	return nil, screen.NewError("capture", screen.ErrUnsupportedTarget,
		fmt.Errorf("unknown target %q", req.Target))
}
