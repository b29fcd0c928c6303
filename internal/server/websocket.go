package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsRequest is one processing request over the socket. Image carries the
// raw image bytes, base64-encoded by encoding/json.
type wsRequest struct {
	Image    []byte `json:"image"`
	Filename string `json:"filename,omitempty"`
}

// wsResponse is a progress or result frame.
type wsResponse struct {
	Status   string      `json:"status"` // "processing", "completed", "error"
	Progress float64     `json:"progress,omitempty"`
	Result   interface{} `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}

const wsReadTimeout = 60 * time.Second

// processWebSocketHandler streams processing progress over a WebSocket.
// Each incoming frame is one image request; the server answers with
// progress frames followed by a completed or error frame.
func (s *Server) processWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()
	slog.Info("websocket connection established", "remote_addr", r.RemoteAddr)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("websocket read failed", "error", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.wsSend(conn, wsResponse{Status: "error", Error: "invalid request frame"})
			continue
		}
		s.handleWSRequest(r, conn, req)
	}
}

func (s *Server) handleWSRequest(r *http.Request, conn *websocket.Conn, req wsRequest) {
	if len(req.Image) == 0 {
		s.wsSend(conn, wsResponse{Status: "error", Error: "empty image payload"})
		return
	}

	img, err := imaging.Decode(bytes.NewReader(req.Image), imaging.AutoOrientation(true))
	if err != nil {
		s.wsSend(conn, wsResponse{Status: "error", Error: "decoding image: " + err.Error()})
		return
	}

	s.wsSend(conn, wsResponse{Status: "processing", Progress: 0})

	res, err := s.pipeline.ProcessImage(r.Context(), img)
	if err != nil {
		s.wsSend(conn, wsResponse{Status: "error", Error: err.Error()})
		return
	}

	recordID := s.persist(r, req.Filename, "image", res)
	s.wsSend(conn, wsResponse{
		Status:   "completed",
		Progress: 100,
		Result:   processResponse{Result: res, RecordID: recordID},
	})
}

func (s *Server) wsSend(conn *websocket.Conn, resp wsResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to marshal websocket frame", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("websocket write failed", "error", err)
	}
}
