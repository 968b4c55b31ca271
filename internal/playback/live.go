package playback

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// CheckOrigin is left nil so the upgrader rejects cross-origin pages.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// clientFrame is one client-to-server WebSocket message.
type clientFrame struct {
	Type       string   `json:"type"`
	Time       *float64 `json:"time,omitempty"`
	QuestionID string   `json:"questionId,omitempty"`
	Option     *int     `json:"option,omitempty"`
}

type liveConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *liveConn) Send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(f)
}

func (c *liveConn) Close() error {
	return c.conn.Close()
}

// Live upgrades to a WebSocket that carries playback signals in and
// reveals, dismissals and player commands out.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("playback: websocket upgrade failed", "session_id", s.ID, "error", err)
		return
	}
	conn := &liveConn{conn: wsConn}
	if prev := s.attach(conn); prev != nil {
		if c, ok := prev.(closer); ok {
			_ = c.Close()
		}
	}
	slog.Info("playback: live connection opened", "session_id", s.ID)

	done := make(chan struct{})
	defer func() {
		close(done)
		s.detach(conn)
		_ = conn.Close()
		slog.Info("playback: live connection closed", "session_id", s.ID)
	}()
	go pingLoop(wsConn, done)

	if err := conn.Send(s.stateFrame()); err != nil {
		return
	}
	h.readLoop(s, wsConn, conn)
}

func (h *Handler) readLoop(s *Session, wsConn *websocket.Conn, conn *liveConn) {
	wsConn.SetReadLimit(maxMessageSize)
	_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f clientFrame
		if err := wsConn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("playback: websocket read failed", "session_id", s.ID, "error", err)
			}
			return
		}
		_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))
		if _, ok := h.manager.Get(s.ID); !ok {
			return
		}
		if err := h.dispatch(s, f); err != nil {
			se := classify(err)
			if sendErr := conn.Send(Frame{Type: "error", Error: se.message, Code: se.code}); sendErr != nil {
				return
			}
		}
	}
}

func (h *Handler) dispatch(s *Session, f clientFrame) error {
	switch f.Type {
	case "progress":
		if f.Time == nil {
			return errBadFrame("progress requires time")
		}
		_, err := s.Progress(*f.Time)
		return err
	case "seek":
		if f.Time == nil {
			return errBadFrame("seek requires time")
		}
		s.Seek(*f.Time)
		return nil
	case "select":
		if f.QuestionID == "" || f.Option == nil {
			return errBadFrame("select requires questionId and option")
		}
		_, err := s.Select(f.QuestionID, *f.Option)
		if err == nil {
			slog.Info("playback: question answered", "session_id", s.ID, "question_id", f.QuestionID, "option", *f.Option)
		}
		return err
	case "duration":
		if f.Time == nil {
			return errBadFrame("duration requires time")
		}
		s.SetDuration(*f.Time)
		return nil
	default:
		return errBadFrame("unknown frame type " + f.Type)
	}
}

type badFrameError string

func (e badFrameError) Error() string { return string(e) }

func errBadFrame(msg string) error { return badFrameError(msg) }

func pingLoop(wsConn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := wsConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
