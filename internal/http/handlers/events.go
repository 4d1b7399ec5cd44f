package handlers

import (
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/patient-booking/internal/sessions"
	"github.com/wolfman30/patient-booking/internal/workflow"
)

// EventMessage is a frame on the session event stream.
type EventMessage struct {
	Type string         `json:"type"` // "view", "closed"
	View *workflow.View `json:"view,omitempty"`
}

// Events upgrades to a websocket that pushes every new view of the session.
// Slow readers only see the newest view.
func (h *BookingHandler) Events(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.streamViews(conn, sess)
	}).ServeHTTP(w, r)
}

func (h *BookingHandler) streamViews(conn *websocket.Conn, sess *sessions.Session) {
	views, cancel := sess.Controller.Subscribe()
	defer cancel()

	// Inbound frames are ignored; reading only detects the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			var discard map[string]any
			if err := websocket.JSON.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	h.logger.Debug("booking: event stream opened", "session_id", sess.ID)
	for {
		select {
		case <-gone:
			h.logger.Debug("booking: event stream closed by client", "session_id", sess.ID)
			return
		case v, ok := <-views:
			if !ok {
				_ = websocket.JSON.Send(conn, EventMessage{Type: "closed"})
				return
			}
			if err := websocket.JSON.Send(conn, EventMessage{Type: "view", View: &v}); err != nil {
				h.logger.Debug("booking: event send failed", "session_id", sess.ID, "error", err)
				return
			}
		}
	}
}
