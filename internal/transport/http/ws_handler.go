package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// serveAttemptWS streams the attempt clock for one device over a websocket:
// countdown and ready events before the quiz opens, tick events while it
// runs, and a terminal autoSubmitted or submitted event. The watch stops as
// soon as the client disconnects.
func (h *Handler) serveAttemptWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	code := r.URL.Query().Get("code")
	if token == "" || code == "" {
		http.Error(w, "missing token or code", http.StatusBadRequest)
		return
	}

	sess, ok, err := h.Sessions.Current(r.Context(), token)
	if err != nil || !ok || sess.Role != session.RoleStudent {
		http.Error(w, "student session required", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, err := h.Engine.Watch(ctx, token, code, sess.Student1, sess.Student2)
	if err != nil {
		_ = conn.WriteJSON(errorResponse{Error: err.Error()})
		return
	}

	// The read loop only exists to notice the client going away; any inbound
	// frame is discarded.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			slog.Debug("ws write failed", "error", err)
			return
		}
	}
}
