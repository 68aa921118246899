package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"avatarbooth/internal/middleware"
	"avatarbooth/internal/session"
)

const eventWriteTimeout = 10 * time.Second

type wsEvent struct {
	Type    string           `json:"type"`
	Event   *session.Event   `json:"event,omitempty"`
	Session *sessionResponse `json:"session,omitempty"`
}

// SessionEvents streams progress events for one submission over a WebSocket,
// mirroring the progressive status lines of the original interface. The
// stream replays recorded events, follows live ones, and ends with the
// terminal session snapshot.
func (a *App) SessionEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, live, cancelSub, ok := a.Sessions.Subscribe(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	locale := middleware.LocaleFromContext(r.Context())

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancelSub()
		a.Logger.Warn().Err(err).Str("session_id", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	defer cancelSub()

	// Detach when the client goes away; the workflow itself is never
	// canceled, the session is only forgotten.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancelSub()
				return
			}
		}
	}()

	write := func(msg wsEvent) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		return conn.WriteJSON(msg) == nil
	}

	for i := range history {
		if !write(wsEvent{Type: "event", Event: &history[i]}) {
			return
		}
	}
	for ev := range live {
		ev := ev
		if !write(wsEvent{Type: "event", Event: &ev}) {
			return
		}
	}

	snap, ok := a.Sessions.Snapshot(id)
	if !ok {
		return
	}
	if snap.State == session.StateRunning {
		// Subscription was canceled by the client, not finished.
		return
	}
	write(wsEvent{Type: "result", Session: &sessionResponse{Snapshot: snap, Message: displayMessage(locale, snap)}})
}
