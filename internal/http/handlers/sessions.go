package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"avatarbooth/internal/middleware"
	"avatarbooth/internal/session"
)

type sessionResponse struct {
	session.Snapshot
	Message string `json:"message,omitempty"`
}

// GetSession returns the current snapshot of a submission, including the
// localized operator message once the session is terminal.
func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "session id required")
		return
	}
	snap, ok := a.Sessions.Snapshot(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, http.StatusOK, sessionResponse{Snapshot: snap, Message: displayMessage(locale, snap)})
}
