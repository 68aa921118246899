package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"avatarbooth/internal/domain"
	"avatarbooth/internal/infra"
	"avatarbooth/internal/presenter"
	"avatarbooth/internal/session"
	"avatarbooth/internal/workflow"
)

// Workflow is the submission runner the handlers drive. *workflow.Runner
// satisfies it.
type Workflow interface {
	Run(ctx context.Context, in workflow.Input, notify func(workflow.Event)) (*domain.Outcome, error)
}

// App is the handler container with its injected dependencies.
type App struct {
	Config   *infra.Config
	Logger   infra.Logger
	Workflow Workflow
	Sessions *session.Store

	upgrader websocket.Upgrader
}

func NewApp(cfg *infra.Config, logger infra.Logger, wf Workflow, sessions *session.Store) *App {
	return &App{
		Config:   cfg,
		Logger:   logger,
		Workflow: wf,
		Sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The page is served by this process; sessions are scoped to it.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// displayMessage renders the operator-facing line for a session, empty while
// the session is still running.
func displayMessage(locale string, snap session.Snapshot) string {
	switch {
	case snap.State == session.StateRunning:
		return ""
	case snap.State == session.StateError:
		return presenter.FailureCode(locale, snap.ErrorCode)
	case snap.Outcome != nil:
		return presenter.Outcome(locale, *snap.Outcome)
	default:
		return ""
	}
}
