package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"avatarbooth/internal/http/handlers"
	"avatarbooth/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.Locale(app.Config.DefaultLocale),
	)

	r.Get("/", app.Index)
	r.Get("/v1/healthz", app.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/generate", app.Generate)
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/{id}", app.GetSession)
			r.Get("/{id}/events", app.SessionEvents)
		})
	})

	return r
}
