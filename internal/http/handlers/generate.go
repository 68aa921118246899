package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"avatarbooth/internal/domain"
	"avatarbooth/internal/middleware"
	"avatarbooth/internal/presenter"
	"avatarbooth/internal/session"
	"avatarbooth/internal/validate"
	"avatarbooth/internal/workflow"
)

// A little slack on top of the image limit so multipart overhead never trips
// the form parser before validation can reject the file itself.
const maxMultipartMemory = validate.MaxImageBytes + 512*1024

type generateResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

// Generate accepts the multipart submission (api_key, style, prompt, image),
// validates it, then runs the workflow in the background. The response carries
// the session id for status polling and the progress stream.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	apiKey := strings.TrimSpace(r.FormValue("api_key"))
	if apiKey == "" {
		a.error(w, http.StatusUnprocessableEntity, "validation_error", "api key is required")
		return
	}
	style, err := domain.ParseStyle(r.FormValue("style"))
	if err != nil {
		a.error(w, http.StatusUnprocessableEntity, domain.ErrorCode(err), presenter.Failure(locale, err))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, validate.MaxImageBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read image")
		return
	}
	// Fail fast: an invalid file must never cost a network call.
	if _, err := validate.Image(header.Filename, data); err != nil {
		a.error(w, http.StatusUnprocessableEntity, domain.ErrorCode(err), presenter.Failure(locale, err))
		return
	}

	in := workflow.Input{
		APIKey:   apiKey,
		Filename: header.Filename,
		Data:     data,
		Style:    style,
		Prompt:   r.FormValue("prompt"),
	}

	snap := a.Sessions.Create(style)
	go a.runSession(snap.ID, in)

	a.Logger.Info().
		Str("session_id", snap.ID).
		Str("style", string(style)).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("submission accepted")
	a.json(w, http.StatusAccepted, generateResponse{SessionID: snap.ID, State: snap.State})
}

// runSession owns the whole lifetime of one submission. The context budget
// covers every remote call plus the full polling window, so an unresponsive
// provider cannot pin the goroutine forever.
func (a *App) runSession(id string, in workflow.Input) {
	budget := 2*a.Config.RequestTimeout +
		time.Duration(a.Config.PollAttempts)*(a.Config.PollInterval+a.Config.RequestTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	outcome, err := a.Workflow.Run(ctx, in, func(ev workflow.Event) {
		a.Sessions.Append(id, session.Event{
			Stage:   ev.Stage,
			Attempt: ev.Attempt,
			Status:  string(ev.Status),
			Message: ev.Message,
		})
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = domain.ErrTimeout
		}
		a.Logger.Warn().Err(err).Str("session_id", id).Msg("submission failed")
	} else {
		a.Logger.Info().Str("session_id", id).Str("state", string(outcome.State)).Msg("submission finished")
	}
	a.Sessions.Finish(id, outcome, err)
}
