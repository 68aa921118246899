package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"avatarbooth/internal/domain"
	"avatarbooth/internal/validate"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pagePrompts struct {
	Avatar  string
	Cartoon string
}

type pageData struct {
	MaxUploadBytes int
	Prompts        pagePrompts
}

// Index serves the single operator page: API key entry, file picker, style
// selector, prompt field and the output area.
func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		MaxUploadBytes: validate.MaxImageBytes,
		Prompts: pagePrompts{
			Avatar:  domain.DefaultPrompt(domain.StyleAvatar),
			Cartoon: domain.DefaultPrompt(domain.StyleCartoon),
		},
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		a.Logger.Error().Err(err).Msg("render index page")
	}
}
