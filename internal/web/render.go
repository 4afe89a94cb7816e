package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"portfolio-chat/internal/chat"
	"portfolio-chat/internal/content"
	"portfolio-chat/internal/models"
)

//go:embed templates/*.html static/*
var files embed.FS

type LandingPage struct {
	Profile  *content.Profile
	Shortcut models.PresetLink
	Presets  []models.PresetLink
}

type ChatPage struct {
	Profile      *content.Profile
	View         models.SessionView
	Presets      []content.Preset
	SubmitURL    string
	ResetURL     string
	WebSocketURL string
}

// Renderer executes the page templates. Pages render into a buffer first so a
// template error never leaves a half-written response.
type Renderer struct {
	landing *template.Template
	chat    *template.Template
}

var funcs = template.FuncMap{
	"join":   strings.Join,
	"isUser": func(r chat.Role) bool { return r == chat.RoleUser },
	// colors come from the site profile, not from visitors
	"css": func(s string) template.CSS { return template.CSS(s) },
}

func NewRenderer() (*Renderer, error) {
	landing, err := parsePage("landing.html")
	if err != nil {
		return nil, err
	}
	chatTmpl, err := parsePage("chat.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{landing: landing, chat: chatTmpl}, nil
}

func parsePage(name string) (*template.Template, error) {
	t, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return t, nil
}

func (r *Renderer) Landing(w http.ResponseWriter, page LandingPage) error {
	return render(w, r.landing, page)
}

func (r *Renderer) Chat(w http.ResponseWriter, page ChatPage) error {
	return render(w, r.chat, page)
}

func render(w http.ResponseWriter, t *template.Template, data interface{}) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet and script.
func Static() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
