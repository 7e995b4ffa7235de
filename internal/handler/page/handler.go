package page

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/saint-chat/backend/internal/model/persona"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// GreetingSource hands out the initial greeting, waiting a bounded time for it.
type GreetingSource interface {
	Wait(ctx context.Context) string
}

// Handler renders the landing and chat pages.
type Handler struct {
	persona  persona.Persona
	greeting GreetingSource
}

// New 创建页面处理器
func New(p persona.Persona, greeting GreetingSource) *Handler {
	return &Handler{persona: p, greeting: greeting}
}

// RegisterRoutes 注册页面路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/chat", h.handleChat)
}

type indexData struct {
	Persona persona.Persona
}

type chatData struct {
	Persona   persona.Persona
	Greeting  string
	SessionID string
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	render(w, "index.html", indexData{Persona: h.persona})
}

// handleChat embeds the greeting and a fresh session id for the browser.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	render(w, "chat.html", chatData{
		Persona:   h.persona,
		Greeting:  h.greeting.Wait(r.Context()),
		SessionID: uuid.NewString(),
	})
}

func render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
