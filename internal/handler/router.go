package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/saint-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/saint-chat/backend/internal/handler/page"
	"github.com/zhouzirui/saint-chat/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/saint-chat/backend/internal/middleware"
	personaModel "github.com/zhouzirui/saint-chat/backend/internal/model/persona"
	chatService "github.com/zhouzirui/saint-chat/backend/internal/service/chat"
	"github.com/zhouzirui/saint-chat/backend/pkg/utils"
)

// Dependencies is the application state shared by every request handler.
type Dependencies struct {
	Persona  personaModel.Persona
	Streamer stream.ChatStreamer
	Store    *chatService.Store
	Greeting page.GreetingSource
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	page.New(deps.Persona, deps.Greeting).RegisterRoutes(r)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(api chi.Router) {
		stream.New(deps.Streamer).RegisterRoutes(api)
		stream.NewWebSocketHandler(deps.Streamer).RegisterWebSocketRoutes(api)
		chat.New(deps.Store).RegisterRoutes(api)
	})

	return r
}
