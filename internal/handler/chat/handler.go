package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatService "github.com/zhouzirui/saint-chat/backend/internal/service/chat"
	"github.com/zhouzirui/saint-chat/backend/pkg/utils"
)

// Handler 会话记录的HTTP处理器
type Handler struct {
	store *chatService.Store
}

// New 创建聊天处理器
func New(store *chatService.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/messages", h.handleTranscript)
}

// handleTranscript returns the turns recorded for a session.
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	transcript, err := h.store.Transcript(sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, transcript)
}
