package stream

import (
	"context"
	"iter"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/saint-chat/backend/internal/model/chat"
	"github.com/zhouzirui/saint-chat/backend/pkg/utils"
)

// ChatStreamer yields reply fragments for a message in a session.
type ChatStreamer interface {
	Stream(ctx context.Context, sessionID, message string) iter.Seq[chat.Fragment]
}

const (
	doneEvent   = "done"
	donePayload = "[DONE]"
)

// Handler relays chat replies to the browser via Server-Sent Events.
type Handler struct {
	streamer ChatStreamer
}

// New creates a new stream handler
func New(streamer ChatStreamer) *Handler {
	return &Handler{streamer: streamer}
}

// RegisterRoutes 注册流式输出路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream", h.handleStream)
}

// handleStream writes one data event per fragment and closes with a done
// event. A blank message gets only the done event, with an empty payload.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	query := r.URL.Query()
	message := strings.TrimSpace(query.Get("message"))
	sessionID := sessionFromQuery(r)

	logger := log.With().
		Str("component", "stream").
		Str("session", sessionID).
		Str("request_id", middleware.GetReqID(r.Context())).
		Logger()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if message == "" {
		if err := utils.SendSSEEvent(w, flusher, doneEvent, ""); err != nil {
			logger.Warn().Err(err).Msg("failed to close empty stream")
		}
		return
	}

	fragments := 0
	for fragment := range h.streamer.Stream(r.Context(), sessionID, message) {
		if fragment.Content == "" {
			continue
		}
		if err := utils.SendSSEData(w, flusher, fragment.Content); err != nil {
			logger.Info().Err(err).Int("fragments", fragments).Msg("client went away mid-stream")
			return
		}
		fragments++
	}

	if err := utils.SendSSEEvent(w, flusher, doneEvent, donePayload); err != nil {
		logger.Info().Err(err).Msg("failed to send done event")
		return
	}
	logger.Debug().Int("fragments", fragments).Msg("stream closed")
}

func sessionFromQuery(r *http.Request) string {
	if sessionID := strings.TrimSpace(r.URL.Query().Get("session_id")); sessionID != "" {
		return sessionID
	}
	return chat.DefaultSessionID
}
