package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 54 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// WebSocketHandler carries the same chat stream over a WebSocket, one
// request/reply exchange per inbound message.
type WebSocketHandler struct {
	streamer ChatStreamer
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(streamer ChatStreamer) *WebSocketHandler {
	return &WebSocketHandler{
		streamer: streamer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Message string `json:"message"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionFromQuery(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("component", "ws").Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	logger := log.With().Str("component", "ws").Str("session", sessionID).Logger()
	logger.Info().Msg("new connection")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	go pingLoop(ctx, conn)

	if err := h.send(conn, outgoingMessage{Type: "connected", SessionID: sessionID}); err != nil {
		return
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			if err := h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Error: "invalid message payload"}); err != nil {
				return
			}
			continue
		}

		if err := h.reply(ctx, conn, logger, sessionID, strings.TrimSpace(msg.Message)); err != nil {
			logger.Info().Err(err).Msg("write failed, closing connection")
			return
		}
	}
}

func (h *WebSocketHandler) reply(ctx context.Context, conn *websocket.Conn, logger zerolog.Logger, sessionID, message string) error {
	if message == "" {
		return h.send(conn, outgoingMessage{Type: "done", SessionID: sessionID})
	}

	fragments := 0
	for fragment := range h.streamer.Stream(ctx, sessionID, message) {
		if fragment.Content == "" {
			continue
		}
		if err := h.send(conn, outgoingMessage{Type: "delta", SessionID: sessionID, Content: fragment.Content}); err != nil {
			return err
		}
		fragments++
	}

	logger.Debug().Int("fragments", fragments).Msg("reply finished")
	return h.send(conn, outgoingMessage{Type: "done", SessionID: sessionID, Content: donePayload})
}

func (h *WebSocketHandler) send(conn *websocket.Conn, msg outgoingMessage) error {
	msg.Timestamp = time.Now().Unix()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
