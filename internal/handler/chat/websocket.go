package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/cleantech-assistant/backend/internal/model/chat"
)

const wsWriteTimeout = 10 * time.Second

// wsReply is one outbound frame; every inbound request gets exactly one.
type wsReply struct {
	Status   int    `json:"status"`
	Response string `json:"response"`
}

// handleWebSocket serves the chat contract over a websocket. Frames on one
// connection are answered strictly in order.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "ws").Msg("upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxRequestBytes)
	ctx := r.Context()
	logger := log.With().Str("component", "ws").Str("remote", r.RemoteAddr).Logger()
	logger.Info().Msg("connection opened")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("read failed")
			}
			logger.Info().Msg("connection closed")
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		out := wsReply{Status: http.StatusBadRequest, Response: chat.MessageRequiredText}
		var payload chat.Request
		if err := json.Unmarshal(data, &payload); err == nil {
			out.Status, out.Response = h.reply(ctx, payload.Message)
		}

		if err := writeJSON(conn, out); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				logger.Warn().Err(err).Msg("write failed")
			}
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
