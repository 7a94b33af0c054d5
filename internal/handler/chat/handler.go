package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/cleantech-assistant/backend/internal/model/chat"
	chatService "github.com/zhouzirui/cleantech-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/cleantech-assistant/backend/pkg/utils"
)

const maxRequestBytes = 64 << 10

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc  *chatService.Service
	upgrader websocket.Upgrader
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/chat/ws", h.handleWebSocket)
	r.Get("/health", h.handleHealth)
}

// handleChat answers one message with one reply.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.Request

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondText(w, http.StatusBadRequest, chat.MessageRequiredText)
		return
	}

	status, text := h.reply(r.Context(), payload.Message)
	utils.RespondText(w, status, text)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"responder": h.chatSvc.ResponderName(),
	})
}

// reply maps a chat turn onto the status code and text sent back to the client.
func (h *Handler) reply(ctx context.Context, message string) (int, string) {
	text, err := h.chatSvc.Reply(ctx, message)
	switch {
	case err == nil:
		return http.StatusOK, text
	case errors.Is(err, chatService.ErrMessageRequired):
		return http.StatusBadRequest, chat.MessageRequiredText
	default:
		return http.StatusInternalServerError, chat.UpstreamFailureText
	}
}
