package handler

import (
	"net/http"

	"leetlab/internal/app/service"
	"leetlab/internal/common"

	"github.com/go-chi/chi/v5"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(cs service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: cs}
}

func (h *ChatHandler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.With(authn).Post("/chat", h.chat)
}

func (h *ChatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req service.ChatRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	resp, err := h.chatService.Chat(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
