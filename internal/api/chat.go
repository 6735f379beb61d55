package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scamtrap/scamtrap/internal/domain"
	"github.com/scamtrap/scamtrap/internal/pipeline"
)

// ChatHandler serves the inbound webhook.
type ChatHandler struct {
	pipeline *pipeline.Pipeline
}

// NewChatHandler creates the webhook handler.
func NewChatHandler(p *pipeline.Pipeline) *ChatHandler {
	return &ChatHandler{pipeline: p}
}

// RegisterRoutes registers the webhook endpoint and its aliases. The caller is
// expected to wrap the router in the API-key middleware.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Chat)
	r.Post("/chat", h.Chat)
	r.Post("/webhook", h.Chat)
	r.Post("/api/chat", h.Chat)
}

// Chat decodes one inbound message and runs it through the pipeline.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	slog.Info("Inbound message",
		"session_id", req.SessionID,
		"channel", req.Channel(),
		"history_len", len(req.ConversationHistory))

	resp := h.pipeline.Handle(r.Context(), req)
	JSON(w, http.StatusOK, resp)
}
