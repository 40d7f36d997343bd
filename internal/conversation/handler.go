package conversation

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/leadbridge/internal/apperrors"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned on success.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Handler wires HTTP requests to the chat service.
type Handler struct {
	chat   *ChatService
	logger *logging.Logger
}

// NewHandler creates a chat handler.
func NewHandler(chat *ChatService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{chat: chat, logger: logger}
}

// Chat handles POST /api/chat. Rate limiting is applied by middleware.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, 16<<10)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode chat request", "error", err)
		apperrors.WriteJSON(w, apperrors.Validation("conversation.Chat", "Invalid request body."))
		return
	}

	reply, err := h.chat.Reply(r.Context(), req.Message)
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindValidation {
			h.logger.Error("chat reply failed", "error", err)
		}
		apperrors.WriteJSON(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
