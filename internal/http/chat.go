package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/r1cksync/skycast/internal/models"
)

// Chat handles POST /api/chatbot/chat. Not cached: every turn is computed
// fresh against live data.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message             string                    `json:"message"`
		ConversationHistory []models.ConversationTurn `json:"conversationHistory"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Message is required")
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Message is required")
		return
	}

	reply, err := h.chat.Chat(r.Context(), body.Message, body.ConversationHistory)
	if err != nil {
		h.logger.Error("chat turn failed", zap.Error(err))
		writeChatError(w, r, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
