// Package http wires the service's HTTP surface: weather lookups, the chat
// assistant, authentication, and per-user personalization.
package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/r1cksync/skycast/internal/auth"
	"github.com/r1cksync/skycast/internal/chatbot"
	"github.com/r1cksync/skycast/internal/store"
	"github.com/r1cksync/skycast/internal/weather"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weather  weather.Gateway
	chat     *chatbot.Orchestrator
	store    *store.Store
	verifier *auth.GoogleVerifier
	tokens   *auth.TokenManager
	logger   *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(
	gateway weather.Gateway,
	chat *chatbot.Orchestrator,
	userStore *store.Store,
	verifier *auth.GoogleVerifier,
	tokens *auth.TokenManager,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		weather:  gateway,
		chat:     chat,
		store:    userStore,
		verifier: verifier,
		tokens:   tokens,
		logger:   logger,
	}
}

// GetHealth handles GET /health. Always 200; liveness only.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Server is running",
	})
}
