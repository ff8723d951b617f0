package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/r1cksync/skycast/internal/auth"
	"github.com/r1cksync/skycast/internal/models"
)

type contextKey string

const userKey contextKey = "user"

const sessionCookie = "token"

// userFromContext returns the authenticated user placed by RequireAuth.
func userFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// RequireAuth verifies the session JWT (Authorization bearer header or the
// token cookie), loads the user, and stores it in the request context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(sessionCookie); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}
		user, err := h.store.GetUser(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// GoogleSignIn handles POST /api/auth/google: verify the ID token with the
// identity provider, find or create the account, and issue a session JWT.
func (h *Handler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token      string `json:"token"`
		Credential string `json:"credential"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Token is required")
		return
	}
	// The Google Sign-In button posts credential; older clients post token.
	idToken := body.Credential
	if idToken == "" {
		idToken = body.Token
	}
	if idToken == "" {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Token is required")
		return
	}

	claims, err := h.verifier.Verify(r.Context(), idToken)
	if err != nil {
		h.logger.Warn("google token verification failed", zap.Error(err))
		writeError(w, r, http.StatusUnauthorized, "AUTH_FAILED", "Authentication failed")
		return
	}

	user, err := h.store.UpsertGoogleUser(r.Context(), claims.Sub, claims.Email, claims.Name, claims.Picture)
	if err != nil {
		h.logger.Error("user upsert failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		MaxAge:   int(auth.TokenTTL / time.Second),
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

// GetMe handles GET /api/auth/me.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}
