package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/r1cksync/skycast/internal/weather"
)

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error envelope. requestId is taken from the
// correlation ID middleware when present.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationID(r),
		},
	})
}

// writeChatError is the chat pipeline's error shape: unlike the rest of the
// API it exposes a details field.
func writeChatError(w http.ResponseWriter, r *http.Request, details string) {
	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]string{
			"code":      "CHAT_FAILED",
			"message":   "Failed to process your request",
			"details":   details,
			"requestId": correlationID(r),
		},
	})
}

// writeUpstreamError maps a weather gateway failure to a response carrying
// the upstream's status (fallback 500). An unresolvable city surfaces the
// same way, per the upstream provider's 404.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *weather.UpstreamError
	if errors.As(err, &upstream) {
		status := upstream.Status
		if status < 400 || status > 599 {
			status = http.StatusInternalServerError
		}
		writeError(w, r, status, "UPSTREAM_ERROR", upstream.Message)
		return
	}
	writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to fetch weather data")
}

func correlationID(r *http.Request) string {
	if v := r.Context().Value("correlation_id"); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
