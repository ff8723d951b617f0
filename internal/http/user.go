package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/r1cksync/skycast/internal/models"
	"github.com/r1cksync/skycast/internal/store"
)

// historyPageSize is how many history entries list responses return.
const historyPageSize = 10

// ListFavorites handles GET /api/favorites.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	favorites, err := h.store.ListFavorites(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get favorites")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"favorites": favorites})
}

// AddFavorite handles POST /api/favorites.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var body struct {
		City    string   `json:"city"`
		Country string   `json:"country"`
		Lat     *float64 `json:"lat"`
		Lon     *float64 `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.City == "" || body.Lat == nil || body.Lon == nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "City, latitude, and longitude are required")
		return
	}

	fav := models.Favorite{City: body.City, Country: body.Country, Lat: *body.Lat, Lon: *body.Lon}
	if err := h.store.AddFavorite(r.Context(), user.ID, fav); err != nil {
		if errors.Is(err, store.ErrDuplicateFavorite) {
			writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "City already in favorites")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add favorite")
		return
	}

	favorites, err := h.store.ListFavorites(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add favorite")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "favorites": favorites})
}

// RemoveFavorite handles DELETE /api/favorites/{id}.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	if err := h.store.RemoveFavorite(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove favorite")
		return
	}
	favorites, err := h.store.ListFavorites(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove favorite")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "favorites": favorites})
}

// GetHistory handles GET /api/history.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	history, err := h.store.ListHistory(r.Context(), user.ID, historyPageSize)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

// AddHistory handles POST /api/history.
func (h *Handler) AddHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var body struct {
		City    string   `json:"city"`
		Country string   `json:"country"`
		Lat     *float64 `json:"lat"`
		Lon     *float64 `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.City == "" || body.Lat == nil || body.Lon == nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "City, latitude, and longitude are required")
		return
	}

	entry := models.HistoryEntry{City: body.City, Country: body.Country, Lat: *body.Lat, Lon: *body.Lon}
	if err := h.store.AddHistory(r.Context(), user.ID, entry); err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add to history")
		return
	}

	history, err := h.store.ListHistory(r.Context(), user.ID, historyPageSize)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add to history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "history": history})
}

// ClearHistory handles DELETE /api/history.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	if err := h.store.ClearHistory(r.Context(), user.ID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to clear history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "history": []models.HistoryEntry{}})
}

// GetPreferences handles GET /api/preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"preferences": user.Preferences})
}

// UpdatePreferences handles PUT /api/preferences.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var body struct {
		TemperatureUnit *string `json:"temperatureUnit"`
		Theme           *string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if body.TemperatureUnit != nil &&
		*body.TemperatureUnit != models.UnitCelsius && *body.TemperatureUnit != models.UnitFahrenheit {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid temperature unit")
		return
	}
	if body.Theme != nil && *body.Theme != models.ThemeLight && *body.Theme != models.ThemeDark {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid theme")
		return
	}

	prefs, err := h.store.UpdatePreferences(r.Context(), user.ID, body.TemperatureUnit, body.Theme)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update preferences")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "preferences": prefs})
}
