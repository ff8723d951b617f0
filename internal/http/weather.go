package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/r1cksync/skycast/internal/models"
	"github.com/r1cksync/skycast/internal/validation"
	"github.com/r1cksync/skycast/internal/weather"
)

func unitsParam(r *http.Request) string {
	units := r.URL.Query().Get("units")
	if units == "" {
		return weather.DefaultUnits
	}
	return units
}

// GetCurrentByCity handles GET /api/weather/current/{city}.
func (h *Handler) GetCurrentByCity(w http.ResponseWriter, r *http.Request) {
	city, err := validation.ValidateCity(mux.Vars(r)["city"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	data, err := h.weather.CurrentByCity(r.Context(), city, unitsParam(r))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// GetCurrentByCoords handles GET /api/weather/current?lat&lon.
func (h *Handler) GetCurrentByCoords(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := coordsParam(w, r)
	if !ok {
		return
	}

	data, err := h.weather.CurrentByCoords(r.Context(), lat, lon, unitsParam(r))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// GetForecastByCity handles GET /api/weather/forecast/{city}.
func (h *Handler) GetForecastByCity(w http.ResponseWriter, r *http.Request) {
	city, err := validation.ValidateCity(mux.Vars(r)["city"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	data, err := h.weather.ForecastByCity(r.Context(), city, unitsParam(r))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// GetForecastByCoords handles GET /api/weather/forecast?lat&lon.
func (h *Handler) GetForecastByCoords(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := coordsParam(w, r)
	if !ok {
		return
	}

	data, err := h.weather.ForecastByCoords(r.Context(), lat, lon, unitsParam(r))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// SearchCities handles GET /api/weather/search?q. Not cached.
func (h *Handler) SearchCities(w http.ResponseWriter, r *http.Request) {
	q, err := validation.ValidateSearchQuery(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Query must be at least 2 characters")
		return
	}

	cities, err := h.weather.SearchCities(r.Context(), q, 5)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cities)
}

// BatchWeather handles POST /api/weather/batch. Cached despite being POST,
// keyed on path+query only; see the cache middleware wiring.
func (h *Handler) BatchWeather(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Cities []models.CityRef `json:"cities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Cities) == 0 {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Cities array is required")
		return
	}

	result, err := h.weather.Batch(r.Context(), body.Cities, unitsParam(r))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch batch weather data")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// coordsParam parses the lat/lon query parameters, writing a 400 naming the
// missing fields when absent or malformed.
func coordsParam(w http.ResponseWriter, r *http.Request) (lat, lon float64, ok bool) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Latitude and longitude are required")
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(latStr, 64)
	lon, errLon := strconv.ParseFloat(lonStr, 64)
	if errLat != nil || errLon != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Latitude and longitude must be numbers")
		return 0, 0, false
	}
	return lat, lon, true
}
