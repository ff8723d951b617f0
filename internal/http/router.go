package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/r1cksync/skycast/internal/cache"
	"github.com/r1cksync/skycast/internal/observability"
)

// weatherCacheTTL is the per-route TTL for the cached weather reads.
const weatherCacheTTL = 60 * time.Second

// NewRouter wires the full HTTP surface. The Cacher wraps the cacheable
// weather reads; /batch is the documented POST exception. Search and chat are
// never cached.
func NewRouter(h *Handler, cacher *cache.Cacher, limiter *rate.Limiter, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(CorrelationIDMiddleware(logger))
	r.Use(MetricsMiddleware)

	r.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	r.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(RateLimitMiddleware(limiter))

	authRouter := api.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/google", h.GoogleSignIn).Methods(http.MethodPost)
	authRouter.Handle("/me", h.RequireAuth(http.HandlerFunc(h.GetMe))).Methods(http.MethodGet)
	authRouter.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)

	cached := cacher.Middleware(weatherCacheTTL)
	batchCached := cacher.Middleware(weatherCacheTTL, http.MethodPost)

	weatherRouter := api.PathPrefix("/weather").Subrouter()
	weatherRouter.Handle("/current/{city}", cached(http.HandlerFunc(h.GetCurrentByCity))).Methods(http.MethodGet)
	weatherRouter.Handle("/current", cached(http.HandlerFunc(h.GetCurrentByCoords))).Methods(http.MethodGet)
	weatherRouter.Handle("/forecast/{city}", cached(http.HandlerFunc(h.GetForecastByCity))).Methods(http.MethodGet)
	weatherRouter.Handle("/forecast", cached(http.HandlerFunc(h.GetForecastByCoords))).Methods(http.MethodGet)
	weatherRouter.HandleFunc("/search", h.SearchCities).Methods(http.MethodGet)
	weatherRouter.Handle("/batch", batchCached(http.HandlerFunc(h.BatchWeather))).Methods(http.MethodPost)

	favorites := api.PathPrefix("/favorites").Subrouter()
	favorites.Use(h.RequireAuth)
	favorites.HandleFunc("", h.ListFavorites).Methods(http.MethodGet)
	favorites.HandleFunc("", h.AddFavorite).Methods(http.MethodPost)
	favorites.HandleFunc("/{id}", h.RemoveFavorite).Methods(http.MethodDelete)

	history := api.PathPrefix("/history").Subrouter()
	history.Use(h.RequireAuth)
	history.HandleFunc("", h.GetHistory).Methods(http.MethodGet)
	history.HandleFunc("", h.AddHistory).Methods(http.MethodPost)
	history.HandleFunc("", h.ClearHistory).Methods(http.MethodDelete)

	preferences := api.PathPrefix("/preferences").Subrouter()
	preferences.Use(h.RequireAuth)
	preferences.HandleFunc("", h.GetPreferences).Methods(http.MethodGet)
	preferences.HandleFunc("", h.UpdatePreferences).Methods(http.MethodPut)

	api.HandleFunc("/chatbot/chat", h.Chat).Methods(http.MethodPost)

	return r
}
