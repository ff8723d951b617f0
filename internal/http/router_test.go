package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/r1cksync/skycast/internal/auth"
	"github.com/r1cksync/skycast/internal/cache"
	"github.com/r1cksync/skycast/internal/chatbot"
	"github.com/r1cksync/skycast/internal/llm"
	"github.com/r1cksync/skycast/internal/models"
	"github.com/r1cksync/skycast/internal/store"
	"github.com/r1cksync/skycast/internal/weather"
)

// stubGateway serves canned payloads and counts upstream calls. Cities listed
// in fail return that error instead.
type stubGateway struct {
	currentCalls  int
	forecastCalls int
	searchCalls   int
	batchCalls    int
	fail          map[string]error
}

func (g *stubGateway) CurrentByCity(_ context.Context, city, _ string) (models.CurrentWeather, error) {
	g.currentCalls++
	if err := g.fail[city]; err != nil {
		return models.CurrentWeather{}, err
	}
	return models.CurrentWeather{
		Name:      city,
		Main:      models.Main{Temp: 18.5, Humidity: 60},
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (g *stubGateway) CurrentByCoords(ctx context.Context, _, _ float64, units string) (models.CurrentWeather, error) {
	return g.CurrentByCity(ctx, "Coordsville", units)
}

func (g *stubGateway) ForecastByCity(_ context.Context, city, _ string) (models.Forecast, error) {
	g.forecastCalls++
	if err := g.fail[city]; err != nil {
		return models.Forecast{}, err
	}
	return models.Forecast{
		City:      models.ForecastCity{Name: city},
		List:      []models.ForecastEntry{{Dt: 1700000000, Main: models.Main{Temp: 16}}},
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (g *stubGateway) ForecastByCoords(ctx context.Context, _, _ float64, units string) (models.Forecast, error) {
	return g.ForecastByCity(ctx, "Coordsville", units)
}

func (g *stubGateway) SearchCities(_ context.Context, query string, _ int) ([]models.GeoCity, error) {
	g.searchCalls++
	return []models.GeoCity{{Name: query, Country: "GB", Lat: 51.5, Lon: -0.12}}, nil
}

func (g *stubGateway) Batch(ctx context.Context, cities []models.CityRef, units string) (models.BatchResult, error) {
	g.batchCalls++
	result := models.BatchResult{
		Results:   []models.CurrentWeather{},
		Errors:    []models.BatchError{},
		FetchedAt: time.Now().UTC(),
	}
	for _, city := range cities {
		data, err := g.CurrentByCity(ctx, city.Name, units)
		if err != nil {
			result.Errors = append(result.Errors, models.BatchError{City: city, Error: err.Error()})
			continue
		}
		result.Results = append(result.Results, data)
	}
	return result, nil
}

type stubCompleter struct {
	replies []string
	calls   int
}

func (c *stubCompleter) Complete(_ context.Context, _ llm.CompletionRequest) (string, error) {
	i := c.calls
	c.calls++
	if i < len(c.replies) {
		return c.replies[i], nil
	}
	return "", fmt.Errorf("unscripted call %d", i)
}

type testServer struct {
	router    http.Handler
	gateway   *stubGateway
	completer *stubCompleter
	store     *store.Store
	tokens    *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gateway := &stubGateway{fail: map[string]error{}}
	completer := &stubCompleter{}
	logger := zap.NewNop()

	userStore, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { userStore.Close() })

	// Stubbed Google tokeninfo: any token asserts the same identity.
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"aud":"client-id-123","sub":"g-42","email":"alice@example.com","name":"Alice","picture":""}`))
	}))
	t.Cleanup(google.Close)
	verifier := auth.NewGoogleVerifier("client-id-123")
	verifier.Endpoint = google.URL

	memory := cache.NewMemory(time.Hour)
	t.Cleanup(memory.Stop)
	cacher := cache.NewCacher(memory, time.Minute, "in_memory", logger)

	tokens := auth.NewTokenManager("test-secret-at-least-16")
	orchestrator := chatbot.New(completer, gateway, logger)
	h := NewHandler(gateway, orchestrator, userStore, verifier, tokens, logger)

	return &testServer{
		router:    NewRouter(h, cacher, nil, logger),
		gateway:   gateway,
		completer: completer,
		store:     userStore,
		tokens:    tokens,
	}
}

func (ts *testServer) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// signIn runs the Google sign-in flow against the stubbed verifier and
// returns the issued session token.
func (ts *testServer) signIn(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/google", "", map[string]string{"credential": "stub-id-token"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload struct {
		Success bool        `json:"success"`
		User    models.User `json:"user"`
		Token   string      `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.True(t, payload.Success)
	require.NotEmpty(t, payload.Token)
	return payload.Token
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code, payload.Error.Message
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Server is running")
}

// TestCurrentByCity_SecondRequestServedFromCache is the end-to-end cache
// path: the second identical request must not reach the gateway and must
// return byte-identical data, fetchedAt included.
func TestCurrentByCity_SecondRequestServedFromCache(t *testing.T) {
	ts := newTestServer(t)

	first := ts.do(t, http.MethodGet, "/api/weather/current/London", "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get("X-Cache"))

	second := ts.do(t, http.MethodGet, "/api/weather/current/London", "", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	assert.Equal(t, 1, ts.gateway.currentCalls)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestCurrentByCity_DistinctCitiesCachedSeparately(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/api/weather/current/London", "", nil)
	ts.do(t, http.MethodGet, "/api/weather/current/Paris", "", nil)
	assert.Equal(t, 2, ts.gateway.currentCalls)
}

func TestCurrentByCity_InvalidName(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/weather/current/%3Cscript%3E", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	code, _ := errorCode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", code)
	assert.Equal(t, 0, ts.gateway.currentCalls)
}

// TestUpstreamErrorNotCached verifies failures propagate the upstream status
// and are recomputed on every request.
func TestUpstreamErrorNotCached(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.fail["Nowhere"] = &weather.UpstreamError{Status: http.StatusNotFound, Message: "city not found"}

	first := ts.do(t, http.MethodGet, "/api/weather/current/Nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, first.Code)
	code, message := errorCode(t, first)
	assert.Equal(t, "UPSTREAM_ERROR", code)
	assert.Equal(t, "city not found", message)

	second := ts.do(t, http.MethodGet, "/api/weather/current/Nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, second.Code)
	assert.Equal(t, 2, ts.gateway.currentCalls)
}

func TestCurrentByCoords_MissingParams(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/weather/current", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, message := errorCode(t, rec)
	assert.Equal(t, "Latitude and longitude are required", message)

	rec = ts.do(t, http.MethodGet, "/api/weather/current?lat=abc&lon=2.3", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, message = errorCode(t, rec)
	assert.Equal(t, "Latitude and longitude must be numbers", message)
}

func TestSearch_ShortQuery(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/weather/search?q=L", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, message := errorCode(t, rec)
	assert.Equal(t, "Query must be at least 2 characters", message)
	assert.Equal(t, 0, ts.gateway.searchCalls)
}

// TestSearch_NotCached pins search as an uncached route.
func TestSearch_NotCached(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/api/weather/search?q=Lon", "", nil)
	ts.do(t, http.MethodGet, "/api/weather/search?q=Lon", "", nil)
	assert.Equal(t, 2, ts.gateway.searchCalls)
}

func TestBatch_RequiresCities(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/weather/batch", "", map[string]any{"cities": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, message := errorCode(t, rec)
	assert.Equal(t, "Cities array is required", message)
}

// TestBatch_POSTCached is the documented POST caching exception: repeat batch
// requests to the same path are served from cache.
func TestBatch_POSTCached(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{"cities": []map[string]any{{"name": "London"}, {"name": "Paris"}}}

	first := ts.do(t, http.MethodPost, "/api/weather/batch", "", body)
	require.Equal(t, http.StatusOK, first.Code)

	second := ts.do(t, http.MethodPost, "/api/weather/batch", "", body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, ts.gateway.batchCalls)
}

func TestChat(t *testing.T) {
	ts := newTestServer(t)
	ts.completer.replies = []string{"London", "Mild and cloudy in London today."}

	rec := ts.do(t, http.MethodPost, "/api/chatbot/chat", "", map[string]any{"message": "weather in London?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reply struct {
		Response string  `json:"response"`
		City     *string `json:"city"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "Mild and cloudy in London today.", reply.Response)
	require.NotNil(t, reply.City)
	assert.Equal(t, "London", *reply.City)
}

func TestChat_EmptyMessage(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/chatbot/chat", "", map[string]any{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, message := errorCode(t, rec)
	assert.Equal(t, "Message is required", message)
}

func TestChat_CompletionFailure(t *testing.T) {
	ts := newTestServer(t)
	// extraction succeeds, final completion unscripted and fails
	ts.completer.replies = []string{"unknown"}

	rec := ts.do(t, http.MethodPost, "/api/chatbot/chat", "", map[string]any{"message": "hello"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	code, message := errorCode(t, rec)
	assert.Equal(t, "CHAT_FAILED", code)
	assert.Equal(t, "Failed to process your request", message)
}

func TestGoogleSignIn_SetsSessionCookie(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/google", "", map[string]string{"credential": "stub-id-token"})
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestGoogleSignIn_MissingToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/google", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, message := errorCode(t, rec)
	assert.Equal(t, "Token is required", message)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	rec := ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")
}

func TestProtectedRoutes_RequireAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, target := range []string{"/api/favorites", "/api/history", "/api/preferences", "/api/auth/me"} {
		rec := ts.do(t, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	rec := ts.do(t, http.MethodGet, "/api/favorites", "not-a-valid-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionCookieAuthenticates(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	req := httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFavorites_Flow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	add := map[string]any{"city": "London", "country": "GB", "lat": 51.5, "lon": -0.12}
	rec := ts.do(t, http.MethodPost, "/api/favorites", token, add)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/favorites", token, add)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, message := errorCode(t, rec)
	assert.Equal(t, "City already in favorites", message)

	rec = ts.do(t, http.MethodGet, "/api/favorites", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Favorites []models.Favorite `json:"favorites"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Favorites, 1)

	rec = ts.do(t, http.MethodDelete, "/api/favorites/"+listed.Favorites[0].ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Empty(t, listed.Favorites)
}

func TestAddFavorite_MissingFields(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	rec := ts.do(t, http.MethodPost, "/api/favorites", token, map[string]any{"city": "London"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, message := errorCode(t, rec)
	assert.Equal(t, "City, latitude, and longitude are required", message)
}

func TestHistory_Flow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	for _, city := range []string{"London", "Paris"} {
		rec := ts.do(t, http.MethodPost, "/api/history", token,
			map[string]any{"city": city, "lat": 0.0, "lon": 0.0})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := ts.do(t, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		History []models.HistoryEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.History, 2)
	assert.Equal(t, "Paris", listed.History[0].City)

	rec = ts.do(t, http.MethodDelete, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/history", token, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Empty(t, listed.History)
}

func TestPreferences_Flow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	rec := ts.do(t, http.MethodGet, "/api/preferences", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), models.UnitCelsius)

	rec = ts.do(t, http.MethodPut, "/api/preferences", token,
		map[string]any{"temperatureUnit": models.UnitFahrenheit})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), models.UnitFahrenheit)

	rec = ts.do(t, http.MethodPut, "/api/preferences", token, map[string]any{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, message := errorCode(t, rec)
	assert.Equal(t, "Invalid theme", message)
}

func TestLogout_ClearsCookie(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

// TestRateLimit exercises the API-wide limiter with a budget of one.
func TestRateLimit(t *testing.T) {
	ts := newTestServer(t)
	gateway := ts.gateway

	h := NewHandler(gateway, chatbot.New(ts.completer, gateway, zap.NewNop()), ts.store,
		auth.NewGoogleVerifier("client-id-123"), ts.tokens, zap.NewNop())
	memory := cache.NewMemory(time.Hour)
	t.Cleanup(memory.Stop)
	cacher := cache.NewCacher(memory, time.Minute, "in_memory", zap.NewNop())
	router := NewRouter(h, cacher, rate.NewLimiter(rate.Limit(0.001), 1), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/weather/search?q=Lon", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	code, _ := errorCode(t, rec)
	assert.Equal(t, "RATE_LIMITED", code)

	// /health sits outside the limited subtree
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
