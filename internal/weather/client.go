// Package weather is a stateless adapter over the upstream weather provider:
// current conditions, periodic forecast, geocoding search, and a concurrent
// batch lookup.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/r1cksync/skycast/internal/models"
	"github.com/r1cksync/skycast/internal/observability"
)

// DefaultUnits is applied when a request does not name a unit system.
const DefaultUnits = "metric"

// Gateway is the slice of the weather client consumed by handlers and the
// chat orchestrator. Satisfied by *Client and by test stubs.
type Gateway interface {
	CurrentByCity(ctx context.Context, city, units string) (models.CurrentWeather, error)
	CurrentByCoords(ctx context.Context, lat, lon float64, units string) (models.CurrentWeather, error)
	ForecastByCity(ctx context.Context, city, units string) (models.Forecast, error)
	ForecastByCoords(ctx context.Context, lat, lon float64, units string) (models.Forecast, error)
	SearchCities(ctx context.Context, query string, limit int) ([]models.GeoCity, error)
	Batch(ctx context.Context, cities []models.CityRef, units string) (models.BatchResult, error)
}

var ErrMissingAPIKey = errors.New("weather API key is required")

// UpstreamError carries the upstream provider's HTTP status so handlers can
// propagate it. Status falls back to 500 when the upstream never answered.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream weather API: %d %s", e.Status, e.Message)
}

// Client talks to an OpenWeatherMap-compatible API. Stateless; safe for
// concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	geoURL  string
	client  *http.Client
}

// New creates a Client. baseURL serves /weather and /forecast, geoURL serves
// /direct (geocoding). timeout bounds each upstream call.
func New(apiKey, baseURL, geoURL string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		geoURL:  geoURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// CurrentByCity fetches current conditions for a named city.
func (c *Client) CurrentByCity(ctx context.Context, city, units string) (models.CurrentWeather, error) {
	params := url.Values{}
	params.Set("q", city)
	var out models.CurrentWeather
	if err := c.getJSON(ctx, c.baseURL+"/weather", params, units, "current", &out); err != nil {
		return models.CurrentWeather{}, err
	}
	out.FetchedAt = time.Now().UTC()
	return out, nil
}

// CurrentByCoords fetches current conditions for a coordinate pair.
func (c *Client) CurrentByCoords(ctx context.Context, lat, lon float64, units string) (models.CurrentWeather, error) {
	params := coordParams(lat, lon)
	var out models.CurrentWeather
	if err := c.getJSON(ctx, c.baseURL+"/weather", params, units, "current", &out); err != nil {
		return models.CurrentWeather{}, err
	}
	out.FetchedAt = time.Now().UTC()
	return out, nil
}

// ForecastByCity fetches the periodic forecast for a named city.
func (c *Client) ForecastByCity(ctx context.Context, city, units string) (models.Forecast, error) {
	params := url.Values{}
	params.Set("q", city)
	var out models.Forecast
	if err := c.getJSON(ctx, c.baseURL+"/forecast", params, units, "forecast", &out); err != nil {
		return models.Forecast{}, err
	}
	out.FetchedAt = time.Now().UTC()
	return out, nil
}

// ForecastByCoords fetches the periodic forecast for a coordinate pair.
func (c *Client) ForecastByCoords(ctx context.Context, lat, lon float64, units string) (models.Forecast, error) {
	params := coordParams(lat, lon)
	var out models.Forecast
	if err := c.getJSON(ctx, c.baseURL+"/forecast", params, units, "forecast", &out); err != nil {
		return models.Forecast{}, err
	}
	out.FetchedAt = time.Now().UTC()
	return out, nil
}

// SearchCities resolves a free-text query to candidate cities via the
// geocoding endpoint. limit defaults to 5.
func (c *Client) SearchCities(ctx context.Context, query string, limit int) ([]models.GeoCity, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	var out []models.GeoCity
	if err := c.getJSON(ctx, c.geoURL+"/direct", params, "", "geocode", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.GeoCity{}
	}
	return out, nil
}

// Batch fans out one current-weather lookup per city concurrently, joins all,
// and partitions the outcomes. A failing city lands in Errors tagged with the
// offending input; it never fails the whole batch.
func (c *Client) Batch(ctx context.Context, cities []models.CityRef, units string) (models.BatchResult, error) {
	type outcome struct {
		data models.CurrentWeather
		err  error
	}
	outcomes := make([]outcome, len(cities))

	var wg sync.WaitGroup
	for i, ref := range cities {
		wg.Add(1)
		go func(i int, ref models.CityRef) {
			defer wg.Done()
			if ref.HasCoords() {
				outcomes[i].data, outcomes[i].err = c.CurrentByCoords(ctx, *ref.Lat, *ref.Lon, units)
			} else {
				outcomes[i].data, outcomes[i].err = c.CurrentByCity(ctx, ref.Name, units)
			}
		}(i, ref)
	}
	wg.Wait()

	res := models.BatchResult{
		Results:   []models.CurrentWeather{},
		Errors:    []models.BatchError{},
		FetchedAt: time.Now().UTC(),
	}
	for i, o := range outcomes {
		if o.err != nil {
			res.Errors = append(res.Errors, models.BatchError{City: cities[i], Error: o.err.Error()})
			continue
		}
		res.Results = append(res.Results, o.data)
	}
	return res, nil
}

func coordParams(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return params
}

// getJSON issues one upstream GET and decodes the JSON response into out.
// units is appended when non-empty ("" for the geocoding endpoint, which
// takes none). endpoint labels metrics.
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, units, endpoint string, out any) error {
	start := time.Now()

	u, err := url.Parse(rawURL)
	if err != nil {
		return &UpstreamError{Status: http.StatusInternalServerError, Message: "invalid API URL"}
	}
	params.Set("appid", c.apiKey)
	if units != "" {
		params.Set("units", units)
	} else if endpoint != "geocode" {
		params.Set("units", DefaultUnits)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &UpstreamError{Status: http.StatusInternalServerError, Message: "create request"}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.WeatherAPIDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return &UpstreamError{Status: http.StatusInternalServerError, Message: "failed to reach weather provider"}
	}
	defer resp.Body.Close()

	status := observability.StatusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(endpoint, status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Status: http.StatusInternalServerError, Message: "read response body"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{Status: resp.StatusCode, Message: upstreamMessage(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &UpstreamError{Status: http.StatusInternalServerError, Message: "parse response"}
	}
	return nil
}

// upstreamMessage pulls the provider's error message out of its body on a
// best-effort basis.
func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return "failed to fetch weather data"
}
