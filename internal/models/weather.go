package models

import "time"

// Coord is a geographic coordinate pair.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Condition is a single weather condition entry from the upstream provider.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
}

// Main holds the primary measurements of a weather report.
type Main struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min,omitempty"`
	TempMax   float64 `json:"temp_max,omitempty"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

// Wind holds wind measurements.
type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg,omitempty"`
}

// CurrentWeather mirrors the upstream current-weather payload. FetchedAt is
// stamped by the gateway when the response is constructed, not by upstream.
type CurrentWeather struct {
	Name      string      `json:"name"`
	Coord     Coord       `json:"coord"`
	Main      Main        `json:"main"`
	Weather   []Condition `json:"weather"`
	Wind      Wind        `json:"wind"`
	Dt        int64       `json:"dt"`
	FetchedAt time.Time   `json:"fetchedAt,omitempty"`
}

// ForecastEntry is one periodic sample of the upstream forecast list.
type ForecastEntry struct {
	Dt      int64       `json:"dt"`
	Main    Main        `json:"main"`
	Weather []Condition `json:"weather"`
	DtTxt   string      `json:"dt_txt,omitempty"`
}

// ForecastCity identifies the city a forecast belongs to.
type ForecastCity struct {
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Coord   Coord  `json:"coord"`
}

// Forecast mirrors the upstream periodic forecast payload.
type Forecast struct {
	City      ForecastCity    `json:"city"`
	List      []ForecastEntry `json:"list"`
	FetchedAt time.Time       `json:"fetchedAt,omitempty"`
}

// GeoCity is a geocoding search result.
type GeoCity struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// CityRef identifies a city in a batch request, either by name or by coordinates.
type CityRef struct {
	Name string   `json:"name,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// HasCoords reports whether the reference carries both coordinates.
func (c CityRef) HasCoords() bool {
	return c.Lat != nil && c.Lon != nil
}

// BatchError tags a failed batch lookup with the input that caused it.
type BatchError struct {
	City  CityRef `json:"city"`
	Error string  `json:"error"`
}

// BatchResult partitions a batch lookup into successes and tagged failures.
// A partial failure never fails the whole batch.
type BatchResult struct {
	Results   []CurrentWeather `json:"results"`
	Errors    []BatchError     `json:"errors"`
	FetchedAt time.Time        `json:"fetchedAt"`
}
