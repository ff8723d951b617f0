package chatbot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/r1cksync/skycast/internal/weather"
)

// forecastSamples is how many periodic forecast entries are rendered into the
// grounding context.
const forecastSamples = 3

// Snapshot is the ephemeral weather state assembled for one chat turn. It is
// built fresh per request and never cached here; the route-level response
// cache is a separate concern.
type Snapshot struct {
	CityName   string
	Temp       float64
	FeelsLike  float64
	Conditions string
	Humidity   int
	WindSpeed  float64
	Pressure   int
	Samples    []Sample
}

// Sample is one forecast period within a Snapshot.
type Sample struct {
	At         time.Time
	Temp       float64
	Conditions string
}

// buildSnapshot chains the two upstream fetches (current, then forecast) and
// folds them into a Snapshot.
func (o *Orchestrator) buildSnapshot(ctx context.Context, city string) (Snapshot, error) {
	current, err := o.weather.CurrentByCity(ctx, city, weather.DefaultUnits)
	if err != nil {
		return Snapshot{}, fmt.Errorf("current weather for %s: %w", city, err)
	}
	forecast, err := o.weather.ForecastByCity(ctx, city, weather.DefaultUnits)
	if err != nil {
		return Snapshot{}, fmt.Errorf("forecast for %s: %w", city, err)
	}

	snap := Snapshot{
		CityName:  current.Name,
		Temp:      current.Main.Temp,
		FeelsLike: current.Main.FeelsLike,
		Humidity:  current.Main.Humidity,
		WindSpeed: current.Wind.Speed,
		Pressure:  current.Main.Pressure,
	}
	if len(current.Weather) > 0 {
		snap.Conditions = current.Weather[0].Description
	}
	for i, entry := range forecast.List {
		if i >= forecastSamples {
			break
		}
		sample := Sample{At: time.Unix(entry.Dt, 0), Temp: entry.Main.Temp}
		if len(entry.Weather) > 0 {
			sample.Conditions = entry.Weather[0].Description
		}
		snap.Samples = append(snap.Samples, sample)
	}
	return snap, nil
}

// renderSummary produces the fixed-format textual grounding injected into the
// system prompt.
func renderSummary(s Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current weather data for %s:\n", s.CityName)
	fmt.Fprintf(&b, "- Temperature: %s°C\n", formatTemp(s.Temp))
	fmt.Fprintf(&b, "- Feels like: %s°C\n", formatTemp(s.FeelsLike))
	fmt.Fprintf(&b, "- Conditions: %s\n", s.Conditions)
	fmt.Fprintf(&b, "- Humidity: %d%%\n", s.Humidity)
	fmt.Fprintf(&b, "- Wind speed: %s m/s\n", formatTemp(s.WindSpeed))
	fmt.Fprintf(&b, "- Pressure: %d hPa\n", s.Pressure)
	b.WriteString("\n5-day forecast (next 3 periods):\n")
	for _, sample := range s.Samples {
		fmt.Fprintf(&b, "- %s: %s°C, %s\n",
			sample.At.Local().Format("Jan 2, 2006 3:04 PM"),
			formatTemp(sample.Temp),
			sample.Conditions,
		)
	}
	return b.String()
}

// formatTemp renders a measurement without trailing zeros (15.5, not 15.50).
func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
