package models

import "time"

// Temperature unit and theme preference values accepted by the API.
const (
	UnitCelsius    = "celsius"
	UnitFahrenheit = "fahrenheit"
	ThemeLight     = "light"
	ThemeDark      = "dark"
)

// Preferences holds per-user display settings.
type Preferences struct {
	TemperatureUnit string `json:"temperatureUnit"`
	Theme           string `json:"theme"`
}

// DefaultPreferences returns the preferences applied to new accounts.
func DefaultPreferences() Preferences {
	return Preferences{TemperatureUnit: UnitCelsius, Theme: ThemeLight}
}

// User is an account record backed by the user store.
type User struct {
	ID          string      `json:"id"`
	GoogleID    string      `json:"-"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Picture     string      `json:"picture,omitempty"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"-"`
	LastLogin   time.Time   `json:"-"`
}

// Favorite is a saved city on a user's dashboard.
type Favorite struct {
	ID      string    `json:"id"`
	City    string    `json:"city"`
	Country string    `json:"country,omitempty"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	AddedAt time.Time `json:"addedAt"`
}

// HistoryEntry records a city view. Consecutive views of the same city
// refresh ViewedAt instead of appending a new entry.
type HistoryEntry struct {
	ID       string    `json:"id"`
	City     string    `json:"city"`
	Country  string    `json:"country,omitempty"`
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	ViewedAt time.Time `json:"viewedAt"`
}
