// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all service configuration. Every field is environment-sourced;
// secrets (API keys, JWT secret) have no defaults and must be set.
type Config struct {
	Port string `env:"PORT" envDefault:"5000"`

	WeatherAPIKey     string        `env:"WEATHER_API_KEY,required"`
	WeatherAPIBaseURL string        `env:"WEATHER_API_BASE_URL" envDefault:"https://api.openweathermap.org/data/2.5"`
	GeocodingAPIURL   string        `env:"GEOCODING_API_URL" envDefault:"http://api.openweathermap.org/geo/1.0"`
	WeatherTimeout    time.Duration `env:"WEATHER_API_TIMEOUT" envDefault:"5s"`

	GroqAPIKey  string        `env:"GROQ_API_KEY,required"`
	GroqBaseURL string        `env:"GROQ_API_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel   string        `env:"GROQ_MODEL" envDefault:"llama-3.1-8b-instant"`
	GroqTimeout time.Duration `env:"GROQ_TIMEOUT" envDefault:"30s"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID,required"`
	JWTSecret      string `env:"JWT_SECRET,required"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"skycast.db"`

	CacheTTLSeconds    int           `env:"CACHE_TTL" envDefault:"60"`
	CacheSweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"120s"`
	CacheBackend       string        `env:"CACHE_BACKEND" envDefault:"in_memory"`
	MemcachedAddrs     string        `env:"MEMCACHED_ADDRS" envDefault:"localhost:11211"`
	MemcachedTimeout   time.Duration `env:"MEMCACHED_TIMEOUT" envDefault:"500ms"`

	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"100"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"100"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// CacheTTL returns the default response-cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load parses configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.CacheTTLSeconds <= 0 {
		cfg.CacheTTLSeconds = 60
	}
	if cfg.CacheSweepInterval <= 0 {
		cfg.CacheSweepInterval = 120 * time.Second
	}
	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(cfg.CacheBackend))
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
	default:
		return fmt.Errorf("CACHE_BACKEND must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	if cfg.WeatherTimeout <= 0 {
		return fmt.Errorf("WEATHER_API_TIMEOUT must be positive")
	}
	if len(cfg.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	return nil
}
