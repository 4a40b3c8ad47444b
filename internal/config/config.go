// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all tunables for the API server. Fields default to
// sensible development values; production overrides come from the
// environment.
type Config struct {
	Port        string
	Environment string

	NWSBaseURL     string
	NWSUserAgent   string
	UVBaseURL      string
	UVAPIKey       string
	GeocodeBaseURL string

	PointsCacheTTL time.Duration
	UVCacheTTL     time.Duration

	RefreshInterval    time.Duration
	RefreshBackoffBase time.Duration
	RefreshBackoffCap  time.Duration
	RefreshMaxFailures int

	RequireTLS bool

	OTELEnabled  bool
	OTLPEndpoint string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first, without overriding variables
// already set in the process environment.
func Load() Config {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	return Config{
		Port:        getEnvOrDefault("APP_PORT", "8080"),
		Environment: getEnvOrDefault("APP_ENV", "development"),

		NWSBaseURL:     getEnvOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		NWSUserAgent:   getEnvOrDefault("NWS_USER_AGENT", "weather-dashboard (ops@weatherdash.dev)"),
		UVBaseURL:      getEnvOrDefault("UV_BASE_URL", "https://api.openweathermap.org/data/2.5/uvi"),
		UVAPIKey:       os.Getenv("UV_API_KEY"),
		GeocodeBaseURL: getEnvOrDefault("GEOCODE_BASE_URL", "https://api.zippopotam.us"),

		PointsCacheTTL: getDurationOrDefault("POINTS_CACHE_TTL", 24*time.Hour),
		UVCacheTTL:     getDurationOrDefault("UV_CACHE_TTL", time.Hour),

		RefreshInterval:    getDurationOrDefault("REFRESH_INTERVAL", 60*time.Second),
		RefreshBackoffBase: getDurationOrDefault("REFRESH_BACKOFF_BASE", 2*time.Second),
		RefreshBackoffCap:  getDurationOrDefault("REFRESH_BACKOFF_CAP", 32*time.Second),
		RefreshMaxFailures: getIntOrDefault("REFRESH_MAX_FAILURES", 3),

		RequireTLS: os.Getenv("REQUIRE_TLS") == "true",

		OTELEnabled:  os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
