// Package uvindex is a best-effort client for a UV index API. UV data is an
// optional enrichment: every failure path degrades to an absent reading
// instead of an error, and readings are cached for an hour because UV
// changes slowly.
package uvindex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jacobhausler/weather-app-sub000/internal/cache"
	"github.com/jacobhausler/weather-app-sub000/internal/upstream"
)

// DefaultBaseURL is the UV index API base URL.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/uvi"

// DefaultTTL is how long UV readings stay cached.
const DefaultTTL = 1 * time.Hour

// Reading is one UV index observation for a location.
type Reading struct {
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"` // RFC 3339
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ClientConfig holds configuration for the UV index client.
type ClientConfig struct {
	// APIKey enables the client. Empty means the client is disabled and
	// every fetch returns absent without network I/O.
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// Executor is the retry executor to use (optional).
	// If nil, one is built with UVPolicy.
	Executor *upstream.Executor

	// Cache holds readings per rounded coordinate pair (optional; one with
	// DefaultTTL is created if nil).
	Cache *cache.Cache[Reading]

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a UV index API client.
type Client struct {
	apiKey  string
	baseURL string
	exec    *upstream.Executor
	cache   *cache.Cache[Reading]
	logger  zerolog.Logger
}

// NewClient creates a new UV index client. Construction without an API key
// is valid; the client just stays disabled and says so once.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	exec := cfg.Executor
	if exec == nil {
		exec = upstream.NewExecutor(upstream.ExecutorConfig{
			Policy: upstream.UVPolicy(),
			Logger: cfg.Logger,
		})
	}

	uvCache := cfg.Cache
	if uvCache == nil {
		uvCache = cache.New[Reading](DefaultTTL)
	}

	if cfg.APIKey == "" {
		cfg.Logger.Warn().Msg("no UV index API key configured, UV data will be unavailable")
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		exec:    exec,
		cache:   uvCache,
		logger:  cfg.Logger,
	}
}

// Enabled reports whether an API key was configured at construction.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// GetUVIndex returns the UV reading for a location, or absent. Absent covers
// a disabled client, auth/rate-limit rejections and exhausted retries; this
// method never returns an error because UV data is not required for a
// usable dashboard.
func (c *Client) GetUVIndex(ctx context.Context, lat, lon float64) (Reading, bool) {
	if !c.Enabled() {
		return Reading{}, false
	}

	lat, lon = cache.Round4(lat), cache.Round4(lon)
	key := cache.CoordKey("uv:", lat, lon)

	if reading, ok := c.cache.Get(key); ok {
		return reading, true
	}

	url := fmt.Sprintf("%s?lat=%.4f&lon=%.4f&appid=%s", c.baseURL, lat, lon, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		c.logger.Warn().Err(err).Msg("creating UV index request")
		return Reading{}, false
	}

	resp, err := c.exec.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("UV index unavailable")
		return Reading{}, false
	}
	defer resp.Body.Close()

	var uvResp uvResponse
	if err := json.NewDecoder(resp.Body).Decode(&uvResp); err != nil {
		c.logger.Warn().Err(err).Msg("decoding UV index response")
		return Reading{}, false
	}

	reading := Reading{
		Value:     uvResp.Value,
		Timestamp: time.Unix(uvResp.Date, 0).UTC().Format(time.RFC3339),
		Latitude:  lat,
		Longitude: lon,
	}
	c.cache.Set(key, reading)
	return reading, true
}

// ClearLocationCache drops the cached reading for one location.
func (c *Client) ClearLocationCache(lat, lon float64) {
	c.cache.Delete(cache.CoordKey("uv:", cache.Round4(lat), cache.Round4(lon)))
}

// ClearCache drops all cached readings.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

// CacheStats returns the underlying cache counters.
func (c *Client) CacheStats() cache.Stats {
	return c.cache.Stats()
}

// UV index API response structure. The date is epoch seconds and gets
// converted to RFC 3339 before leaving this package.
type uvResponse struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	DateISO string  `json:"date_iso"`
	Date    int64   `json:"date"`
	Value   float64 `json:"value"`
}
