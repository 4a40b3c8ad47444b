// Package geocode resolves US ZIP codes to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/jacobhausler/weather-app-sub000/internal/cache"
	"github.com/jacobhausler/weather-app-sub000/internal/upstream"
)

// DefaultBaseURL is the Zippopotam API root.
const DefaultBaseURL = "https://api.zippopotam.us"

// Location is a resolved ZIP code.
type Location struct {
	ZIP       string  `json:"zip"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Resolver maps a ZIP code to a Location.
type Resolver interface {
	Resolve(ctx context.Context, zip string) (Location, error)
}

// ClientConfig configures the geocoding client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Executor  *upstream.Executor
	Cache     *cache.Cache[Location]
	Logger    zerolog.Logger
}

// Client resolves ZIP codes against a Zippopotam-style upstream.
// ZIP-to-coordinate mappings are effectively static, so resolved
// locations are cached for a long TTL.
type Client struct {
	baseURL   string
	userAgent string
	executor  *upstream.Executor
	cache     *cache.Cache[Location]
	logger    zerolog.Logger
}

const locationTTL = 24 * time.Hour

// NewClient creates a geocoding client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Executor == nil {
		cfg.Executor = upstream.NewExecutor(upstream.ExecutorConfig{
			Policy: upstream.GeocodePolicy(),
			Logger: cfg.Logger,
		})
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.New[Location](locationTTL)
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		executor:  cfg.Executor,
		cache:     cfg.Cache,
		logger:    cfg.Logger.With().Str("component", "geocode").Logger(),
	}
}

// Resolve looks up the coordinates for a five-digit US ZIP code. Unknown
// ZIP codes surface as an upstream.NotFoundError.
func (c *Client) Resolve(ctx context.Context, zip string) (Location, error) {
	key := "zip:" + zip
	if loc, ok := c.cache.Get(key); ok {
		return loc, nil
	}

	url := fmt.Sprintf("%s/us/%s", c.baseURL, zip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Location{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.executor.Do(req)
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()

	var zr zipResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&zr); err != nil {
		return Location{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(zr.Places) == 0 {
		return Location{}, &upstream.NotFoundError{Endpoint: url}
	}

	place := zr.Places[0]
	lat, err := strconv.ParseFloat(place.Latitude, 64)
	if err != nil {
		return Location{}, fmt.Errorf("parse latitude %q: %w", place.Latitude, err)
	}
	lon, err := strconv.ParseFloat(place.Longitude, 64)
	if err != nil {
		return Location{}, fmt.Errorf("parse longitude %q: %w", place.Longitude, err)
	}

	loc := Location{
		ZIP:       zr.PostCode,
		City:      place.PlaceName,
		State:     place.StateAbbr,
		Latitude:  lat,
		Longitude: lon,
	}
	c.cache.Set(key, loc)
	return loc, nil
}

// Zippopotam response shape. Coordinates come back as strings.
type zipResponse struct {
	PostCode string `json:"post code"`
	Places   []struct {
		PlaceName string `json:"place name"`
		StateAbbr string `json:"state abbreviation"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"places"`
}
