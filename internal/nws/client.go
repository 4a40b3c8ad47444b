// Package nws is a client for the National Weather Service API. All calls
// go through the policy-driven upstream executor; the point lookup result
// is cached because the coordinate-to-grid mapping is stable.
package nws

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

const (
	// DefaultBaseURL is the NWS API base URL.
	DefaultBaseURL = "https://api.weather.gov"

	// pointsTTL is how long grid references stay cached. The mapping from
	// coordinates to grid cells changes only when NWS redraws grids.
	pointsTTL = 24 * time.Hour

	acceptGeoJSON = "application/geo+json"
)

// ClientConfig holds configuration for the NWS client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to api.weather.gov).
	BaseURL string

	// UserAgent is the contact string NWS requires in the User-Agent header
	// (required by their terms of service).
	UserAgent string

	// Executor is the retry executor to use (optional).
	// If nil, one is built with NWSPolicy.
	Executor *upstream.Executor

	// PointsCache caches grid references per rounded coordinate pair
	// (optional; one is created if nil).
	PointsCache *cache.Cache[GridReference]

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an NWS API client.
type Client struct {
	baseURL     string
	userAgent   string
	exec        *upstream.Executor
	pointsCache *cache.Cache[GridReference]
	logger      zerolog.Logger
}

// NewClient creates a new NWS client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	exec := cfg.Executor
	if exec == nil {
		exec = upstream.NewExecutor(upstream.ExecutorConfig{
			Policy: upstream.NWSPolicy(),
			Logger: cfg.Logger,
		})
	}

	pointsCache := cfg.PointsCache
	if pointsCache == nil {
		pointsCache = cache.New[GridReference](pointsTTL)
	}

	return &Client{
		baseURL:     baseURL,
		userAgent:   cfg.UserAgent,
		exec:        exec,
		pointsCache: pointsCache,
		logger:      cfg.Logger,
	}
}

// GetGridReference resolves coordinates to the grid cell NWS uses for all
// location-based endpoints. Coordinates are rounded to 4 decimals first, so
// near-duplicate inputs hit the same cache entry and the same URL.
func (c *Client) GetGridReference(ctx context.Context, lat, lon float64) (GridReference, error) {
	lat, lon = cache.Round4(lat), cache.Round4(lon)

	key := cache.CoordKey("points:", lat, lon)
	if ref, ok := c.pointsCache.Get(key); ok {
		return ref, nil
	}

	url := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, lat, lon)

	var resp pointsResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return GridReference{}, fmt.Errorf("point lookup: %w", err)
	}

	ref := GridReference{
		OfficeID: resp.Properties.GridID,
		GridX:    resp.Properties.GridX,
		GridY:    resp.Properties.GridY,
	}
	c.pointsCache.Set(key, ref, pointsTTL)
	return ref, nil
}

// GetForecast fetches the multi-day forecast for a grid cell.
func (c *Client) GetForecast(ctx context.Context, ref GridReference) ([]ForecastPeriod, error) {
	url := fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast", c.baseURL, ref.OfficeID, ref.GridX, ref.GridY)

	var resp forecastResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}

	periods := make([]ForecastPeriod, 0, len(resp.Properties.Periods))
	for _, p := range resp.Properties.Periods {
		periods = append(periods, ForecastPeriod{
			Number:                   p.Number,
			Name:                     p.Name,
			StartTime:                p.StartTime,
			EndTime:                  p.EndTime,
			IsDaytime:                p.IsDaytime,
			Temperature:              p.Temperature,
			TemperatureUnit:          p.TemperatureUnit,
			PrecipitationProbability: p.ProbabilityOfPrecipitation.Value,
			WindSpeed:                p.WindSpeed,
			WindDirection:            p.WindDirection,
			Icon:                     p.Icon,
			ShortForecast:            p.ShortForecast,
			DetailedForecast:         p.DetailedForecast,
		})
	}
	return periods, nil
}

// GetHourlyForecast fetches the hourly forecast for a grid cell.
func (c *Client) GetHourlyForecast(ctx context.Context, ref GridReference) ([]HourlyPeriod, error) {
	url := fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast/hourly", c.baseURL, ref.OfficeID, ref.GridX, ref.GridY)

	var resp forecastResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("hourly forecast: %w", err)
	}

	periods := make([]HourlyPeriod, 0, len(resp.Properties.Periods))
	for _, p := range resp.Properties.Periods {
		periods = append(periods, HourlyPeriod{
			Number:                   p.Number,
			StartTime:                p.StartTime,
			EndTime:                  p.EndTime,
			IsDaytime:                p.IsDaytime,
			Temperature:              p.Temperature,
			TemperatureUnit:          p.TemperatureUnit,
			PrecipitationProbability: p.ProbabilityOfPrecipitation.Value,
			WindSpeed:                p.WindSpeed,
			WindDirection:            p.WindDirection,
			Icon:                     p.Icon,
			ShortForecast:            p.ShortForecast,
		})
	}
	return periods, nil
}

// GetStations fetches the observation stations serving a grid cell, ordered
// nearest first.
func (c *Client) GetStations(ctx context.Context, ref GridReference) ([]Station, error) {
	url := fmt.Sprintf("%s/gridpoints/%s/%d,%d/stations", c.baseURL, ref.OfficeID, ref.GridX, ref.GridY)

	var resp stationsResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("stations: %w", err)
	}

	stations := make([]Station, 0, len(resp.Features))
	for _, f := range resp.Features {
		stations = append(stations, Station{
			ID:   f.Properties.StationIdentifier,
			Name: f.Properties.Name,
		})
	}
	return stations, nil
}

// GetLatestObservation fetches the most recent observation from a station.
// Individual sensor values may be null and stay null in the result.
func (c *Client) GetLatestObservation(ctx context.Context, stationID string) (*Observation, error) {
	url := fmt.Sprintf("%s/stations/%s/observations/latest", c.baseURL, stationID)

	var resp observationResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("latest observation: %w", err)
	}

	p := resp.Properties
	return &Observation{
		StationID:          stationID,
		Timestamp:          p.Timestamp,
		TextDescription:    p.TextDescription,
		Icon:               p.Icon,
		Temperature:        p.Temperature.Value,
		Dewpoint:           p.Dewpoint.Value,
		WindSpeed:          p.WindSpeed.Value,
		WindDirection:      p.WindDirection.Value,
		WindGust:           p.WindGust.Value,
		BarometricPressure: p.BarometricPressure.Value,
		Visibility:         p.Visibility.Value,
		RelativeHumidity:   p.RelativeHumidity.Value,
		HeatIndex:          p.HeatIndex.Value,
		WindChill:          p.WindChill.Value,
	}, nil
}

// GetActiveAlerts fetches active alerts for a coordinate pair. Alerts are
// never cached: every call hits the upstream.
func (c *Client) GetActiveAlerts(ctx context.Context, lat, lon float64) ([]Alert, error) {
	lat, lon = cache.Round4(lat), cache.Round4(lon)
	url := fmt.Sprintf("%s/alerts/active?point=%.4f,%.4f", c.baseURL, lat, lon)

	var resp alertsResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("active alerts: %w", err)
	}

	alerts := make([]Alert, 0, len(resp.Features))
	for _, f := range resp.Features {
		p := f.Properties
		alerts = append(alerts, Alert{
			ID:          p.ID,
			Event:       p.Event,
			Headline:    p.Headline,
			Description: p.Description,
			Severity:    ParseSeverity(p.Severity),
			Urgency:     ParseUrgency(p.Urgency),
			Onset:       p.Onset,
			Expires:     p.Expires,
			AreaDesc:    p.AreaDesc,
			Status:      p.Status,
			MessageType: p.MessageType,
			Category:    p.Category,
		})
	}
	return alerts, nil
}

func (c *Client) getJSON(ctx context.Context, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", acceptGeoJSON)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.exec.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// NWS API response structures.

type pointsResponse struct {
	Properties struct {
		GridID string `json:"gridId"`
		GridX  int    `json:"gridX"`
		GridY  int    `json:"gridY"`
	} `json:"properties"`
}

type quantitativeValue struct {
	Value    *float64 `json:"value"`
	UnitCode string   `json:"unitCode"`
}

type forecastResponse struct {
	Properties struct {
		Periods []struct {
			Number                     int               `json:"number"`
			Name                       string            `json:"name"`
			StartTime                  time.Time         `json:"startTime"`
			EndTime                    time.Time         `json:"endTime"`
			IsDaytime                  bool              `json:"isDaytime"`
			Temperature                int               `json:"temperature"`
			TemperatureUnit            string            `json:"temperatureUnit"`
			ProbabilityOfPrecipitation quantitativeValue `json:"probabilityOfPrecipitation"`
			WindSpeed                  string            `json:"windSpeed"`
			WindDirection              string            `json:"windDirection"`
			Icon                       string            `json:"icon"`
			ShortForecast              string            `json:"shortForecast"`
			DetailedForecast           string            `json:"detailedForecast"`
		} `json:"periods"`
	} `json:"properties"`
}

type stationsResponse struct {
	Features []struct {
		Properties struct {
			StationIdentifier string `json:"stationIdentifier"`
			Name              string `json:"name"`
		} `json:"properties"`
	} `json:"features"`
}

type observationResponse struct {
	Properties struct {
		Timestamp          time.Time         `json:"timestamp"`
		TextDescription    string            `json:"textDescription"`
		Icon               string            `json:"icon"`
		Temperature        quantitativeValue `json:"temperature"`
		Dewpoint           quantitativeValue `json:"dewpoint"`
		WindSpeed          quantitativeValue `json:"windSpeed"`
		WindDirection      quantitativeValue `json:"windDirection"`
		WindGust           quantitativeValue `json:"windGust"`
		BarometricPressure quantitativeValue `json:"barometricPressure"`
		Visibility         quantitativeValue `json:"visibility"`
		RelativeHumidity   quantitativeValue `json:"relativeHumidity"`
		HeatIndex          quantitativeValue `json:"heatIndex"`
		WindChill          quantitativeValue `json:"windChill"`
	} `json:"properties"`
}

type alertsResponse struct {
	Features []struct {
		Properties struct {
			ID          string     `json:"id"`
			Event       string     `json:"event"`
			Headline    string     `json:"headline"`
			Description string     `json:"description"`
			Severity    string     `json:"severity"`
			Urgency     string     `json:"urgency"`
			Onset       *time.Time `json:"onset"`
			Expires     *time.Time `json:"expires"`
			AreaDesc    string     `json:"areaDesc"`
			Status      string     `json:"status"`
			MessageType string     `json:"messageType"`
			Category    string     `json:"category"`
		} `json:"properties"`
	} `json:"features"`
}
