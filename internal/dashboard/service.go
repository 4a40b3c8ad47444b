// Package dashboard assembles weather dashboards and tracks per-client
// session state around them.
package dashboard

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/jacobhausler/weather-app-sub000/internal/geocode"
	"github.com/jacobhausler/weather-app-sub000/internal/nws"
	"github.com/jacobhausler/weather-app-sub000/internal/suntimes"
	"github.com/jacobhausler/weather-app-sub000/internal/upstream"
	"github.com/jacobhausler/weather-app-sub000/internal/uvindex"
)

// ErrInvalidZIP is returned before any network call when the ZIP code is
// not exactly five digits.
var ErrInvalidZIP = errors.New("dashboard: zip code must be exactly five digits")

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// Dashboard is everything the client renders for one location. UVIndex
// and SunTimes are best-effort and may be nil.
type Dashboard struct {
	Location  geocode.Location     `json:"location"`
	Weather   *nws.WeatherSnapshot `json:"weather"`
	UVIndex   *uvindex.Reading     `json:"uvIndex,omitempty"`
	SunTimes  *suntimes.SunTimes   `json:"sunTimes,omitempty"`
	FetchedAt time.Time            `json:"fetchedAt"`
}

// WeatherProvider supplies the full weather snapshot for a coordinate.
type WeatherProvider interface {
	GetWeatherSnapshot(ctx context.Context, lat, lon float64) (*nws.WeatherSnapshot, error)
}

// UVProvider supplies a best-effort UV index reading.
type UVProvider interface {
	GetUVIndex(ctx context.Context, lat, lon float64) (uvindex.Reading, bool)
}

// SunTimesFunc computes best-effort sun times for a coordinate and date.
type SunTimesFunc func(lat, lon float64, date time.Time) (suntimes.SunTimes, bool)

// ServiceConfig wires a Service's collaborators.
type ServiceConfig struct {
	Resolver geocode.Resolver
	Weather  WeatherProvider
	UV       UVProvider
	SunTimes SunTimesFunc
	Clock    clockwork.Clock
	Logger   zerolog.Logger
}

// Service builds dashboards: resolve the ZIP, fetch the weather snapshot,
// then enrich with UV index and sun times where available.
type Service struct {
	resolver geocode.Resolver
	weather  WeatherProvider
	uv       UVProvider
	sunTimes SunTimesFunc
	clock    clockwork.Clock
	logger   zerolog.Logger
}

// NewService creates a dashboard Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.SunTimes == nil {
		cfg.SunTimes = suntimes.Times
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Service{
		resolver: cfg.Resolver,
		weather:  cfg.Weather,
		uv:       cfg.UV,
		sunTimes: cfg.SunTimes,
		clock:    cfg.Clock,
		logger:   cfg.Logger.With().Str("component", "dashboard").Logger(),
	}
}

// Fetch builds the dashboard for a ZIP code. The ZIP is validated before
// any network I/O. Weather failures fail the fetch; UV index and sun
// times are enrichment and their absence is not an error.
func (s *Service) Fetch(ctx context.Context, zip string) (*Dashboard, error) {
	if !zipPattern.MatchString(zip) {
		return nil, ErrInvalidZIP
	}

	loc, err := s.resolver.Resolve(ctx, zip)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.weather.GetWeatherSnapshot(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Location:  loc,
		Weather:   snapshot,
		FetchedAt: s.clock.Now().UTC(),
	}
	if reading, ok := s.uv.GetUVIndex(ctx, loc.Latitude, loc.Longitude); ok {
		d.UVIndex = &reading
	}
	if st, ok := s.sunTimes(loc.Latitude, loc.Longitude, d.FetchedAt); ok {
		d.SunTimes = &st
	}
	return d, nil
}

// Humanize turns an error from Fetch into a message suitable for end
// users. Internal detail stays in the logs.
func Humanize(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidZIP):
		return "Please enter a valid five-digit ZIP code."
	}

	var (
		notFound  *upstream.NotFoundError
		rateLimit *upstream.RateLimitError
		server    *upstream.ServerError
		transport *upstream.TransportError
	)
	switch {
	case errors.As(err, &notFound):
		return "Weather data is not available for that location."
	case errors.As(err, &rateLimit):
		return "The weather service is busy. Please try again in a moment."
	case errors.As(err, &server):
		return "The weather service is having problems. Please try again later."
	case errors.As(err, &transport):
		return "We could not reach the weather service. Check your connection and try again."
	default:
		return "Something went wrong. Please try again."
	}
}
