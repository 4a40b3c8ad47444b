package nws

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// GetWeatherSnapshot assembles a complete snapshot for a location. The grid
// lookup happens first (everything else depends on it); forecast, hourly
// forecast, stations and alerts are then fetched concurrently. Any of those
// failing fails the snapshot. The observation from the nearest station is
// the single tolerated partial failure: station sensors go offline often
// enough that failing the whole snapshot over one would make the dashboard
// unusable, so a failed observation becomes nil with a warning.
func (c *Client) GetWeatherSnapshot(ctx context.Context, lat, lon float64) (*WeatherSnapshot, error) {
	ref, err := c.GetGridReference(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("grid reference: %w", err)
	}

	var (
		wg       sync.WaitGroup
		forecast []ForecastPeriod
		hourly   []HourlyPeriod
		stations []Station
		alerts   []Alert

		forecastErr, hourlyErr, stationsErr, alertsErr error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		forecast, forecastErr = c.GetForecast(ctx, ref)
	}()
	go func() {
		defer wg.Done()
		hourly, hourlyErr = c.GetHourlyForecast(ctx, ref)
	}()
	go func() {
		defer wg.Done()
		stations, stationsErr = c.GetStations(ctx, ref)
	}()
	go func() {
		defer wg.Done()
		alerts, alertsErr = c.GetActiveAlerts(ctx, lat, lon)
	}()
	wg.Wait()

	for _, err := range []error{forecastErr, hourlyErr, stationsErr, alertsErr} {
		if err != nil {
			return nil, err
		}
	}

	var observation *Observation
	if len(stations) > 0 {
		obs, obsErr := c.GetLatestObservation(ctx, stations[0].ID)
		if obsErr != nil {
			c.logger.Warn().
				Err(obsErr).
				Str("station", stations[0].ID).
				Msg("observation unavailable, continuing without it")
		} else {
			observation = obs
		}
	}

	return &WeatherSnapshot{
		GridReference:  ref,
		Forecast:       forecast,
		HourlyForecast: hourly,
		Stations:       stations,
		Observation:    observation,
		Alerts:         alerts,
		FetchedAt:      time.Now().UTC(),
	}, nil
}
