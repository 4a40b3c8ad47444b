// Package suntimes computes astronomical times for a location and date.
// At extreme latitudes the sun may not rise or set at all; that is reported
// as an absent result, never an error or a panic.
package suntimes

import (
	"time"

	"github.com/sj14/astral/pkg/astral"
)

// SunTimes holds the astronomical times for one location and date, as
// RFC 3339 strings.
type SunTimes struct {
	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`
	SolarNoon string `json:"solarNoon"`
	CivilDawn string `json:"civilDawn"`
	CivilDusk string `json:"civilDusk"`
}

// Times computes sun times for the given coordinates and date. The second
// return value is false when the calculation is undefined (polar day or
// polar night).
func Times(lat, lon float64, date time.Time) (SunTimes, bool) {
	observer := astral.Observer{Latitude: lat, Longitude: lon}

	sunrise, err := astral.Sunrise(observer, date)
	if err != nil {
		return SunTimes{}, false
	}
	sunset, err := astral.Sunset(observer, date)
	if err != nil {
		return SunTimes{}, false
	}
	dawn, err := astral.Dawn(observer, date, astral.DepressionCivil)
	if err != nil {
		return SunTimes{}, false
	}
	dusk, err := astral.Dusk(observer, date, astral.DepressionCivil)
	if err != nil {
		return SunTimes{}, false
	}
	noon := astral.Noon(observer, date)

	return SunTimes{
		Sunrise:   sunrise.UTC().Format(time.RFC3339),
		Sunset:    sunset.UTC().Format(time.RFC3339),
		SolarNoon: noon.UTC().Format(time.RFC3339),
		CivilDawn: dawn.UTC().Format(time.RFC3339),
		CivilDusk: dusk.UTC().Format(time.RFC3339),
	}, true
}
