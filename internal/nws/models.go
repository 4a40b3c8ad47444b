package nws

import "time"

// GridReference is the NWS spatial key (forecast office + grid cell) that
// forecast and station endpoints require instead of raw coordinates. It is
// produced once per coordinate pair by a point lookup and never changes.
type GridReference struct {
	OfficeID string `json:"officeId"`
	GridX    int    `json:"gridX"`
	GridY    int    `json:"gridY"`
}

// ForecastPeriod is one period of the textual forecast. Periods are
// sequential and alternate daytime/nighttime.
type ForecastPeriod struct {
	Number                   int       `json:"number"`
	Name                     string    `json:"name"`
	StartTime                time.Time `json:"startTime"`
	EndTime                  time.Time `json:"endTime"`
	IsDaytime                bool      `json:"isDaytime"`
	Temperature              int       `json:"temperature"`
	TemperatureUnit          string    `json:"temperatureUnit"`
	PrecipitationProbability *float64  `json:"precipitationProbability,omitempty"`
	WindSpeed                string    `json:"windSpeed"`
	WindDirection            string    `json:"windDirection"`
	Icon                     string    `json:"icon"`
	ShortForecast            string    `json:"shortForecast"`
	DetailedForecast         string    `json:"detailedForecast"`
}

// HourlyPeriod is one hour of the gridded hourly forecast, ordered by
// StartTime ascending.
type HourlyPeriod struct {
	Number                   int       `json:"number"`
	StartTime                time.Time `json:"startTime"`
	EndTime                  time.Time `json:"endTime"`
	IsDaytime                bool      `json:"isDaytime"`
	Temperature              int       `json:"temperature"`
	TemperatureUnit          string    `json:"temperatureUnit"`
	PrecipitationProbability *float64  `json:"precipitationProbability,omitempty"`
	WindSpeed                string    `json:"windSpeed"`
	WindDirection            string    `json:"windDirection"`
	Icon                     string    `json:"icon"`
	ShortForecast            string    `json:"shortForecast"`
}

// Station is a weather observation station serving a grid cell.
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Observation is the latest reading from one station. Individual sensors go
// offline or get quality-controlled out, so every value is a pointer: nil
// means "no data", never zero.
type Observation struct {
	StationID          string    `json:"stationId"`
	Timestamp          time.Time `json:"timestamp"`
	TextDescription    string    `json:"textDescription"`
	Icon               string    `json:"icon"`
	Temperature        *float64  `json:"temperature"`
	Dewpoint           *float64  `json:"dewpoint"`
	WindSpeed          *float64  `json:"windSpeed"`
	WindDirection      *float64  `json:"windDirection"`
	WindGust           *float64  `json:"windGust"`
	BarometricPressure *float64  `json:"barometricPressure"`
	Visibility         *float64  `json:"visibility"`
	RelativeHumidity   *float64  `json:"relativeHumidity"`
	HeatIndex          *float64  `json:"heatIndex"`
	WindChill          *float64  `json:"windChill"`
}

// Severity is the NWS alert severity scale.
type Severity string

const (
	SeverityExtreme  Severity = "Extreme"
	SeveritySevere   Severity = "Severe"
	SeverityModerate Severity = "Moderate"
	SeverityMinor    Severity = "Minor"
	SeverityUnknown  Severity = "Unknown"
)

// ParseSeverity maps an upstream severity string to the known scale,
// defaulting to Unknown.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityExtreme, SeveritySevere, SeverityModerate, SeverityMinor:
		return Severity(s)
	default:
		return SeverityUnknown
	}
}

// Urgency is the NWS alert urgency scale.
type Urgency string

const (
	UrgencyImmediate Urgency = "Immediate"
	UrgencyExpected  Urgency = "Expected"
	UrgencyFuture    Urgency = "Future"
	UrgencyPast      Urgency = "Past"
	UrgencyUnknown   Urgency = "Unknown"
)

// ParseUrgency maps an upstream urgency string to the known scale,
// defaulting to Unknown.
func ParseUrgency(s string) Urgency {
	switch Urgency(s) {
	case UrgencyImmediate, UrgencyExpected, UrgencyFuture, UrgencyPast:
		return Urgency(s)
	default:
		return UrgencyUnknown
	}
}

// Alert is one active weather alert. Alerts are always fetched fresh and
// never cached.
type Alert struct {
	ID          string     `json:"id"`
	Event       string     `json:"event"`
	Headline    string     `json:"headline"`
	Description string     `json:"description"`
	Severity    Severity   `json:"severity"`
	Urgency     Urgency    `json:"urgency"`
	Onset       *time.Time `json:"onset,omitempty"`
	Expires     *time.Time `json:"expires,omitempty"`
	AreaDesc    string     `json:"areaDesc"`
	Status      string     `json:"status"`
	MessageType string     `json:"messageType"`
	Category    string     `json:"category"`
}

// WeatherSnapshot is one complete, internally consistent set of weather
// data for a location. A new snapshot replaces the previous one wholesale;
// snapshots are never merged.
type WeatherSnapshot struct {
	GridReference  GridReference    `json:"gridReference"`
	Forecast       []ForecastPeriod `json:"forecast"`
	HourlyForecast []HourlyPeriod   `json:"hourlyForecast"`
	Stations       []Station        `json:"stations"`
	Observation    *Observation     `json:"observation"`
	Alerts         []Alert          `json:"alerts"`
	FetchedAt      time.Time        `json:"fetchedAt"`
}
