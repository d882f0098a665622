package weather

// Units is the display unit requested for temperatures.
type Units string

const (
	UnitsCelsius    Units = "C"
	UnitsFahrenheit Units = "F"
)

// KnownCity is an entry of the built-in offline table.
type KnownCity struct {
	TempC     float64
	Condition string
	Humidity  int
	WindKph   float64
	Timezone  string
}

// GeocodeResult is an approximate position and canonical display name for a query.
type GeocodeResult struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// CurrentConditions is the subset of a live provider payload we use.
// Pointer fields are absent when the provider omitted them.
type CurrentConditions struct {
	TemperatureC *float64
	WindSpeedKph *float64
	WeatherCode  *int
	// Timezone is the provider-side zone hint, if any.
	Timezone string
}

// WeatherSnapshot is the normalized current-conditions record returned to callers.
type WeatherSnapshot struct {
	City        string   `json:"city"`
	TempC       *float64 `json:"temp_c"`
	Temp        *float64 `json:"temp"`
	Units       Units    `json:"units"`
	Condition   string   `json:"condition"`
	WeatherCode *int     `json:"weather_code,omitempty"`
	Humidity    *int     `json:"humidity"`
	WindKph     *float64 `json:"wind_kph"`
	Timestamp   string   `json:"timestamp"` // ISO-8601 in the city's zone
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

// Status tags a QueryResult.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorCode classifies an error result.
type ErrorCode string

const (
	ErrInvalidUnits        ErrorCode = "invalid_units"
	ErrCityNotResolvable   ErrorCode = "city_not_resolvable"
	ErrWeatherUnavailable  ErrorCode = "weather_unavailable"
	ErrTimezoneUnavailable ErrorCode = "timezone_unavailable"
)

// QueryResult is the uniform contract of both composers.
// Weather successes fill Data; time successes fill ISO and Timezone.
type QueryResult struct {
	Status       Status           `json:"status"`
	Report       string           `json:"report,omitempty"`
	Data         *WeatherSnapshot `json:"data,omitempty"`
	ISO          string           `json:"iso,omitempty"`
	Timezone     string           `json:"timezone,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	ErrorCode    ErrorCode        `json:"error_code,omitempty"`
}

// OK reports whether the result is a success.
func (r QueryResult) OK() bool {
	return r.Status == StatusSuccess
}

func errorResult(code ErrorCode, msg string) QueryResult {
	return QueryResult{
		Status:       StatusError,
		ErrorMessage: msg,
		ErrorCode:    code,
	}
}
