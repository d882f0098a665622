package weather

import (
	"context"
	"errors"
)

var (
	// ErrNoResult is returned when a lookup completed but found nothing.
	ErrNoResult = errors.New("no result")
	// ErrDisabled is returned for capabilities switched off by configuration.
	ErrDisabled = errors.New("capability disabled")
	// ErrNoCurrentWeather is returned when a payload lacks current conditions.
	ErrNoCurrentWeather = errors.New("payload has no current weather")
)

// Geocoder turns a free-text place name into coordinates (e.g. Nominatim, Google).
type Geocoder interface {
	Geocode(ctx context.Context, query string) (GeocodeResult, error)
}

// TimezoneFinder maps coordinates to an IANA zone identifier.
type TimezoneFinder interface {
	TimezoneAt(ctx context.Context, lat, lon float64) (string, error)
}

// CurrentProvider abstracts a live weather data source (e.g. Open-Meteo).
type CurrentProvider interface {
	Name() string
	Current(ctx context.Context, lat, lon float64) (CurrentConditions, error)
}
