package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/bradfitz/latlong"

	"github.com/i474232898/city-weather-time/internal/weather"
)

var errTablesMissing = errors.New("latlong: zone tables not generated")

// LatLongFinder resolves coordinates to an IANA zone from tables compiled
// into the binary; no network call is made.
type LatLongFinder struct{}

var _ weather.TimezoneFinder = LatLongFinder{}

func NewLatLongFinder() LatLongFinder {
	return LatLongFinder{}
}

func (LatLongFinder) TimezoneAt(ctx context.Context, lat, lon float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", fmt.Errorf("latlong: coordinates out of range (%f, %f)", lat, lon)
	}

	zone := latlong.LookupZoneName(lat, lon)
	switch zone {
	case "tables not generated yet":
		return "", errTablesMissing
	case "":
		return "", fmt.Errorf("latlong: (%f, %f): %w", lat, lon, weather.ErrNoResult)
	}
	return zone, nil
}
