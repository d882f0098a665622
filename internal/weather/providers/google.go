package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/city-weather-time/internal/weather"
)

var errNoAPIKey = errors.New("google geocoder api key is not configured")

// geocodingFunc matches geocoder.Geocoding so tests can substitute it.
type geocodingFunc func(geocoder.Address) (geocoder.Location, error)

// GoogleGeocoder implements weather.Geocoder with the Google Geocoding API.
// The underlying client is blocking and context-unaware, so calls run in a
// goroutine and are abandoned when ctx expires.
type GoogleGeocoder struct {
	apiKey  string
	lookup  geocodingFunc
	circuit *gobreaker.CircuitBreaker
}

var _ weather.Geocoder = (*GoogleGeocoder)(nil)

// the geocoder package keys requests through a package variable
var apiKeyOnce sync.Once

// NewGoogleGeocoder returns a geocoder for apiKey. The geocoder package holds
// a single process-wide key, so the first non-empty key wins; later
// geocoders built with a different key still send the first one.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	if apiKey != "" {
		apiKeyOnce.Do(func() { geocoder.ApiKey = apiKey })
	}
	return &GoogleGeocoder{
		apiKey:  apiKey,
		lookup:  geocoder.Geocoding,
		circuit: newBreaker("google-geocoder"),
	}
}

type googleAnswer struct {
	loc geocoder.Location
	err error
}

// Geocode resolves query as a city name. Google's forward lookup carries no
// display name here, so the trimmed query is echoed back.
func (g *GoogleGeocoder) Geocode(ctx context.Context, query string) (weather.GeocodeResult, error) {
	if g.apiKey == "" {
		return weather.GeocodeResult{}, fmt.Errorf("google: %w", errNoAPIKey)
	}

	result, err := g.circuit.Execute(func() (interface{}, error) {
		answer := make(chan googleAnswer, 1)
		go func() {
			loc, err := g.lookup(geocoder.Address{City: query})
			answer <- googleAnswer{loc: loc, err: err}
		}()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case a := <-answer:
			return a.loc, a.err
		}
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "zero_results") {
			return weather.GeocodeResult{}, fmt.Errorf("google: %q: %w", query, weather.ErrNoResult)
		}
		return weather.GeocodeResult{}, fmt.Errorf("google: %w", err)
	}

	loc := result.(geocoder.Location)
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return weather.GeocodeResult{}, fmt.Errorf("google: %q: %w", query, weather.ErrNoResult)
	}

	return weather.GeocodeResult{
		Lat:         loc.Latitude,
		Lon:         loc.Longitude,
		DisplayName: strings.Clone(strings.TrimSpace(query)),
	}, nil
}
