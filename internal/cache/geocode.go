package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/i474232898/city-weather-time/internal/weather"
)

// geocodeEntry memoizes either a result or a definitive "not found".
type geocodeEntry struct {
	result   weather.GeocodeResult
	notFound bool
}

// CachedGeocoder wraps a Geocoder with a bounded LRU keyed by the exact query string.
// Transport failures are not cached so the next call retries upstream.
type CachedGeocoder struct {
	source weather.Geocoder
	cache  *LRU[string, geocodeEntry]
}

// Ensure CachedGeocoder implements weather.Geocoder
var _ weather.Geocoder = (*CachedGeocoder)(nil)

// NewCachedGeocoder creates a cached wrapper around source.
func NewCachedGeocoder(source weather.Geocoder, capacity int) (*CachedGeocoder, error) {
	c, err := NewLRU[string, geocodeEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &CachedGeocoder{source: source, cache: c}, nil
}

// Geocode returns the cached answer for query or asks the source.
func (c *CachedGeocoder) Geocode(ctx context.Context, query string) (weather.GeocodeResult, error) {
	if e, ok := c.cache.Get(query); ok {
		if e.notFound {
			return weather.GeocodeResult{}, weather.ErrNoResult
		}
		return e.result, nil
	}

	res, err := c.source.Geocode(ctx, query)

	// The cache outlives the call; callers may hand in strings backed by
	// reused request buffers.
	key := strings.Clone(query)
	switch {
	case err == nil:
		res.DisplayName = strings.Clone(res.DisplayName)
		c.cache.Add(key, geocodeEntry{result: res})
	case errors.Is(err, weather.ErrNoResult):
		c.cache.Add(key, geocodeEntry{notFound: true})
	}
	return res, err
}

// Stats returns cache hit and miss counts.
func (c *CachedGeocoder) Stats() (hits, misses uint64) {
	return c.cache.Stats()
}
