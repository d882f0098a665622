package cache

import (
	"context"
	"errors"

	"github.com/i474232898/city-weather-time/internal/weather"
)

type coordKey struct {
	lat, lon float64
}

// CachedTimezoneFinder memoizes zone lookups by exact (lat, lon) pair.
// Empty strings in the cache stand for "no zone at these coordinates".
type CachedTimezoneFinder struct {
	source weather.TimezoneFinder
	cache  *LRU[coordKey, string]
}

var _ weather.TimezoneFinder = (*CachedTimezoneFinder)(nil)

func NewCachedTimezoneFinder(source weather.TimezoneFinder, capacity int) (*CachedTimezoneFinder, error) {
	c, err := NewLRU[coordKey, string](capacity)
	if err != nil {
		return nil, err
	}
	return &CachedTimezoneFinder{source: source, cache: c}, nil
}

func (c *CachedTimezoneFinder) TimezoneAt(ctx context.Context, lat, lon float64) (string, error) {
	key := coordKey{lat: lat, lon: lon}
	if zone, ok := c.cache.Get(key); ok {
		if zone == "" {
			return "", weather.ErrNoResult
		}
		return zone, nil
	}

	zone, err := c.source.TimezoneAt(ctx, lat, lon)
	switch {
	case err == nil:
		c.cache.Add(key, zone)
	case errors.Is(err, weather.ErrNoResult):
		c.cache.Add(key, "")
	}
	return zone, err
}

func (c *CachedTimezoneFinder) Stats() (hits, misses uint64) {
	return c.cache.Stats()
}
