package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-weather-time/internal/weather"
)

type countingGeocoder struct {
	calls atomic.Int64
	err   error
}

func (g *countingGeocoder) Geocode(_ context.Context, query string) (weather.GeocodeResult, error) {
	g.calls.Add(1)
	if g.err != nil {
		return weather.GeocodeResult{}, g.err
	}
	return weather.GeocodeResult{Lat: 1, Lon: 2, DisplayName: query}, nil
}

type countingFinder struct {
	calls atomic.Int64
	zone  string
	err   error
}

func (f *countingFinder) TimezoneAt(_ context.Context, _, _ float64) (string, error) {
	f.calls.Add(1)
	return f.zone, f.err
}

func TestNewLRURejectsNonPositiveCapacity(t *testing.T) {
	_, err := NewLRU[string, int](0)
	assert.Error(t, err)
}

func TestLRUStats(t *testing.T) {
	c, err := NewLRU[string, int](2)
	require.NoError(t, err)

	c.Add("a", 1)
	_, ok := c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestCachedGeocoderHitsSourceOnce(t *testing.T) {
	src := &countingGeocoder{}
	g, err := NewCachedGeocoder(src, DefaultCapacity)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		res, err := g.Geocode(ctx, "Lisbon")
		require.NoError(t, err)
		assert.Equal(t, "Lisbon", res.DisplayName)
	}
	assert.Equal(t, int64(1), src.calls.Load())

	// keyed by exact input, not normalized
	_, err = g.Geocode(ctx, "lisbon")
	require.NoError(t, err)
	assert.Equal(t, int64(2), src.calls.Load())
}

func TestCachedGeocoderEvictsLeastRecentlyUsed(t *testing.T) {
	src := &countingGeocoder{}
	g, err := NewCachedGeocoder(src, 3)
	require.NoError(t, err)
	ctx := context.Background()

	for _, q := range []string{"a", "b", "c"} {
		_, err := g.Geocode(ctx, q)
		require.NoError(t, err)
	}
	// touch "a" so "b" becomes the oldest
	_, _ = g.Geocode(ctx, "a")
	_, _ = g.Geocode(ctx, "d")
	require.Equal(t, int64(4), src.calls.Load())

	_, _ = g.Geocode(ctx, "a")
	assert.Equal(t, int64(4), src.calls.Load(), "recently used key should still be cached")

	_, _ = g.Geocode(ctx, "b")
	assert.Equal(t, int64(5), src.calls.Load(), "evicted key should reach the source again")
}

func TestCachedGeocoderCachesNotFound(t *testing.T) {
	src := &countingGeocoder{err: fmt.Errorf("nominatim: %w", weather.ErrNoResult)}
	g, err := NewCachedGeocoder(src, DefaultCapacity)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := g.Geocode(context.Background(), "Atlantis")
		assert.ErrorIs(t, err, weather.ErrNoResult)
	}
	assert.Equal(t, int64(1), src.calls.Load())
}

func TestCachedGeocoderDoesNotCacheTransportErrors(t *testing.T) {
	src := &countingGeocoder{err: errors.New("connection reset")}
	g, err := NewCachedGeocoder(src, DefaultCapacity)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := g.Geocode(context.Background(), "Lisbon")
		assert.Error(t, err)
	}
	assert.Equal(t, int64(3), src.calls.Load())
}

func TestCachedGeocoderConcurrentAccess(t *testing.T) {
	src := &countingGeocoder{}
	g, err := NewCachedGeocoder(src, 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := fmt.Sprintf("city-%d", i%16)
			res, err := g.Geocode(context.Background(), q)
			assert.NoError(t, err)
			assert.Equal(t, q, res.DisplayName)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, g.cache.Len(), 8)
}

func TestCachedTimezoneFinder(t *testing.T) {
	src := &countingFinder{zone: "Europe/Lisbon"}
	f, err := NewCachedTimezoneFinder(src, DefaultCapacity)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		zone, err := f.TimezoneAt(ctx, 38.72, -9.14)
		require.NoError(t, err)
		assert.Equal(t, "Europe/Lisbon", zone)
	}
	assert.Equal(t, int64(1), src.calls.Load())

	_, err = f.TimezoneAt(ctx, 38.72, -9.15)
	require.NoError(t, err)
	assert.Equal(t, int64(2), src.calls.Load())

	hits, misses := f.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(2), misses)
}

func TestCachedTimezoneFinderNoZone(t *testing.T) {
	src := &countingFinder{err: weather.ErrNoResult}
	f, err := NewCachedTimezoneFinder(src, DefaultCapacity)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := f.TimezoneAt(context.Background(), 0, -160)
		assert.ErrorIs(t, err, weather.ErrNoResult)
	}
	assert.Equal(t, int64(1), src.calls.Load())
}

func TestCachedGeocoderKeyOwnsItsBytes(t *testing.T) {
	src := &countingGeocoder{}
	g, err := NewCachedGeocoder(src, DefaultCapacity)
	require.NoError(t, err)
	ctx := context.Background()

	buf := []byte("Paris")
	_, err = g.Geocode(ctx, unsafe.String(&buf[0], len(buf)))
	require.NoError(t, err)

	// the caller reuses its buffer for the next request
	copy(buf, "Tokyo")

	res, err := g.Geocode(ctx, "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", res.DisplayName)
	assert.Equal(t, int64(1), src.calls.Load())

	res, err = g.Geocode(ctx, "Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", res.DisplayName)
	assert.Equal(t, int64(2), src.calls.Load())
}

func TestCachedTimezoneFinderEvictsLeastRecentlyUsed(t *testing.T) {
	src := &countingFinder{zone: "Europe/Lisbon"}
	f, err := NewCachedTimezoneFinder(src, 3)
	require.NoError(t, err)
	ctx := context.Background()

	for _, lat := range []float64{1, 2, 3} {
		_, err := f.TimezoneAt(ctx, lat, 0)
		require.NoError(t, err)
	}
	// touch 1 so 2 becomes the oldest
	_, _ = f.TimezoneAt(ctx, 1, 0)
	_, _ = f.TimezoneAt(ctx, 4, 0)
	require.Equal(t, int64(4), src.calls.Load())
	assert.Equal(t, 3, f.cache.Len())

	_, _ = f.TimezoneAt(ctx, 1, 0)
	assert.Equal(t, int64(4), src.calls.Load(), "recently used pair should still be cached")

	_, _ = f.TimezoneAt(ctx, 2, 0)
	assert.Equal(t, int64(5), src.calls.Load(), "evicted pair should reach the source again")
}

func TestCachedTimezoneFinderIndependentOfGeocodeCache(t *testing.T) {
	geo, err := NewCachedGeocoder(&countingGeocoder{}, 1)
	require.NoError(t, err)
	src := &countingFinder{zone: "Asia/Tokyo"}
	tz, err := NewCachedTimezoneFinder(src, 2)
	require.NoError(t, err)
	ctx := context.Background()

	_, _ = tz.TimezoneAt(ctx, 35.68, 139.69)
	for _, q := range []string{"a", "b", "c"} {
		_, _ = geo.Geocode(ctx, q)
	}
	_, _ = tz.TimezoneAt(ctx, 35.68, 139.69)

	assert.Equal(t, int64(1), src.calls.Load())
	assert.Equal(t, 1, geo.cache.Len())
}
