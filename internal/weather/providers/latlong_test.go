package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatLongFinder(t *testing.T) {
	f := NewLatLongFinder()

	cases := map[string]struct {
		lat, lon float64
		zone     string
	}{
		"tokyo":  {35.6762, 139.6503, "Asia/Tokyo"},
		"paris":  {48.8566, 2.3522, "Europe/Paris"},
		"denver": {39.7392, -104.9903, "America/Denver"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			zone, err := f.TimezoneAt(context.Background(), tc.lat, tc.lon)
			require.NoError(t, err)
			assert.Equal(t, tc.zone, zone)
		})
	}
}

func TestLatLongFinderOutOfRange(t *testing.T) {
	_, err := NewLatLongFinder().TimezoneAt(context.Background(), 91, 0)
	assert.Error(t, err)
}

func TestLatLongFinderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLatLongFinder().TimezoneAt(ctx, 35.6762, 139.6503)
	assert.ErrorIs(t, err, context.Canceled)
}
