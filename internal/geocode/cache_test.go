package geocode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGeocoder struct {
	calls  int
	coords Coordinates
	err    error
}

func (g *countingGeocoder) Geocode(context.Context, string) (Coordinates, error) {
	g.calls++
	return g.coords, g.err
}

func TestCacheKeyNormalizesAddress(t *testing.T) {
	t.Parallel()

	a := cacheKey("  20 W 34th   St,\tNew York ")
	b := cacheKey("20 w 34TH st, new york")
	assert.Equal(t, a, b)
}

func TestCachedFallsThroughWithoutRedis(t *testing.T) {
	t.Parallel()

	inner := &countingGeocoder{coords: Coordinates{Lat: 1.5, Lng: 2.5}}
	c := NewCached(inner, nil, 0, nil)

	coords, err := c.Geocode(context.Background(), "some address")
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 1.5, Lng: 2.5}, coords)

	_, err = c.Geocode(context.Background(), "some address")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "without redis every lookup reaches the provider")
}

func TestCachedPropagatesNoResults(t *testing.T) {
	t.Parallel()

	inner := &countingGeocoder{err: ErrNoResults}
	c := NewCached(inner, nil, 0, nil)

	_, err := c.Geocode(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoResults)
}
