package syscache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"mpspline/internal/spline"
)

func builder(tops, bottoms []float64, lambda float64) func() (*spline.System, error) {
	return func() (*spline.System, error) {
		return spline.Build(tops, bottoms, lambda)
	}
}

func TestGetOrBuild_HitReturnsSameSystem(t *testing.T) {
	c := New(10)
	tops := []float64{0, 20}
	bottoms := []float64{20, 50}

	first, hit, err := c.GetOrBuild(tops, bottoms, 0.1, builder(tops, bottoms, 0.1))
	require.NoError(t, err)
	require.False(t, hit)

	second, hit, err := c.GetOrBuild(tops, bottoms, 0.1, builder(tops, bottoms, 0.1))
	require.NoError(t, err)
	require.True(t, hit)
	require.Same(t, first, second)

	hits, misses := c.Stats()
	require.Equal(t, int64(1), hits)
	require.Equal(t, int64(1), misses)
}

func TestGetOrBuild_LambdaIsPartOfTheKey(t *testing.T) {
	c := New(10)
	tops := []float64{0, 20}
	bottoms := []float64{20, 50}

	_, _, err := c.GetOrBuild(tops, bottoms, 0.1, builder(tops, bottoms, 0.1))
	require.NoError(t, err)

	_, hit, err := c.GetOrBuild(tops, bottoms, 0.5, builder(tops, bottoms, 0.5))
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, 2, c.Len())
}

func TestGetOrBuild_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	configs := [][2][]float64{
		{{0, 20}, {20, 50}},
		{{0, 30}, {30, 60}},
		{{0, 40}, {40, 80}},
	}
	for _, cfg := range configs {
		_, _, err := c.GetOrBuild(cfg[0], cfg[1], 0.1, builder(cfg[0], cfg[1], 0.1))
		require.NoError(t, err)
	}
	require.Equal(t, 2, c.Len())

	// The first configuration was evicted, so asking again is a miss.
	_, hit, err := c.GetOrBuild(configs[0][0], configs[0][1], 0.1, builder(configs[0][0], configs[0][1], 0.1))
	require.NoError(t, err)
	require.False(t, hit)
}

func TestGetOrBuild_ErrorsAreNotCached(t *testing.T) {
	c := New(10)
	boom := errors.New("boom")
	calls := 0
	failing := func() (*spline.System, error) {
		calls++
		return nil, boom
	}

	_, _, err := c.GetOrBuild([]float64{0, 20}, []float64{20, 20}, 0.1, failing)
	require.ErrorIs(t, err, boom)
	_, _, err = c.GetOrBuild([]float64{0, 20}, []float64{20, 20}, 0.1, failing)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, calls)
	require.Equal(t, 0, c.Len())
}

func TestKey(t *testing.T) {
	a := Key([]float64{0, 20}, []float64{20, 50}, 0.1)
	require.Equal(t, a, Key([]float64{0, 20}, []float64{20, 50}, 0.1))

	// Moving a boundary between the two slices must change the key even
	// though the concatenated numbers are the same.
	require.NotEqual(t,
		Key([]float64{0, 20, 50}, []float64{20, 50, 80}, 0.1),
		Key([]float64{0, 20}, []float64{50, 20, 50, 80}, 0.1))

	require.NotEqual(t, a, Key([]float64{0, 20}, []float64{20, 50}, 0.2))
	require.NotEqual(t, a, Key([]float64{0, 21}, []float64{21, 50}, 0.1))
}
