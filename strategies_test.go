package sampler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSampleWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	lower := []float64{-1, 0, 10}
	upper := []float64{1, 0.5, 20}

	points, err := RandomSample(rng, lower, upper, 200)
	require.NoError(t, err)
	require.Len(t, points, 200)

	for _, p := range points {
		require.Len(t, p, 3)

		for d := range p {
			assert.GreaterOrEqual(t, p[d], lower[d])
			assert.LessOrEqual(t, p[d], upper[d])
		}
	}
}

func TestRandomSampleValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	var shape *ShapeError

	_, err := RandomSample(rng, []float64{0}, []float64{1, 2}, 1)
	assert.ErrorAs(t, err, &shape)

	var pre *PreconditionError

	_, err = RandomSample(rng, []float64{0}, []float64{1}, 0)
	assert.ErrorAs(t, err, &pre)
}

func TestGridSampleCorners(t *testing.T) {
	lower := []float64{0, -2}
	upper := []float64{1, 2}

	// Every corner coordinate equals one of the bounds, and the bit of the
	// index selects which.
	seen := map[[2]float64]bool{}

	for index := 0; index < 4; index++ {
		p, err := GridSample(lower, upper, index)
		require.NoError(t, err)
		require.Len(t, p, 2)

		for d := range p {
			assert.True(t, p[d] == lower[d] || p[d] == upper[d])

			if index&(1<<d) != 0 {
				assert.Equal(t, upper[d], p[d])
			} else {
				assert.Equal(t, lower[d], p[d])
			}
		}

		seen[[2]float64{p[0], p[1]}] = true
	}

	// All corners are distinct.
	assert.Len(t, seen, 4)
}

func TestGridSampleCentroid(t *testing.T) {
	p, err := GridSample([]float64{0, -2}, []float64{1, 2}, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0}, p)
}

func TestGridSampleOutsideBootstrapRange(t *testing.T) {
	var pre *PreconditionError

	_, err := GridSample([]float64{0, -2}, []float64{1, 2}, 5)
	assert.ErrorAs(t, err, &pre)

	_, err = GridSample([]float64{0, -2}, []float64{1, 2}, -1)
	assert.ErrorAs(t, err, &pre)
}

func TestGridSampleOneDimension(t *testing.T) {
	lower := []float64{2}
	upper := []float64{4}

	low, err := GridSample(lower, upper, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, low)

	high, err := GridSample(lower, upper, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, high)

	mid, err := GridSample(lower, upper, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, mid)
}
