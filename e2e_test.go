package sampler_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thalesfsp/sampler"
	"github.com/thalesfsp/sampler/gp"
)

// Twenty pick/update cycles on y = x₁ + x₂ over the unit square, then
// predict at the centroid from real observations only. The surrogate has
// to recover the plane's value of 1.0 there.
func TestEndToEndPickUpdatePredict(t *testing.T) {
	lower := []float64{0, 0}
	upper := []float64{1, 1}

	cfg := sampler.DefaultConfig()
	cfg.Provider = gp.New()
	cfg.MinTrainingSize = 16
	cfg.NumCandidates = 50
	cfg.RandomState = rand.New(rand.NewSource(7))
	cfg.Optimizer.Seed = 7
	cfg.Optimizer.MaxEvaluations = 120

	s, err := sampler.NewGaussianProcess(lower, upper, cfg)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		location, jobID, err := s.Pick()
		require.NoError(t, err)
		require.Len(t, location, 2)

		for d := range location {
			require.GreaterOrEqual(t, location[d], lower[d])
			require.LessOrEqual(t, location[d], upper[d])
		}

		_, err = s.Update(jobID, location[0]+location[1])
		require.NoError(t, err)
	}

	assert.Equal(t, 20, s.Len())
	assert.Equal(t, 0, s.PendingCount())

	mean, variance, err := s.Predict([][]float64{{0.5, 0.5}}, true)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, mean[0][0], 0.3)
	assert.False(t, math.IsNaN(variance[0][0]))
	assert.False(t, math.IsInf(variance[0][0], 0))
	assert.GreaterOrEqual(t, variance[0][0], 0.0)
}

// Several measurements can be in flight at once; updates may return in any
// order and each resolves independently.
func TestEndToEndInterleavedJobs(t *testing.T) {
	cfg := sampler.DefaultConfig()
	cfg.Provider = gp.New()
	cfg.MinTrainingSize = 4
	cfg.NumCandidates = 25
	cfg.RandomState = rand.New(rand.NewSource(11))
	cfg.Optimizer.Seed = 11
	cfg.Optimizer.MaxEvaluations = 60
	cfg.Optimizer.Restarts = 2

	s, err := sampler.NewGaussianProcess([]float64{0}, []float64{1}, cfg)
	require.NoError(t, err)

	type job struct {
		id       string
		location []float64
	}

	var inFlight []job

	objective := func(x []float64) float64 {
		return math.Sin(3 * x[0])
	}

	// Issue picks in bursts of three, resolving them newest first.
	for burst := 0; burst < 5; burst++ {
		for i := 0; i < 3; i++ {
			location, id, err := s.Pick()
			require.NoError(t, err)

			inFlight = append(inFlight, job{id: id, location: location})
		}

		assert.Equal(t, len(inFlight), s.PendingCount())

		for len(inFlight) > 0 {
			last := inFlight[len(inFlight)-1]
			inFlight = inFlight[:len(inFlight)-1]

			_, err := s.Update(last.id, objective(last.location))
			require.NoError(t, err)
		}
	}

	assert.Equal(t, 15, s.Len())
	assert.Equal(t, 0, s.PendingCount())

	mean, variance, err := s.Predict([][]float64{{0.1}, {0.9}}, false)
	require.NoError(t, err)
	require.Len(t, mean, 2)

	for i := range mean {
		assert.False(t, math.IsNaN(mean[i][0]))
		assert.GreaterOrEqual(t, variance[i][0], 0.0)
	}
}
