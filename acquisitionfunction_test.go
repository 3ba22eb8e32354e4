package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquisitionByName(t *testing.T) {
	for _, name := range []string{AcqVarSum, AcqPredMax, AcqProdMax, AcqProbTail, AcqSigmoid} {
		acq, err := AcquisitionByName(name)
		require.NoError(t, err, name)
		require.NotNil(t, acq, name)
	}

	var pre *PreconditionError

	_, err := AcquisitionByName("nope")
	assert.ErrorAs(t, err, &pre)
}

func TestVarianceSum(t *testing.T) {
	u := [][]float64{{0, 0}, {5, -5}}
	v := [][]float64{{1, 2}, {0.5, 0.25}}

	scores := VarianceSum(u, v, AcquisitionParams{})
	assert.Equal(t, []float64{3, 0.75}, scores)
}

func TestPredictiveMax(t *testing.T) {
	u := [][]float64{{1, 2}}
	v := [][]float64{{4, 0}}

	// Task 0: 1 + 3·2 = 7, task 1: 2 + 0 = 2.
	scores := PredictiveMax(u, v, AcquisitionParams{})
	assert.InDelta(t, 7, scores[0], 1e-12)
}

func TestProductMax(t *testing.T) {
	u := [][]float64{{2}}
	v := [][]float64{{4}}
	params := AcquisitionParams{YMean: []float64{1}, ExplorePriority: 3}

	// (2 + 1 + 3/3) · 2 = 8.
	scores := ProductMax(u, v, params)
	assert.InDelta(t, 8, scores[0], 1e-12)

	// A nil YMean is treated as zero.
	scores = ProductMax(u, v, AcquisitionParams{ExplorePriority: 3})
	assert.InDelta(t, 6, scores[0], 1e-12)
}

func TestTailProbability(t *testing.T) {
	params := AcquisitionParams{ExplorePriority: 0}

	// Mean at the threshold: tail mass is exactly one half.
	scores := TailProbability([][]float64{{0}}, [][]float64{{1}}, params)
	assert.InDelta(t, 0.5, scores[0], 1e-12)

	// A mean far above the threshold has tail mass close to one, far below
	// close to zero; scores stay within [0, 1].
	high := TailProbability([][]float64{{10}}, [][]float64{{1}}, params)
	low := TailProbability([][]float64{{-10}}, [][]float64{{1}}, params)

	assert.Greater(t, high[0], 0.999)
	assert.Less(t, low[0], 0.001)

	// Degenerate posterior reduces to a step.
	step := TailProbability([][]float64{{1}, {-1}}, [][]float64{{0}, {0}}, params)
	assert.Equal(t, 1.0, step[0])
	assert.Equal(t, 0.0, step[1])
}

func TestSigmoidMass(t *testing.T) {
	params := AcquisitionParams{ExplorePriority: 0.5}

	// Zero variance means zero enclosed mass.
	zero := SigmoidMass([][]float64{{0.5}}, [][]float64{{0}}, params)
	assert.Equal(t, 0.0, zero[0])

	// Uncertainty centered on the 0.5 boundary encloses more mass than the
	// same uncertainty far from it.
	near := SigmoidMass([][]float64{{0.5}}, [][]float64{{0.25}}, params)
	far := SigmoidMass([][]float64{{5}}, [][]float64{{0.25}}, params)

	assert.Greater(t, near[0], far[0])
	assert.GreaterOrEqual(t, far[0], 0.0)
}

func TestAcquisitionDeterminism(t *testing.T) {
	u := [][]float64{{0.3, -1.2}, {2.5, 0.01}, {-4, 4}}
	v := [][]float64{{0.2, 1.5}, {0.001, 2}, {3, 0.7}}
	params := AcquisitionParams{YMean: []float64{0.5, -0.5}, ExplorePriority: 0.0001}

	for _, name := range []string{AcqVarSum, AcqPredMax, AcqProdMax, AcqProbTail, AcqSigmoid} {
		acq, err := AcquisitionByName(name)
		require.NoError(t, err)

		first := acq(u, v, params)
		second := acq(u, v, params)

		require.Len(t, first, len(u), name)

		for i := range first {
			assert.False(t, math.IsNaN(first[i]), name)
			assert.Equal(t, first[i], second[i], name)
		}
	}
}
