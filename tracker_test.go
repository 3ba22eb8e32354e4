package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackerValidation(t *testing.T) {
	var shape *ShapeError

	_, err := NewTracker([]float64{0, 0}, []float64{1})
	assert.ErrorAs(t, err, &shape)

	var pre *PreconditionError

	_, err = NewTracker(nil, nil)
	assert.ErrorAs(t, err, &pre)

	_, err = NewTracker([]float64{2}, []float64{1})
	assert.ErrorAs(t, err, &pre)
}

func TestAssignResolveRoundTrip(t *testing.T) {
	tr, err := NewTracker([]float64{0}, []float64{1})
	require.NoError(t, err)

	jobID, err := tr.Assign([]float64{0.5}, []float64{0})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, 1, tr.PendingCount())

	virtual, err := tr.Virtual(0)
	require.NoError(t, err)
	assert.True(t, virtual)

	ind, err := tr.Resolve(jobID, []float64{3.5})
	require.NoError(t, err)
	assert.Equal(t, 0, ind)
	assert.Equal(t, 0, tr.PendingCount())

	target, err := tr.Target(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{3.5}, target)

	virtual, err = tr.Virtual(0)
	require.NoError(t, err)
	assert.False(t, virtual)
}

func TestAssignRejectsEmptyVirtualTarget(t *testing.T) {
	tr, err := NewTracker([]float64{0}, []float64{1})
	require.NoError(t, err)

	var pre *PreconditionError

	_, err = tr.Assign([]float64{0.5}, nil)
	require.ErrorAs(t, err, &pre)

	// Nothing was committed.
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 0, tr.PendingCount())
}

func TestResolveConsumedExactlyOnce(t *testing.T) {
	tr, err := NewTracker([]float64{0}, []float64{1})
	require.NoError(t, err)

	jobID, err := tr.Assign([]float64{0.5}, []float64{0})
	require.NoError(t, err)

	_, err = tr.Resolve(jobID, []float64{1})
	require.NoError(t, err)

	// A second resolution fails exactly like a never-issued id.
	var unknown *UnknownJobError

	_, err = tr.Resolve(jobID, []float64{2})
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, jobID, unknown.ID)

	_, err = tr.Resolve("never-issued", []float64{2})
	assert.ErrorAs(t, err, &unknown)
}

func TestResolveShapeFailureLeavesJobPending(t *testing.T) {
	tr, err := NewTracker([]float64{0}, []float64{1})
	require.NoError(t, err)

	jobID, err := tr.Assign([]float64{0.5}, []float64{0, 0})
	require.NoError(t, err)

	var shape *ShapeError

	_, err = tr.Resolve(jobID, []float64{1})
	require.ErrorAs(t, err, &shape)

	// The job survives the failed resolution and its row stays virtual.
	assert.Equal(t, 1, tr.PendingCount())

	virtual, err := tr.Virtual(0)
	require.NoError(t, err)
	assert.True(t, virtual)

	// A retry with the right width succeeds.
	_, err = tr.Resolve(jobID, []float64{1, 2})
	assert.NoError(t, err)
}

func TestAssignKeepsBuffersLockstep(t *testing.T) {
	tr, err := NewTracker([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)

	ids := make([]string, 0, 10)

	for i := 0; i < 10; i++ {
		jobID, err := tr.Assign([]float64{0.1, 0.2}, []float64{0})
		require.NoError(t, err)

		ids = append(ids, jobID)

		assert.Equal(t, i+1, tr.locations.Len())
		assert.Equal(t, i+1, tr.targets.Len())
		assert.Equal(t, i+1, tr.virtual.Len())
	}

	// Updates for different job ids can interleave in any order.
	for i := len(ids) - 1; i >= 0; i-- {
		ind, err := tr.Resolve(ids[i], []float64{float64(i)})
		require.NoError(t, err)
		assert.Equal(t, i, ind)
	}

	assert.Equal(t, 0, tr.PendingCount())
}

func TestRealDataFiltersVirtualRows(t *testing.T) {
	tr, err := NewTracker([]float64{0}, []float64{1})
	require.NoError(t, err)

	first, err := tr.Assign([]float64{0.1}, []float64{0})
	require.NoError(t, err)

	_, err = tr.Assign([]float64{0.2}, []float64{0})
	require.NoError(t, err)

	third, err := tr.Assign([]float64{0.3}, []float64{0})
	require.NoError(t, err)

	_, err = tr.Resolve(first, []float64{10})
	require.NoError(t, err)

	_, err = tr.Resolve(third, []float64{30})
	require.NoError(t, err)

	x, y := tr.RealData()
	require.Len(t, x, 2)
	assert.Equal(t, []float64{0.1}, x[0])
	assert.Equal(t, []float64{0.3}, x[1])
	assert.Equal(t, []float64{10}, y[0])
	assert.Equal(t, []float64{30}, y[1])
}
