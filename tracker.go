package sampler

import (
	"github.com/google/uuid"
)

//////
// Sampler contract and shared job-tracking component.
//////

// Sampler picks locations for the next observation and reconciles finished
// observations. Implementations in this package: GaussianProcess (surrogate
// model driven) and Uniform (random only).
//
// Pick returns the chosen location together with an opaque job id. A virtual
// placeholder target is inserted immediately, so further Pick calls account
// for the in-flight measurement. Update consumes the job id exactly once
// with the true observed value.
type Sampler interface {
	Pick() (location []float64, jobID string, err error)
	Update(jobID string, values ...float64) (row int, err error)
}

// Tracker is the bookkeeping component shared by all samplers. It owns three
// lockstep buffers (observed locations, possibly-virtual targets, and a
// per-row virtual flag) plus the mapping from pending job ids to row
// indices.
//
// Invariants:
//   - The three buffers always have equal length; row i in each describes
//     the same observation.
//   - Every pending job id refers to a row whose virtual flag is true.
//   - Rows are never deleted, only resolved.
//
// Tracker performs no internal locking (see the package documentation for
// the concurrency model).
type Tracker struct {
	lower []float64
	upper []float64

	locations *Buffer[float64]
	targets   *Buffer[float64]
	virtual   *Buffer[bool]

	pending map[string]int
}

// NewTracker creates a job tracker over the axis-aligned hyper-rectangle
// [lower, upper]. Fails with ShapeError when the bounds differ in length
// and with PreconditionError when they are empty or inverted.
func NewTracker(lower, upper []float64) (*Tracker, error) {
	if len(lower) != len(upper) {
		return nil, &ShapeError{Want: len(lower), Got: len(upper)}
	}

	if len(lower) == 0 {
		return nil, &PreconditionError{Reason: "bounds must have at least one dimension"}
	}

	for i := range lower {
		if lower[i] > upper[i] {
			return nil, &PreconditionError{Reason: "lower bound exceeds upper bound"}
		}
	}

	return &Tracker{
		lower:     append([]float64(nil), lower...),
		upper:     append([]float64(nil), upper...),
		locations: NewBuffer[float64](),
		targets:   NewBuffer[float64](),
		virtual:   NewBuffer[bool](),
		pending:   map[string]int{},
	}, nil
}

// Dims returns the dimensionality of the parameter space.
func (t *Tracker) Dims() int {
	return len(t.lower)
}

// Lower returns a copy of the lower bounds.
func (t *Tracker) Lower() []float64 {
	return append([]float64(nil), t.lower...)
}

// Upper returns a copy of the upper bounds.
func (t *Tracker) Upper() []float64 {
	return append([]float64(nil), t.upper...)
}

// Len returns the number of recorded observations, real and virtual.
func (t *Tracker) Len() int {
	return t.locations.Len()
}

// PendingCount returns the number of jobs picked but not yet updated.
func (t *Tracker) PendingCount() int {
	return len(t.pending)
}

// Location returns the i-th recorded location.
func (t *Tracker) Location(i int) ([]float64, error) {
	return t.locations.Row(i)
}

// Target returns the i-th recorded target, virtual or real.
func (t *Tracker) Target(i int) ([]float64, error) {
	return t.targets.Row(i)
}

// Virtual reports whether the i-th target is still a virtual placeholder.
func (t *Tracker) Virtual(i int) (bool, error) {
	row, err := t.virtual.Row(i)
	if err != nil {
		return false, err
	}

	return row[0], nil
}

// Assign reserves a row for an in-flight observation: it appends location,
// the virtual placeholder target, and a raised virtual flag, mints a fresh
// job id, and records the pending row.
//
// Assign is the raw bookkeeping operation. Samplers that keep model state
// derived from the buffers (such as GaussianProcess) must be driven through
// their Pick method instead, which wraps Assign and refreshes that state.
//
// Parameters:
// - location: Location in the parameter space, width Dims()
// - virtualTarget: Placeholder target output at that location
//
// Returns:
// - string: The job id identifying the observation
func (t *Tracker) Assign(location, virtualTarget []float64) (string, error) {
	if len(location) != t.Dims() {
		return "", &ShapeError{Want: t.Dims(), Got: len(location)}
	}

	if len(virtualTarget) == 0 {
		return "", &PreconditionError{Reason: "virtual target must have at least one task"}
	}

	// The target buffer enforces the task-width invariant. Check it before
	// touching the location buffer so a failure commits nothing.
	if w := t.targets.Width(); w != 0 && len(virtualTarget) != w {
		return "", &ShapeError{Want: w, Got: len(virtualTarget)}
	}

	n := t.locations.Len()

	if err := t.locations.Append(location); err != nil {
		return "", err
	}

	if err := t.targets.Append(virtualTarget); err != nil {
		return "", err
	}

	if err := t.virtual.Append([]bool{true}); err != nil {
		return "", err
	}

	jobID := uuid.NewString()
	t.pending[jobID] = n

	return jobID, nil
}

// Resolve consumes a job id: it overwrites the placeholder target with the
// true observed value and clears the row's virtual flag. Like Assign, it is
// the raw bookkeeping operation; model-backed samplers must be driven
// through their Update method, which wraps it.
//
// Fails with UnknownJobError when the id is not pending: an id may be
// resolved at most once, so a second resolution fails the same way as a
// never-issued id. Fails with ShapeError when the value width does not
// match the target buffer; in that case the job stays pending and the row
// stays virtual, so the caller can retry.
//
// Returns:
// - int: The buffer row index of the resolved observation
func (t *Tracker) Resolve(jobID string, value []float64) (int, error) {
	ind, ok := t.pending[jobID]
	if !ok {
		return 0, &UnknownJobError{ID: jobID}
	}

	if len(value) != t.targets.Width() {
		return 0, &ShapeError{Want: t.targets.Width(), Got: len(value)}
	}

	delete(t.pending, jobID)

	if err := t.targets.SetRow(ind, value); err != nil {
		return 0, err
	}

	if err := t.virtual.SetRow(ind, []bool{false}); err != nil {
		return 0, err
	}

	return ind, nil
}

// RealData returns the locations and targets of all resolved (non-virtual)
// observations, in insertion order. The returned slices alias the buffer
// rows; treat them as read-only.
func (t *Tracker) RealData() (x [][]float64, y [][]float64) {
	locs := t.locations.Rows()
	targets := t.targets.Rows()
	flags := t.virtual.Rows()

	for i := range flags {
		if flags[i][0] {
			continue
		}

		x = append(x, locs[i])
		y = append(y, targets[i])
	}

	return x, y
}
