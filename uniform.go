package sampler

import (
	"math/rand"
	"time"
)

// Uniform is the random-only sampler variant: every pick is an independent
// uniform draw from the hyper-rectangle and no model is ever consulted. It
// shares the job-tracking behavior of the model-driven samplers, so
// in-flight observations are still represented as virtual rows.
//
// Useful as a baseline strategy and for collecting unbiased seed data.
type Uniform struct {
	*Tracker

	nTasks int
	rng    *rand.Rand
}

// NewUniform creates a random-only sampler over [lower, upper] with the
// given number of output tasks. A tasks value < 1 defaults to 1; a nil rng
// falls back to a time-seeded generator.
func NewUniform(lower, upper []float64, tasks int, rng *rand.Rand) (*Uniform, error) {
	tracker, err := NewTracker(lower, upper)
	if err != nil {
		return nil, err
	}

	if tasks < 1 {
		tasks = 1
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Uniform{Tracker: tracker, nTasks: tasks, rng: rng}, nil
}

// Pick draws a uniform random location and reserves a row for it. The
// virtual placeholder is the running mean of all recorded targets, or a
// zero vector before any target exists.
func (s *Uniform) Pick() ([]float64, string, error) {
	pts, err := RandomSample(s.rng, s.lower, s.upper, 1)
	if err != nil {
		return nil, "", err
	}

	jobID, err := s.Assign(pts[0], s.placeholder())
	if err != nil {
		return nil, "", err
	}

	return pts[0], jobID, nil
}

// Update resolves a pending job with its observed value. See
// Tracker.Resolve for the failure modes.
func (s *Uniform) Update(jobID string, values ...float64) (int, error) {
	if len(values) != s.nTasks {
		return 0, &ShapeError{Want: s.nTasks, Got: len(values)}
	}

	return s.Resolve(jobID, values)
}

// placeholder is the running target mean, or zeros before any target
// exists.
func (s *Uniform) placeholder() []float64 {
	n := s.targets.Len()
	if n == 0 {
		return make([]float64, s.nTasks)
	}

	mean := make([]float64, s.targets.Width())
	for _, row := range s.targets.Rows() {
		for j, v := range row {
			mean[j] += v
		}
	}

	for j := range mean {
		mean[j] /= float64(n)
	}

	return mean
}
