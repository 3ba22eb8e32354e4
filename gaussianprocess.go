package sampler

import (
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
)

//////
// Gaussian-process driven sampler.
//////

// GaussianProcess is the model-driven sampler: it orchestrates the
// pick/train/update cycle over a Gaussian-process surrogate consumed
// through the Regression boundary.
//
// Behaviorally, Pick moves through three phases driven purely by the
// current observation count:
//
//  1. Cold-start, while fewer than MinTrainingSize rows exist: return a
//     uniformly random point, no model touched.
//  2. Bootstrap, up to 2^dims + 1 rows: return the next hyper-rectangle
//     corner, then the centroid.
//  3. Model-driven: train (when forced or untrained), draw candidate
//     points, score them with the configured acquisition function, and
//     take the stable arg-max.
//
// Every pick inserts a virtual placeholder target so that further picks
// account for the in-flight measurement: the predicted posterior mean at the
// picked location in the model-driven phase, the running target mean (or a
// zero vector) before a model exists. Update later replaces the placeholder
// with the observed value and rebuilds the per-task regressors.
//
// Drive a GaussianProcess through Pick and Update only. The embedded
// Tracker's raw Assign and Resolve do not refresh the target mean or the
// regressors and will leave the model stale.
//
// A GaussianProcess performs no internal locking: Pick and Update are
// atomic with respect to the internal buffers only in the single-writer
// sense. Callers needing concurrency must serialize access externally.
type GaussianProcess struct {
	*Tracker

	provider Regression
	kdef     KernelDef

	nTasks      int
	minTraining int
	acqName     string
	acq         AcquisitionFunc
	explore     float64
	candidates  int
	opt         OptimizerConfig

	// hyperparams holds one hyperparameter set per task. Training learns a
	// single shared vector and broadcasts it. Nil until the first training.
	hyperparams []Hyperparams

	// regressors holds one fitted regressor per task, rebuilt whenever
	// targets, yMean or hyperparams change. Nil until the first training.
	regressors []Regressor

	// yMean is the per-task mean over all recorded targets, real and
	// virtual. Nil until at least one target exists.
	yMean []float64

	rng      *rand.Rand
	progress chan<- ProgressUpdate
}

// Compile-time capability checks.
var (
	_ Sampler = (*GaussianProcess)(nil)
	_ Sampler = (*Uniform)(nil)
)

// NewGaussianProcess creates a Gaussian-process sampler over the
// hyper-rectangle [lower, upper].
//
// Zero-valued Config fields fall back to defaults: Tasks 1,
// MinTrainingSize 4^dims, AcquisitionName var_sum, NumCandidates 500,
// KernelDef DefaultKernelDef(dims), Optimizer DefaultOptimizerConfig(),
// RandomState time-seeded. Config.Provider is required.
func NewGaussianProcess(lower, upper []float64, cfg Config) (*GaussianProcess, error) {
	if cfg.Provider == nil {
		return nil, &PreconditionError{Reason: "a regression provider is required"}
	}

	if cfg.ExplorePriority < 0 {
		return nil, &PreconditionError{Reason: "explore priority must be non-negative"}
	}

	tracker, err := NewTracker(lower, upper)
	if err != nil {
		return nil, err
	}

	dims := tracker.Dims()

	s := &GaussianProcess{
		Tracker:     tracker,
		provider:    cfg.Provider,
		kdef:        cfg.KernelDef,
		nTasks:      cfg.Tasks,
		minTraining: cfg.MinTrainingSize,
		acqName:     cfg.AcquisitionName,
		explore:     cfg.ExplorePriority,
		candidates:  cfg.NumCandidates,
		opt:         cfg.Optimizer,
		rng:         cfg.RandomState,
		progress:    cfg.ProgressChan,
	}

	if s.nTasks <= 0 {
		s.nTasks = 1
	}

	if s.minTraining <= 0 {
		s.minTraining = pow(4, dims)
	}

	if s.acqName == "" {
		s.acqName = AcqVarSum
	}

	if s.candidates <= 0 {
		s.candidates = 500
	}

	if s.kdef.Covariance == "" {
		s.kdef = DefaultKernelDef(dims)
	}

	if s.opt == (OptimizerConfig{}) {
		s.opt = DefaultOptimizerConfig()
	}

	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s.acq, err = AcquisitionByName(s.acqName)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Pick picks the next location using the configured candidate budget and
// without forcing retraining. See PickWith.
func (s *GaussianProcess) Pick() ([]float64, string, error) {
	return s.PickWith(s.candidates, false)
}

// PickWith picks the next location in the parameter space and reserves a
// row for it with a virtual placeholder target.
//
// Parameters:
// - nCandidates: Random candidate points scored in the model-driven phase;
//   values < 1 fall back to the configured budget
// - forceTrain: Retrain the model before picking even if regressors exist
//
// Returns:
// - []float64: The picked location
// - string: The job id to pass to Update once the measurement is in
func (s *GaussianProcess) PickWith(nCandidates int, forceTrain bool) ([]float64, string, error) {
	if nCandidates < 1 {
		nCandidates = s.candidates
	}

	// Keep the mean consistent with what the model is about to be trained
	// on: virtual placeholders deliberately bias it.
	s.updateYMean()

	n := s.Len()
	corners := 1 << s.Dims()

	var (
		xq     []float64
		target []float64
		phase  string
		acq    = math.NaN()
		err    error
	)

	switch {
	case n < s.minTraining:
		// Not enough samples yet: sample randomly for more.
		phase = PhaseColdStart

		var pts [][]float64

		pts, err = RandomSample(s.rng, s.lower, s.upper, 1)
		if err == nil {
			xq = pts[0]
		}

	case n < corners+1:
		// Bootstrap with the regular corner/centroid pattern.
		phase = PhaseBootstrap

		xq, err = GridSample(s.lower, s.upper, n)

	default:
		phase = PhaseModel

		xq, target, acq, err = s.pickModel(nCandidates, forceTrain)
	}

	if err != nil {
		return nil, "", err
	}

	// The model-driven phase reserves the row with the posterior mean at the
	// picked location, so in-flight rows carry what the model expects to
	// observe there. The model-free phases fall back to the target mean.
	if target == nil {
		target = s.placeholder()
	}

	jobID, err := s.Assign(xq, target)
	if err != nil {
		return nil, "", err
	}

	s.notify(phase, jobID, xq, acq)

	return xq, jobID, nil
}

// pickModel runs the model-driven phase: conditional training, candidate
// scoring, stable arg-max. It returns the winning candidate, the predicted
// posterior mean at it (the virtual target for the reserved row), and the
// winning acquisition score.
func (s *GaussianProcess) pickModel(nCandidates int, forceTrain bool) ([]float64, []float64, float64, error) {
	if forceTrain || s.regressors == nil {
		if err := s.Train(); err != nil {
			return nil, nil, 0, err
		}
	}

	cands, err := RandomSample(s.rng, s.lower, s.upper, nCandidates)
	if err != nil {
		return nil, nil, 0, err
	}

	mean, variance, err := s.predictWith(s.regressors, cands)
	if err != nil {
		return nil, nil, 0, err
	}

	scores := s.acq(mean, variance, AcquisitionParams{
		YMean:           s.yMean,
		ExplorePriority: s.explore,
	})

	// Ties break by first occurrence of the candidate draw.
	best := 0
	for i, score := range scores {
		if score > scores[best] {
			best = i
		}
	}

	return cands[best], mean[best], scores[best], nil
}

// Update resolves a pending job with its observed value, then refreshes the
// target mean and rebuilds all per-task regressors against the updated
// buffers. Regressors are fully refit on every update; incremental
// conditioning is a known extension point.
//
// A scalar observation is passed as a single variadic value; the full task
// vector as Update(id, v1, v2, ...). Fails with ShapeError when the number
// of values does not match the task count and with UnknownJobError when the
// id is not pending (including a second resolution of the same id). A
// failed update leaves the row virtual so the caller can retry.
//
// Returns:
// - int: The buffer row index of the resolved observation
func (s *GaussianProcess) Update(jobID string, values ...float64) (int, error) {
	if len(values) != s.nTasks {
		return 0, &ShapeError{Want: s.nTasks, Got: len(values)}
	}

	ind, err := s.Resolve(jobID, values)
	if err != nil {
		return 0, err
	}

	s.updateYMean()

	// The resolution itself is already committed; a conditioning failure
	// reports the row it applies to.
	if err := s.updateRegressors(); err != nil {
		return ind, err
	}

	return ind, nil
}

// Train learns the kernel hyperparameters from all data collected so far
// and rebuilds the regressors. One fold per task is built from the full
// location buffer and that task's mean-centered targets; a single
// hyperparameter vector is learned and shared across tasks.
func (s *GaussianProcess) Train() error {
	s.updateYMean()

	if s.yMean == nil {
		return &PreconditionError{Reason: "no observations to train on"}
	}

	kernel, err := s.provider.Compose(s.kdef)
	if err != nil {
		return err
	}

	x := s.locations.Rows()

	folds := Folds{}
	for j := 0; j < s.nTasks; j++ {
		folds.X = append(folds.X, x)
		folds.Y = append(folds.Y, s.centeredColumn(j))
	}

	hp, err := s.provider.LearnHyperparams(folds, kernel, s.opt)
	if err != nil {
		return err
	}

	// The same hyperparameters serve every task.
	shared := make([]Hyperparams, s.nTasks)
	for j := range shared {
		shared[j] = hp
	}

	s.hyperparams = shared

	return s.updateRegressors()
}

// Predict infers the posterior mean and variance at the query points from
// the data collected so far.
//
// Parameters:
// - points: Query locations, each of width Dims()
// - realOnly: Condition transient regressors on resolved observations only,
//   instead of reusing the fitted regressors that include virtual targets
//
// Returns:
// - [][]float64: Mean matrix (points × tasks), offset by the target mean
// - [][]float64: Variance matrix (points × tasks)
//
// Fails with ErrNotTrained when hyperparameters have never been learned.
func (s *GaussianProcess) Predict(points [][]float64, realOnly bool) ([][]float64, [][]float64, error) {
	if s.hyperparams == nil {
		return nil, nil, ErrNotTrained
	}

	regs := s.regressors

	if realOnly {
		x, y := s.RealData()
		if len(x) == 0 {
			return nil, nil, &PreconditionError{Reason: "no resolved observations to predict from"}
		}

		kernel, err := s.provider.Compose(s.kdef)
		if err != nil {
			return nil, nil, err
		}

		regs = make([]Regressor, s.nTasks)

		var g errgroup.Group
		for j := 0; j < s.nTasks; j++ {
			j := j
			g.Go(func() error {
				centered := make([]float64, len(y))
				for i := range y {
					centered[i] = y[i][j] - s.yMean[j]
				}

				r, err := s.provider.Condition(x, centered, kernel, s.hyperparams[j])
				if err != nil {
					return err
				}

				regs[j] = r

				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	return s.predictWith(regs, points)
}

// predictWith queries each task's regressor at the given points and
// re-offsets the means by the target mean.
func (s *GaussianProcess) predictWith(regs []Regressor, points [][]float64) ([][]float64, [][]float64, error) {
	// Hyperparameters can be installed before any data exists, in which case
	// nothing has been conditioned yet and a query must fail rather than
	// return empty matrices.
	if len(regs) != s.nTasks {
		return nil, nil, &PreconditionError{Reason: "no conditioned regressors; record an observation first"}
	}

	if len(points) == 0 {
		return nil, nil, &PreconditionError{Reason: "no query points"}
	}

	for _, p := range points {
		if len(p) != s.Dims() {
			return nil, nil, &ShapeError{Want: s.Dims(), Got: len(p)}
		}
	}

	mean := make([][]float64, len(points))
	variance := make([][]float64, len(points))

	for i := range points {
		mean[i] = make([]float64, s.nTasks)
		variance[i] = make([]float64, s.nTasks)
	}

	for j, r := range regs {
		q, err := s.provider.Query(points, r)
		if err != nil {
			return nil, nil, err
		}

		mj := s.provider.Mean(r, q)
		vj := s.provider.Variance(r, q)

		for i := range points {
			mean[i][j] = mj[i] + s.yMean[j]
			variance[i][j] = vj[i]
		}
	}

	return mean, variance, nil
}

// updateRegressors rebuilds the per-task regressors from the current
// buffers. A no-op before the first training.
func (s *GaussianProcess) updateRegressors() error {
	if s.hyperparams == nil || s.Len() == 0 {
		return nil
	}

	kernel, err := s.provider.Compose(s.kdef)
	if err != nil {
		return err
	}

	x := s.locations.Rows()
	regs := make([]Regressor, s.nTasks)

	var g errgroup.Group
	for j := 0; j < s.nTasks; j++ {
		j := j
		g.Go(func() error {
			r, err := s.provider.Condition(x, s.centeredColumn(j), kernel, s.hyperparams[j])
			if err != nil {
				return err
			}

			regs[j] = r

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	s.regressors = regs

	return nil
}

// updateYMean recomputes the per-task target mean over all recorded rows,
// real and virtual.
func (s *GaussianProcess) updateYMean() {
	n := s.targets.Len()
	if n == 0 {
		s.yMean = nil

		return
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

	s.yMean = mean
}

// centeredColumn returns task j's target column minus its mean.
func (s *GaussianProcess) centeredColumn(j int) []float64 {
	col, err := s.targets.Column(j)
	if err != nil {
		// The task count is fixed at construction; an out-of-range task is
		// a bug in this package, not caller input.
		panic(err)
	}

	for i := range col {
		col[i] -= s.yMean[j]
	}

	return col
}

// placeholder returns the virtual target for the model-free pick phases: the
// current target mean, or an explicit zero vector before any target exists.
// The zero vector is never treated as a real observation because its row
// stays flagged virtual.
func (s *GaussianProcess) placeholder() []float64 {
	if s.yMean != nil {
		return append([]float64(nil), s.yMean...)
	}

	return make([]float64, s.nTasks)
}

// notify sends a best-effort progress update, dropping it when the channel
// is full.
func (s *GaussianProcess) notify(phase, jobID string, location []float64, acq float64) {
	if s.progress == nil {
		return
	}

	update := ProgressUpdate{
		Phase:        phase,
		Observations: s.Len(),
		Pending:      s.PendingCount(),
		JobID:        jobID,
		Location:     location,
		Acquisition:  acq,
	}

	select {
	case s.progress <- update:
	default:
		// Skip update if channel is full.
	}
}

//////
// Configuration accessors.
//////

// KernelDef returns the current kernel definition.
func (s *GaussianProcess) KernelDef() KernelDef {
	return s.kdef
}

// SetKernelDef replaces the kernel definition. Takes effect at the next
// training.
func (s *GaussianProcess) SetKernelDef(def KernelDef) error {
	if def.Covariance == "" {
		return &PreconditionError{Reason: "kernel definition has no covariance"}
	}

	s.kdef = def

	return nil
}

// Hyperparams returns the per-task hyperparameter sets, or nil before the
// first training.
func (s *GaussianProcess) Hyperparams() []Hyperparams {
	return s.hyperparams
}

// SetHyperparams installs hyperparameters and rebuilds the regressors.
// A single set is broadcast to all tasks; otherwise exactly one set per
// task must be given.
func (s *GaussianProcess) SetHyperparams(hp ...Hyperparams) error {
	switch len(hp) {
	case 1:
		shared := make([]Hyperparams, s.nTasks)
		for j := range shared {
			shared[j] = hp[0]
		}

		s.hyperparams = shared

	case s.nTasks:
		s.hyperparams = append([]Hyperparams(nil), hp...)

	default:
		return &ShapeError{Want: s.nTasks, Got: len(hp)}
	}

	s.updateYMean()

	return s.updateRegressors()
}

// AcquisitionName returns the name of the configured acquisition function.
func (s *GaussianProcess) AcquisitionName() string {
	return s.acqName
}

// SetAcquisitionName switches the acquisition function. Fails with
// PreconditionError for a name outside the catalogue.
func (s *GaussianProcess) SetAcquisitionName(name string) error {
	acq, err := AcquisitionByName(name)
	if err != nil {
		return err
	}

	s.acqName = name
	s.acq = acq

	return nil
}

// ExplorePriority returns the exploration weight.
func (s *GaussianProcess) ExplorePriority() float64 {
	return s.explore
}

// SetExplorePriority sets the exploration weight. Must be non-negative.
func (s *GaussianProcess) SetExplorePriority(priority float64) error {
	if priority < 0 {
		return &PreconditionError{Reason: "explore priority must be non-negative"}
	}

	s.explore = priority

	return nil
}

// MinTrainingSize returns the observation count required before
// model-based picking.
func (s *GaussianProcess) MinTrainingSize() int {
	return s.minTraining
}

// SetMinTrainingSize sets the observation count required before
// model-based picking.
func (s *GaussianProcess) SetMinTrainingSize(n int) error {
	if n < 1 {
		return &PreconditionError{Reason: "minimum training size must be positive"}
	}

	s.minTraining = n

	return nil
}

// Tasks returns the number of output dimensions.
func (s *GaussianProcess) Tasks() int {
	return s.nTasks
}

// YMean returns a copy of the per-task target mean, or nil before any
// target exists.
func (s *GaussianProcess) YMean() []float64 {
	if s.yMean == nil {
		return nil
	}

	return append([]float64(nil), s.yMean...)
}

// pow is integer exponentiation for the 4^dims default.
func pow(base, exp int) int {
	out := 1
	for i := 0; i < exp; i++ {
		out *= base
	}

	return out
}
