package sampler

import (
	"math/rand"
	"time"
)

//////
// Configuration and the regression-provider boundary.
//////

// ProgressUpdate reports one completed pick. Updates are sent best-effort
// on Config.ProgressChan and dropped when the channel is full, so a slow
// consumer never blocks the sampler.
type ProgressUpdate struct {
	// Phase is the pick phase: PhaseColdStart, PhaseBootstrap or PhaseModel.
	Phase string

	// Observations is the number of recorded rows after the pick,
	// real and virtual.
	Observations int

	// Pending is the number of in-flight jobs after the pick.
	Pending int

	// JobID identifies the picked observation.
	JobID string

	// Location is the picked location in the parameter space.
	Location []float64

	// Acquisition is the winning acquisition score. Only meaningful in the
	// model-driven phase; NaN otherwise.
	Acquisition float64
}

// Pick phases reported via ProgressUpdate.
const (
	PhaseColdStart = "cold_start"
	PhaseBootstrap = "bootstrap"
	PhaseModel     = "model"
)

// Range defines the search range and the starting value of a scalar
// hyperparameter.
type Range struct {
	Min  float64
	Max  float64
	Init float64
}

// VectorRange defines per-dimension search ranges and starting values.
type VectorRange struct {
	Min  []float64
	Max  []float64
	Init []float64
}

// Supported covariance families for KernelDef.Covariance.
const (
	// CovMatern32 is the Matérn-3/2 covariance, once differentiable.
	// The default: forgiving on rough spatial fields.
	CovMatern32 = "matern32"

	// CovSqExp is the squared-exponential (RBF) covariance, infinitely
	// smooth.
	CovSqExp = "sqexp"
)

// KernelDef is a declarative specification of the covariance function and
// its hyperparameter search ranges. The core treats it as opaque and hands
// it to the regression provider.
type KernelDef struct {
	// Covariance names the covariance family, e.g. CovMatern32.
	Covariance string

	// Amplitude is the search range of the signal amplitude.
	Amplitude Range

	// LengthScale is the per-dimension search range of the length scales.
	LengthScale VectorRange
}

// DefaultKernelDef returns the default kernel definition for a parameter
// space of the given dimensionality: Matérn-3/2 with amplitude in
// [1e-3, 1e2] starting at 1 and per-dimension length scales in [1e-2, 1e3]
// starting at 1.
func DefaultKernelDef(dims int) KernelDef {
	ones := make([]float64, dims)
	mins := make([]float64, dims)
	maxs := make([]float64, dims)

	for d := 0; d < dims; d++ {
		ones[d] = 1
		mins[d] = 1e-2
		maxs[d] = 1e+3
	}

	return KernelDef{
		Covariance:  CovMatern32,
		Amplitude:   Range{Min: 1e-3, Max: 1e+2, Init: 1},
		LengthScale: VectorRange{Min: mins, Max: maxs, Init: ones},
	}
}

// Hyperparams is one learned hyperparameter vector. Its layout is owned by
// the regression provider; the core only stores and forwards it.
type Hyperparams []float64

// Kernel is an opaque composed covariance function owned by the regression
// provider.
type Kernel any

// Regressor is an opaque fitted regression object owned by the regression
// provider. Regressors are rebuilt whenever targets, their mean, or the
// hyperparameters change; they are never patched incrementally.
type Regressor any

// Predictor is an opaque cached query handle produced by Regression.Query
// and consumed by Mean and Variance.
type Predictor any

// Folds carries one training fold per task: the shared location matrix and
// that task's mean-centered targets.
type Folds struct {
	// X holds, per task, the full location history.
	X [][][]float64

	// Y holds, per task, the mean-centered target column.
	Y [][]float64
}

// OptimizerConfig configures the provider's hyperparameter search.
type OptimizerConfig struct {
	// Noise is the search range of the observation noise.
	Noise Range

	// MaxEvaluations bounds the number of objective evaluations per
	// refinement.
	MaxEvaluations int

	// Restarts is the number of random multistart draws.
	Restarts int

	// Walltime bounds the total search duration.
	Walltime time.Duration

	// Seed seeds the search when non-zero.
	Seed int64
}

// DefaultOptimizerConfig returns the default hyperparameter search
// configuration: noise in [1e-4, 0.5] starting at 0.05, 4 restarts,
// 200 evaluations, 50s walltime.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		Noise:          Range{Min: 1e-4, Max: 0.5, Init: 0.05},
		MaxEvaluations: 200,
		Restarts:       4,
		Walltime:       50 * time.Second,
	}
}

// Regression is the capability set consumed from the external regression
// provider. The gp subpackage ships a reference implementation; any other
// engine satisfying this interface can be plugged in.
//
// Handles returned by one provider (Kernel, Regressor, Predictor) are only
// meaningful to that same provider.
type Regression interface {
	// Compose turns a declarative kernel definition into a covariance
	// function.
	Compose(def KernelDef) (Kernel, error)

	// Condition fits a regressor to locations x and mean-centered targets y.
	Condition(x [][]float64, y []float64, k Kernel, hp Hyperparams) (Regressor, error)

	// Query prepares a cached predictor for the given query points.
	Query(points [][]float64, r Regressor) (Predictor, error)

	// Mean returns the posterior mean at the queried points.
	Mean(r Regressor, q Predictor) []float64

	// Variance returns the posterior variance at the queried points.
	Variance(r Regressor, q Predictor) []float64

	// LearnHyperparams learns one hyperparameter vector shared across all
	// folds.
	LearnHyperparams(folds Folds, k Kernel, cfg OptimizerConfig) (Hyperparams, error)
}

// Config holds all configuration for a GaussianProcess sampler. Zero-valued
// fields fall back to defaults in NewGaussianProcess; Provider is the only
// required field.
//
// Usage example:
//
//	cfg := sampler.DefaultConfig()
//	cfg.Provider = gp.New()
//	cfg.AcquisitionName = sampler.AcqPredMax
//	s, err := sampler.NewGaussianProcess(lower, upper, cfg)
type Config struct {
	// Provider is the external regression engine. Required.
	Provider Regression

	// KernelDef is the covariance specification. Defaults to
	// DefaultKernelDef(dims).
	KernelDef KernelDef

	// Tasks is the number of output dimensions. Defaults to 1 and is fixed
	// for the life of the sampler.
	Tasks int

	// MinTrainingSize is the number of observations (real or virtual)
	// required before model-based picking is attempted. Defaults to 4^dims.
	MinTrainingSize int

	// AcquisitionName selects a member of the acquisition catalogue.
	// Defaults to AcqVarSum.
	AcquisitionName string

	// ExplorePriority weights exploration against exploitation inside the
	// acquisition formulas. Must be non-negative.
	ExplorePriority float64

	// NumCandidates is the number of random candidate points scored per
	// model-driven pick. Defaults to 500.
	NumCandidates int

	// Optimizer configures the provider's hyperparameter search. Defaults
	// to DefaultOptimizerConfig().
	Optimizer OptimizerConfig

	// RandomState is the source of randomness for candidate draws.
	// Defaults to a time-seeded generator. Do not share one RandomState
	// between samplers.
	RandomState *rand.Rand

	// ProgressChan receives best-effort pick updates. If nil, no updates
	// are sent.
	ProgressChan chan<- ProgressUpdate
}

// DefaultConfig returns a default configuration. The caller still has to
// set Provider (and usually RandomState, for reproducibility).
func DefaultConfig() Config {
	return Config{
		Tasks:           1,
		AcquisitionName: AcqVarSum,
		ExplorePriority: 0.0001,
		NumCandidates:   500,
		Optimizer:       DefaultOptimizerConfig(),
		RandomState:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}
