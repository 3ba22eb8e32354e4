package gp

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/thalesfsp/sampler"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// badObjective stands in for the objective value at hyperparameters where
// the covariance cannot be factorized. Finite so Nelder-Mead can still
// contract away from it.
const badObjective = 1e25

// LearnHyperparams learns one hyperparameter vector shared across all
// folds by minimizing the summed negative log marginal likelihood. The
// search runs in log space: multistart random draws inside the declared
// ranges, refined with Nelder-Mead and clamped back to the ranges.
func (p *Provider) LearnHyperparams(folds sampler.Folds, k sampler.Kernel, cfg sampler.OptimizerConfig) (sampler.Hyperparams, error) {
	kk, ok := k.(*kernel)
	if !ok {
		return nil, fmt.Errorf("gp: kernel was not composed by this provider")
	}

	if len(folds.X) == 0 || len(folds.X) != len(folds.Y) {
		return nil, fmt.Errorf("gp: malformed folds: %d location sets, %d target sets", len(folds.X), len(folds.Y))
	}

	for f := range folds.X {
		if len(folds.X[f]) == 0 || len(folds.X[f]) != len(folds.Y[f]) {
			return nil, fmt.Errorf("gp: fold %d has %d locations but %d targets", f, len(folds.X[f]), len(folds.Y[f]))
		}
	}

	cfg = withOptimizerDefaults(cfg)

	lo, hi, init := searchSpace(kk.def, cfg.Noise)

	objective := func(theta []float64) float64 {
		hp, penalty := clampExp(theta, lo, hi)

		var total float64

		for f := range folds.X {
			nll, err := p.negLogMarginal(kk, folds.X[f], folds.Y[f], hp)
			if err != nil {
				return badObjective
			}

			total += nll
		}

		return total + 1e3*penalty
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(seed))

	// Multistart: the declared starting point plus random log-uniform draws.
	best := logs(init)
	bestF := objective(best)

	for restart := 0; restart < cfg.Restarts; restart++ {
		theta := make([]float64, len(init))
		for i := range theta {
			a, b := math.Log(lo[i]), math.Log(hi[i])
			theta[i] = a + rng.Float64()*(b-a)
		}

		if f := objective(theta); f < bestF {
			best, bestF = theta, f
		}
	}

	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{
		FuncEvaluations: cfg.MaxEvaluations,
		Runtime:         cfg.Walltime,
	}

	res, err := optimize.Minimize(problem, best, settings, &optimize.NelderMead{})
	if err == nil && res != nil && res.F < bestF {
		best, bestF = res.X, res.F
	}

	hp, _ := clampExp(best, lo, hi)

	if p.logger != nil {
		p.logger.Debug("gp: hyperparameters learned",
			"nll", bestF,
			"folds", len(folds.X),
			"observations", len(folds.X[0]),
			"hyperparams", []float64(hp),
		)
	}

	return hp, nil
}

// negLogMarginal is the negative log marginal likelihood of one fold:
// ½ yᵀα + ½ log|K| + n/2 log 2π.
func (p *Provider) negLogMarginal(kk *kernel, x [][]float64, y []float64, hp sampler.Hyperparams) (float64, error) {
	reg, err := p.Condition(x, y, kk, hp)
	if err != nil {
		return 0, err
	}

	rr := reg.(*regressor)

	yv := mat.NewVecDense(len(y), append([]float64(nil), y...))
	fit := 0.5 * mat.Dot(yv, rr.alpha)

	return fit + 0.5*rr.chol.LogDet() + 0.5*float64(len(y))*math.Log(2*math.Pi), nil
}

// searchSpace flattens the kernel definition and noise range into the
// hyperparameter layout [amplitude, length scales..., noise], sanitizing
// non-positive bounds so the log-space search stays defined.
func searchSpace(def sampler.KernelDef, noise sampler.Range) (lo, hi, init []float64) {
	dims := len(def.LengthScale.Init)

	lo = make([]float64, 0, dims+2)
	hi = make([]float64, 0, dims+2)
	init = make([]float64, 0, dims+2)

	push := func(r sampler.Range) {
		min, max, start := r.Min, r.Max, r.Init

		if min <= 0 {
			min = 1e-8
		}

		if max < min {
			max = min
		}

		if start < min || start > max {
			start = math.Sqrt(min * max)
		}

		lo = append(lo, min)
		hi = append(hi, max)
		init = append(init, start)
	}

	push(def.Amplitude)

	for d := 0; d < dims; d++ {
		push(sampler.Range{
			Min:  def.LengthScale.Min[d],
			Max:  def.LengthScale.Max[d],
			Init: def.LengthScale.Init[d],
		})
	}

	push(noise)

	return lo, hi, init
}

// clampExp maps a log-space point back to hyperparameters, clamping to the
// ranges and reporting the squared log-distance spent outside them.
func clampExp(theta, lo, hi []float64) (sampler.Hyperparams, float64) {
	hp := make(sampler.Hyperparams, len(theta))

	var penalty float64

	for i := range theta {
		v := math.Exp(theta[i])

		if v < lo[i] {
			d := math.Log(lo[i]) - theta[i]
			penalty += d * d
			v = lo[i]
		}

		if v > hi[i] {
			d := theta[i] - math.Log(hi[i])
			penalty += d * d
			v = hi[i]
		}

		hp[i] = v
	}

	return hp, penalty
}

// logs is the element-wise natural log.
func logs(v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = math.Log(v[i])
	}

	return out
}

// withOptimizerDefaults fills zero-valued search settings.
func withOptimizerDefaults(cfg sampler.OptimizerConfig) sampler.OptimizerConfig {
	def := sampler.DefaultOptimizerConfig()

	if cfg.Noise == (sampler.Range{}) {
		cfg.Noise = def.Noise
	}

	if cfg.MaxEvaluations <= 0 {
		cfg.MaxEvaluations = def.MaxEvaluations
	}

	if cfg.Restarts <= 0 {
		cfg.Restarts = def.Restarts
	}

	if cfg.Walltime <= 0 {
		cfg.Walltime = def.Walltime
	}

	return cfg
}
