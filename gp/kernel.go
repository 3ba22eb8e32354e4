package gp

import (
	"fmt"
	"math"

	"github.com/thalesfsp/sampler"
)

// covariance evaluates a stationary covariance between two points given an
// amplitude and per-dimension length scales.
type covariance func(amp float64, ls, x1, x2 []float64) float64

// kernel is a composed covariance function: the declarative definition plus
// the compiled evaluator.
type kernel struct {
	def  sampler.KernelDef
	dims int
	cov  covariance
}

// Compose compiles a declarative kernel definition into a covariance
// function. An empty covariance name defaults to Matérn-3/2.
func (p *Provider) Compose(def sampler.KernelDef) (sampler.Kernel, error) {
	dims := len(def.LengthScale.Init)
	if dims == 0 {
		return nil, fmt.Errorf("gp: kernel definition has no length scales")
	}

	if len(def.LengthScale.Min) != dims || len(def.LengthScale.Max) != dims {
		return nil, fmt.Errorf("gp: length scale ranges disagree on dimensionality")
	}

	var cov covariance

	switch def.Covariance {
	case sampler.CovMatern32, "":
		cov = matern32
	case sampler.CovSqExp:
		cov = sqExp
	default:
		return nil, fmt.Errorf("gp: unknown covariance %q", def.Covariance)
	}

	return &kernel{def: def, dims: dims, cov: cov}, nil
}

// unpack splits a flat hyperparameter vector into amplitude, length scales
// and noise, validating the layout against the kernel dimensionality.
func (k *kernel) unpack(hp sampler.Hyperparams) (amp float64, ls []float64, noise float64, err error) {
	if len(hp) != k.dims+2 {
		return 0, nil, 0, fmt.Errorf("gp: want %d hyperparameters, got %d", k.dims+2, len(hp))
	}

	amp = hp[0]
	ls = hp[1 : 1+k.dims]
	noise = hp[len(hp)-1]

	if amp <= 0 || noise < 0 {
		return 0, nil, 0, fmt.Errorf("gp: amplitude must be positive and noise non-negative")
	}

	for _, l := range ls {
		if l <= 0 {
			return 0, nil, 0, fmt.Errorf("gp: length scales must be positive")
		}
	}

	return amp, ls, noise, nil
}

const sqrt3 = 1.7320508075688772

// matern32 is the Matérn-3/2 covariance with per-dimension length scales:
// amp² (1 + √3 r) exp(−√3 r), r the scaled Euclidean distance.
func matern32(amp float64, ls, x1, x2 []float64) float64 {
	r := math.Sqrt(scaledSqDist(ls, x1, x2))

	return amp * amp * (1 + sqrt3*r) * math.Exp(-sqrt3*r)
}

// sqExp is the squared-exponential covariance with per-dimension length
// scales: amp² exp(−r²/2).
func sqExp(amp float64, ls, x1, x2 []float64) float64 {
	return amp * amp * math.Exp(-scaledSqDist(ls, x1, x2)/2)
}

// scaledSqDist is the squared Euclidean distance with each dimension scaled
// by its length scale.
func scaledSqDist(ls, x1, x2 []float64) float64 {
	if len(x1) != len(x2) || len(x1) != len(ls) {
		panic("gp: covariance inputs must share the kernel dimensionality")
	}

	var sum float64

	for i := range x1 {
		d := (x1[i] - x2[i]) / ls[i]

		sum += d * d
	}

	return sum
}
