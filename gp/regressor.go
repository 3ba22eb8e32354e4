package gp

import (
	"fmt"

	"github.com/thalesfsp/sampler"
	"gonum.org/v1/gonum/mat"
)

// regressor is a Gaussian process conditioned on observed data: the
// Cholesky factor of the noisy covariance matrix and the weight vector
// alpha = K⁻¹ y.
type regressor struct {
	k     *kernel
	amp   float64
	ls    []float64
	noise float64

	x     [][]float64
	chol  mat.Cholesky
	alpha *mat.VecDense
}

// predictor caches the cross-covariance between query points and the
// training locations, plus the prior variance at each query point.
type predictor struct {
	points [][]float64
	cross  *mat.Dense
	prior  []float64
}

// Conditioning retries with escalating diagonal jitter before giving up on
// a covariance matrix that is numerically not positive definite.
var jitters = []float64{0, 1e-10, 1e-8, 1e-6, 1e-4}

// Condition fits a Gaussian process to locations x and mean-centered
// targets y under the given kernel and hyperparameters.
func (p *Provider) Condition(x [][]float64, y []float64, k sampler.Kernel, hp sampler.Hyperparams) (sampler.Regressor, error) {
	kk, ok := k.(*kernel)
	if !ok {
		return nil, fmt.Errorf("gp: kernel was not composed by this provider")
	}

	if len(x) == 0 {
		return nil, fmt.Errorf("gp: cannot condition on zero observations")
	}

	if len(y) != len(x) {
		return nil, fmt.Errorf("gp: %d locations but %d targets", len(x), len(y))
	}

	amp, ls, noise, err := kk.unpack(hp)
	if err != nil {
		return nil, err
	}

	for _, row := range x {
		if len(row) != kk.dims {
			return nil, fmt.Errorf("gp: location width %d does not match kernel dimensionality %d", len(row), kk.dims)
		}
	}

	n := len(x)

	r := &regressor{k: kk, amp: amp, ls: ls, noise: noise, x: x}

	var factorized bool

	for _, jitter := range jitters {
		cov := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := 0; j <= i; j++ {
				v := kk.cov(amp, ls, x[i], x[j])
				if i == j {
					v += noise*noise + jitter
				}

				cov.SetSym(i, j, v)
			}
		}

		if r.chol.Factorize(cov) {
			factorized = true

			break
		}
	}

	if !factorized {
		return nil, fmt.Errorf("gp: covariance matrix is not positive definite")
	}

	r.alpha = mat.NewVecDense(n, nil)
	if err := r.chol.SolveVecTo(r.alpha, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		return nil, fmt.Errorf("gp: solving for regression weights: %w", err)
	}

	return r, nil
}

// Query prepares a cached predictor for the given query points.
func (p *Provider) Query(points [][]float64, r sampler.Regressor) (sampler.Predictor, error) {
	rr, ok := r.(*regressor)
	if !ok {
		return nil, fmt.Errorf("gp: regressor was not conditioned by this provider")
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("gp: no query points")
	}

	for _, q := range points {
		if len(q) != rr.k.dims {
			return nil, fmt.Errorf("gp: query width %d does not match kernel dimensionality %d", len(q), rr.k.dims)
		}
	}

	n := len(rr.x)

	cross := mat.NewDense(len(points), n, nil)
	prior := make([]float64, len(points))

	for i, q := range points {
		for j, xj := range rr.x {
			cross.Set(i, j, rr.k.cov(rr.amp, rr.ls, q, xj))
		}

		prior[i] = rr.k.cov(rr.amp, rr.ls, q, q)
	}

	return &predictor{points: points, cross: cross, prior: prior}, nil
}

// Mean returns the posterior mean at the queried points.
func (p *Provider) Mean(r sampler.Regressor, q sampler.Predictor) []float64 {
	rr, qq := p.handles(r, q)

	n := len(qq.points)

	mean := mat.NewVecDense(n, nil)
	mean.MulVec(qq.cross, rr.alpha)

	out := make([]float64, n)
	copy(out, mean.RawVector().Data)

	return out
}

// Variance returns the posterior variance of the latent function at the
// queried points, clamped at zero against Cholesky round-off.
func (p *Provider) Variance(r sampler.Regressor, q sampler.Predictor) []float64 {
	rr, qq := p.handles(r, q)

	n := len(rr.x)
	out := make([]float64, len(qq.points))

	kq := mat.NewVecDense(n, nil)
	w := mat.NewVecDense(n, nil)

	for i := range qq.points {
		for j := 0; j < n; j++ {
			kq.SetVec(j, qq.cross.At(i, j))
		}

		if err := rr.chol.SolveVecTo(w, kq); err != nil {
			panic(fmt.Sprintf("gp: factorized covariance failed to solve: %v", err))
		}

		v := qq.prior[i] - mat.Dot(kq, w)
		if v < 0 {
			v = 0
		}

		out[i] = v
	}

	return out
}

// handles unwraps opaque regressor/predictor handles. Foreign handles are a
// programming error and panic.
func (p *Provider) handles(r sampler.Regressor, q sampler.Predictor) (*regressor, *predictor) {
	rr, ok := r.(*regressor)
	if !ok {
		panic("gp: regressor was not conditioned by this provider")
	}

	qq, ok := q.(*predictor)
	if !ok {
		panic("gp: predictor was not produced by this provider")
	}

	return rr, qq
}
