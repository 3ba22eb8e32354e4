// Package gp is the reference regression provider for the sampler package:
// Gaussian-process regression with Matérn-3/2 or squared-exponential
// covariances, exact Cholesky conditioning, and marginal-likelihood
// hyperparameter learning. It implements sampler.Regression.
//
// Hyperparameter vectors use the layout [amplitude, length scales..., noise].
package gp

import (
	"log/slog"

	"github.com/thalesfsp/sampler"
)

// Provider implements sampler.Regression. The zero value is not usable;
// create one with New.
//
// Handles returned by a Provider (kernels, regressors, predictors) are only
// meaningful to the gp package; passing a foreign handle back in panics, as
// that is a programming error rather than a data error.
type Provider struct {
	logger *slog.Logger
}

// Option customizes a Provider.
type Option func(*Provider)

// WithLogger attaches a structured logger; training emits Debug-level
// diagnostics through it.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New creates a regression provider.
func New(opts ...Option) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Compile-time capability check.
var _ sampler.Regression = (*Provider)(nil)
