package sampler

import (
	"math/rand"

	"golang.org/x/exp/constraints"
)

//////
// Stateless sampling strategies.
//////

// RandomSample draws n points uniformly from the axis-aligned
// hyper-rectangle [lower, upper]: one independent uniform draw per
// dimension, affine-scaled into the bounds. Fully reentrant as long as the
// caller owns rng.
//
// Type Parameter:
//   - T: The floating-point type of the bounds
//
// Parameters:
// - rng: Source of randomness; must not be nil
// - lower: Lower bounds for the parameter space
// - upper: Upper bounds for the parameter space
// - n: Number of points to draw
//
// Returns:
// - [][]T: n points of width len(lower)
func RandomSample[T constraints.Float](rng *rand.Rand, lower, upper []T, n int) ([][]T, error) {
	if len(lower) != len(upper) {
		return nil, &ShapeError{Want: len(lower), Got: len(upper)}
	}

	if n < 1 {
		return nil, &PreconditionError{Reason: "sample count must be positive"}
	}

	points := make([][]T, n)
	for i := range points {
		p := make([]T, len(lower))
		for d := range p {
			p[d] = lower[d] + T(rng.Float64())*(upper[d]-lower[d])
		}

		points[i] = p
	}

	return points, nil
}

// GridSample deterministically enumerates the corners of the
// hyper-rectangle [lower, upper] followed by its centroid. For
// index < 2^dims, bit d of index selects lower[d] or upper[d]; for
// index == 2^dims it returns the centroid.
//
// The function is only valid for the bootstrap phase of exactly
// 2^dims + 1 calls; any other index fails with PreconditionError.
func GridSample[T constraints.Float](lower, upper []T, index int) ([]T, error) {
	if len(lower) != len(upper) {
		return nil, &ShapeError{Want: len(lower), Got: len(upper)}
	}

	dims := len(lower)
	corners := 1 << dims

	switch {
	case index >= 0 && index < corners:
		p := make([]T, dims)
		for d := range p {
			if index&(1<<d) != 0 {
				p[d] = upper[d]
			} else {
				p[d] = lower[d]
			}
		}

		return p, nil

	case index == corners:
		p := make([]T, dims)
		for d := range p {
			p[d] = lower[d] + (upper[d]-lower[d])/2
		}

		return p, nil

	default:
		return nil, &PreconditionError{Reason: "grid sample index outside the bootstrap range"}
	}
}
