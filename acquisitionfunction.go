package sampler

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Acquisition function catalogue.
//
// Each function reduces a predictive mean matrix u and variance matrix v
// (both candidates × tasks) to one score per candidate. Higher scores mark
// more desirable sampling locations. All functions are pure and
// deterministic given (u, v, params).
//////

// AcquisitionParams carries the context an acquisition function may need
// beyond the predictive matrices.
type AcquisitionParams struct {
	// YMean is the per-task mean of all recorded targets. May be nil,
	// in which case it is treated as zero.
	YMean []float64

	// ExplorePriority weights exploration against exploitation. Must be
	// non-negative.
	ExplorePriority float64
}

// AcquisitionFunc scores candidate locations from their predictive mean and
// variance matrices (candidates × tasks), returning one score per
// candidate.
type AcquisitionFunc func(mean, variance [][]float64, params AcquisitionParams) []float64

// Names of the built-in acquisition functions, for Config.AcquisitionName.
const (
	// AcqVarSum sums the predictive variance across tasks. Pure
	// exploration.
	AcqVarSum = "var_sum"

	// AcqPredMax takes the max across tasks of mean + 3·stddev, an upper
	// confidence bound.
	AcqPredMax = "pred_max"

	// AcqProdMax takes the max across tasks of
	// (mean + y_mean + priority/3) · stddev.
	AcqProdMax = "prod_max"

	// AcqProbTail takes the max across tasks of the probability of
	// exceeding the priority threshold under N(mean, variance).
	AcqProbTail = "prob_tail"

	// AcqSigmoid sums across tasks the logistic CDF mass between
	// mean ± stddev, centered at 0.5 with scale priority.
	AcqSigmoid = "sigmoid"
)

// AcquisitionByName looks up a catalogue member. Fails with
// PreconditionError for an unknown name.
func AcquisitionByName(name string) (AcquisitionFunc, error) {
	switch name {
	case AcqVarSum:
		return VarianceSum, nil
	case AcqPredMax:
		return PredictiveMax, nil
	case AcqProdMax:
		return ProductMax, nil
	case AcqProbTail:
		return TailProbability, nil
	case AcqSigmoid:
		return SigmoidMass, nil
	default:
		return nil, &PreconditionError{Reason: "unknown acquisition function " + name}
	}
}

// VarianceSum scores each candidate with the sum of its predictive variance
// across tasks. It ignores the mean entirely: pure exploration.
func VarianceSum(_, variance [][]float64, _ AcquisitionParams) []float64 {
	scores := make([]float64, len(variance))
	for i, row := range variance {
		var sum float64
		for _, v := range row {
			sum += v
		}

		scores[i] = sum
	}

	return scores
}

// PredictiveMax scores each candidate with the max across tasks of
// mean + 3·stddev: an upper-confidence-bound blend of exploitation and
// exploration.
func PredictiveMax(mean, variance [][]float64, _ AcquisitionParams) []float64 {
	scores := make([]float64, len(mean))
	for i := range mean {
		best := math.Inf(-1)
		for j := range mean[i] {
			if s := mean[i][j] + 3*stddev(variance[i][j]); s > best {
				best = s
			}
		}

		scores[i] = best
	}

	return scores
}

// ProductMax scores each candidate with the max across tasks of
// (mean + y_mean + priority/3) · stddev.
func ProductMax(mean, variance [][]float64, params AcquisitionParams) []float64 {
	scores := make([]float64, len(mean))
	for i := range mean {
		best := math.Inf(-1)
		for j := range mean[i] {
			offset := params.ExplorePriority / 3.0
			if params.YMean != nil {
				offset += params.YMean[j]
			}

			if s := (mean[i][j] + offset) * stddev(variance[i][j]); s > best {
				best = s
			}
		}

		scores[i] = best
	}

	return scores
}

// TailProbability scores each candidate with the max across tasks of the
// probability of exceeding the priority threshold under N(mean, variance).
func TailProbability(mean, variance [][]float64, params AcquisitionParams) []float64 {
	scores := make([]float64, len(mean))
	for i := range mean {
		best := math.Inf(-1)
		for j := range mean[i] {
			var p float64

			sigma := stddev(variance[i][j])
			if sigma == 0 {
				// Degenerate posterior: the tail mass is a step.
				if mean[i][j] > params.ExplorePriority {
					p = 1
				}
			} else {
				p = distuv.Normal{Mu: mean[i][j], Sigma: sigma}.Survival(params.ExplorePriority)
			}

			if p > best {
				best = p
			}
		}

		scores[i] = best
	}

	return scores
}

// SigmoidMass scores each candidate with the sum across tasks of the
// absolute logistic CDF mass between mean − stddev and mean + stddev,
// centered at 0.5 with scale priority. Rewards uncertainty near the 0.5
// decision boundary.
func SigmoidMass(mean, variance [][]float64, params AcquisitionParams) []float64 {
	scores := make([]float64, len(mean))
	for i := range mean {
		var sum float64
		for j := range mean[i] {
			sigma := stddev(variance[i][j])
			sum += math.Abs(logisticCDF(mean[i][j]+sigma, params.ExplorePriority) -
				logisticCDF(mean[i][j]-sigma, params.ExplorePriority))
		}

		scores[i] = sum
	}

	return scores
}

// logisticCDF evaluates the logistic CDF centered at 0.5. A zero scale
// degenerates to a step function.
func logisticCDF(x, scale float64) float64 {
	if scale <= 0 {
		switch {
		case x > 0.5:
			return 1
		case x < 0.5:
			return 0
		default:
			return 0.5
		}
	}

	return distuv.Logistic{Mu: 0.5, S: scale}.CDF(x)
}

// stddev is the standard deviation of a predictive variance, clamping the
// tiny negative values Cholesky round-off can produce.
func stddev(variance float64) float64 {
	if variance <= 0 {
		return 0
	}

	return math.Sqrt(variance)
}
