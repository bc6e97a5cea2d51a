// Package descent fits a coefficient vector directly against the
// closed-form face of a cost function, by full-batch gradient descent,
// minibatch stochastic gradient descent or Newton's method.
package descent

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/FlavioCFOliveira/backprop/internal/cost"
	"github.com/FlavioCFOliveira/backprop/internal/opt"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNoData is returned when the cost has no training rows bound.
	ErrNoData = errors.New("descent: cost has no training data")

	// ErrOptions is returned for unusable Options.
	ErrOptions = errors.New("descent: invalid options")
)

// Options configures a descent run.
type Options struct {
	// Epochs is the number of full passes (GD and Newton: iterations).
	Epochs int

	// Schedule yields the step size; nil means a constant 0.1.
	Schedule opt.Scheduler

	// MinibatchSize is the rows per stochastic step. SGD only.
	MinibatchSize int

	// Tolerance stops early once the full gradient norm falls below it.
	// Zero disables the check.
	Tolerance float64
}

// Result is the outcome of a descent run.
type Result struct {
	Beta *mat.VecDense

	// Epochs actually run.
	Epochs int

	// Costs holds the full training cost after every epoch.
	Costs []float64

	// BatchMeans holds, for SGD, the mean minibatch cost of every epoch.
	BatchMeans []float64
}

func (o Options) rate(step int) float64 {
	if o.Schedule == nil {
		return 0.1
	}
	return o.Schedule.Rate(step)
}

func prepare(c cost.ClosedForm, beta0 *mat.VecDense, o Options) (*mat.VecDense, error) {
	if c.Rows() == 0 {
		return nil, ErrNoData
	}
	if beta0 == nil || beta0.Len() == 0 {
		return nil, fmt.Errorf("%w: empty starting coefficients", ErrOptions)
	}
	if o.Epochs < 0 {
		return nil, fmt.Errorf("%w: epochs must not be negative, got %d", ErrOptions, o.Epochs)
	}
	return mat.VecDenseCopyOf(beta0), nil
}

func converged(c cost.ClosedForm, beta *mat.VecDense, tol float64) bool {
	return tol > 0 && mat.Norm(c.GradC(beta, nil), 2) < tol
}

// GD runs full-batch gradient descent from beta0.
func GD(c cost.ClosedForm, beta0 *mat.VecDense, o Options) (*Result, error) {
	beta, err := prepare(c, beta0, o)
	if err != nil {
		return nil, err
	}

	res := &Result{Beta: beta}
	params := beta.RawVector().Data
	for epoch := 0; epoch < o.Epochs; epoch++ {
		grad := c.GradC(beta, nil)
		opt.SGD{LearningRate: o.rate(epoch)}.StepInPlace(params, grad.RawVector().Data)

		res.Epochs++
		res.Costs = append(res.Costs, c.C(beta, nil))
		if converged(c, beta, o.Tolerance) {
			break
		}
	}
	return res, nil
}

// SGD runs minibatch stochastic gradient descent from beta0.
//
// Each epoch permutes the rows bound to c and takes Rows/MinibatchSize
// steps, each on a minibatch whose start is drawn uniformly from the
// minibatch boundaries, so minibatches may repeat within an epoch.
// The schedule is indexed by the global step count.
func SGD(c cost.ClosedForm, beta0 *mat.VecDense, o Options, rng *rand.Rand) (*Result, error) {
	beta, err := prepare(c, beta0, o)
	if err != nil {
		return nil, err
	}
	if o.MinibatchSize <= 0 {
		return nil, fmt.Errorf("%w: minibatch size must be positive, got %d", ErrOptions, o.MinibatchSize)
	}
	count := c.Rows() / o.MinibatchSize
	if count == 0 {
		return nil, fmt.Errorf("%w: minibatch size %d exceeds %d rows", ErrOptions, o.MinibatchSize, c.Rows())
	}

	res := &Result{Beta: beta}
	params := beta.RawVector().Data
	idx := make([]int, o.MinibatchSize)
	batchCosts := make([]float64, count)
	step := 0
	for epoch := 0; epoch < o.Epochs; epoch++ {
		c.Permute(rng)

		for b := 0; b < count; b++ {
			start := o.MinibatchSize * int(rng.Float64()*float64(count))
			for i := range idx {
				idx[i] = start + i
			}

			grad := c.GradC(beta, idx)
			opt.SGD{LearningRate: o.rate(step)}.StepInPlace(params, grad.RawVector().Data)
			batchCosts[b] = c.C(beta, idx)
			step++
		}

		res.Epochs++
		res.Costs = append(res.Costs, c.C(beta, nil))
		res.BatchMeans = append(res.BatchMeans, stat.Mean(batchCosts, nil))
		if converged(c, beta, o.Tolerance) {
			break
		}
	}
	return res, nil
}

// Newton runs Newton's method from beta0: beta -= HessC⁻¹ · GradC.
// The schedule, when set, damps each step.
func Newton(c cost.ClosedForm, beta0 *mat.VecDense, o Options) (*Result, error) {
	beta, err := prepare(c, beta0, o)
	if err != nil {
		return nil, err
	}

	res := &Result{Beta: beta}
	params := beta.RawVector().Data
	for epoch := 0; epoch < o.Epochs; epoch++ {
		grad := c.GradC(beta, nil)
		hess := c.HessC(beta)

		var dir mat.VecDense
		if err := dir.SolveVec(hess, grad); err != nil {
			return res, fmt.Errorf("failed to solve Newton step at epoch %d: %w", epoch, err)
		}

		rate := 1.0
		if o.Schedule != nil {
			rate = o.Schedule.Rate(epoch)
		}
		opt.SGD{LearningRate: rate}.StepInPlace(params, dir.RawVector().Data)

		res.Epochs++
		res.Costs = append(res.Costs, c.C(beta, nil))
		if converged(c, beta, o.Tolerance) {
			break
		}
	}
	return res, nil
}
