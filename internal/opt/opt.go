// Package opt provides the plain gradient-descent update rule shared by the
// network layers and the coefficient-vector solvers.
package opt

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SGD (Stochastic Gradient Descent) with an optional L2 weight-decay term.
type SGD struct {
	LearningRate float64
	WeightDecay  float64 // regularisation λ, added to the gradient as λ*params
}

// StepInPlace updates params in-place: params -= lr * (gradients + decay*params)
func (s SGD) StepInPlace(params, gradients []float64) {
	if len(params) != len(gradients) {
		panic(fmt.Sprintf("opt: params and gradients differ in length (%d != %d)", len(params), len(gradients)))
	}
	for i := range params {
		params[i] -= s.LearningRate * (gradients[i] + s.WeightDecay*params[i])
	}
}

// StepMatrix applies StepInPlace to a dense parameter matrix of the same
// shape as grad.
func (s SGD) StepMatrix(params *mat.Dense, grad mat.Matrix) {
	pr, pc := params.Dims()
	gr, gc := grad.Dims()
	if pr != gr || pc != gc {
		panic(fmt.Sprintf("opt: params %dx%d and gradient %dx%d differ in shape", pr, pc, gr, gc))
	}
	for i := 0; i < pr; i++ {
		row := params.RawRowView(i)
		for j := range row {
			row[j] -= s.LearningRate * (grad.At(i, j) + s.WeightDecay*row[j])
		}
	}
}
