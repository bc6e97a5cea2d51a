// Package cost provides the cost functions a network is trained against.
//
// Every cost has two faces. The network face (Function) scores predictions
// and yields the gradient with respect to the output activations. The
// closed-form face (ClosedForm) evaluates the same cost on a coefficient
// vector against a bound design matrix, for solvers that fit β directly.
package cost

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Function is the cost interface consumed by the network trainer.
type Function interface {
	// Error scores predictions against targets: a mean squared error for
	// regression, an accuracy for classification.
	Error(targets, predictions mat.Matrix) float64

	// OutputGradient returns dC/d(output activations), shaped like predictions.
	OutputGradient(targets, predictions mat.Matrix) *mat.Dense

	// ErrorName labels the value returned by Error in reports.
	ErrorName() string
}

// ClosedForm evaluates the cost directly on a coefficient vector.
// A nil or empty idx selects every stored training row.
type ClosedForm interface {
	C(beta *mat.VecDense, idx []int) float64
	GradC(beta *mat.VecDense, idx []int) *mat.VecDense
	HessC(beta *mat.VecDense) *mat.Dense

	// TestError scores beta on the held-out data.
	TestError(beta *mat.VecDense) float64

	// Permute reorders the stored training rows.
	Permute(rng *rand.Rand)

	// Rows is the number of stored training rows.
	Rows() int
}

// data is the design/target storage shared by both cost families.
type data struct {
	x, xTest *mat.Dense
	y, yTest *mat.VecDense
	reg      float64
}

func newData(xTrain *mat.Dense, yTrain *mat.VecDense, xTest *mat.Dense, yTest *mat.VecDense, reg float64) data {
	if xTrain != nil && yTrain != nil {
		if r, _ := xTrain.Dims(); r != yTrain.Len() {
			panic(fmt.Sprintf("cost: design matrix has %d rows but %d targets", r, yTrain.Len()))
		}
	}
	if xTest != nil && yTest != nil {
		if r, _ := xTest.Dims(); r != yTest.Len() {
			panic(fmt.Sprintf("cost: test design matrix has %d rows but %d targets", r, yTest.Len()))
		}
	}
	return data{x: xTrain, y: yTrain, xTest: xTest, yTest: yTest, reg: reg}
}

func (d *data) Rows() int {
	if d.y == nil {
		return 0
	}
	return d.y.Len()
}

// subset returns the training rows selected by idx, or all of them.
func (d *data) subset(idx []int) (*mat.Dense, *mat.VecDense) {
	if d.x == nil || d.y == nil {
		panic("cost: no training data bound for closed-form evaluation")
	}
	if len(idx) == 0 {
		return d.x, d.y
	}
	_, c := d.x.Dims()
	xs := mat.NewDense(len(idx), c, nil)
	ys := mat.NewVecDense(len(idx), nil)
	for i, k := range idx {
		xs.SetRow(i, d.x.RawRowView(k))
		ys.SetVec(i, d.y.AtVec(k))
	}
	return xs, ys
}

func (d *data) Permute(rng *rand.Rand) {
	n := d.Rows()
	if n == 0 {
		return
	}
	perm := rng.Perm(n)
	xs, ys := d.subset(perm)
	d.x, d.y = xs, ys
}

func (d *data) testData() (*mat.Dense, *mat.VecDense) {
	if d.xTest == nil || d.yTest == nil {
		panic("cost: no held-out data bound")
	}
	return d.xTest, d.yTest
}

// residual returns X·beta - y.
func residual(x *mat.Dense, beta, y *mat.VecDense) *mat.VecDense {
	var r mat.VecDense
	r.MulVec(x, beta)
	r.SubVec(&r, y)
	return &r
}

func checkShapes(name string, targets, predictions mat.Matrix) (int, int) {
	tr, tc := targets.Dims()
	pr, pc := predictions.Dims()
	if tr != pr || tc != pc {
		panic(fmt.Sprintf("%s: targets %dx%d and predictions %dx%d must have same shape", name, tr, tc, pr, pc))
	}
	return pr, pc
}
