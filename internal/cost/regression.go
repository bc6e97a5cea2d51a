package cost

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LinearRegression is the mean-squared-error cost.
// The zero value is ready for network training; the closed-form methods
// need the data given to NewLinearRegression.
type LinearRegression struct {
	data
}

// NewLinearRegression binds training and held-out data and an L2
// regularisation coefficient for the closed-form methods.
func NewLinearRegression(xTrain *mat.Dense, yTrain *mat.VecDense, xTest *mat.Dense, yTest *mat.VecDense, reg float64) *LinearRegression {
	return &LinearRegression{data: newData(xTrain, yTrain, xTest, yTest, reg)}
}

// Error computes mean squared error: (1/size) * sum((t - p)^2)
func (l *LinearRegression) Error(targets, predictions mat.Matrix) float64 {
	r, c := checkShapes("LinearRegression", targets, predictions)

	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			diff := targets.At(i, j) - predictions.At(i, j)
			sum += diff * diff
		}
	}
	return sum / float64(r*c)
}

// OutputGradient computes (2/N) * (p - t), N being the number of rows.
func (l *LinearRegression) OutputGradient(targets, predictions mat.Matrix) *mat.Dense {
	r, _ := checkShapes("LinearRegression", targets, predictions)

	var grad mat.Dense
	grad.Sub(predictions, targets)
	grad.Scale(2/float64(r), &grad)
	return &grad
}

func (l *LinearRegression) ErrorName() string { return "Error" }

// C computes mean((X·beta - y)^2) + reg*||beta||
func (l *LinearRegression) C(beta *mat.VecDense, idx []int) float64 {
	x, y := l.subset(idx)
	res := residual(x, beta, y)
	d := res.RawVector().Data
	return floats.Dot(d, d)/float64(len(d)) + l.reg*mat.Norm(beta, 2)
}

// GradC computes (2/n) * Xᵀ(X·beta - y) + reg*beta
func (l *LinearRegression) GradC(beta *mat.VecDense, idx []int) *mat.VecDense {
	x, y := l.subset(idx)
	res := residual(x, beta, y)

	var grad mat.VecDense
	grad.MulVec(x.T(), res)
	grad.ScaleVec(2/float64(y.Len()), &grad)
	grad.AddScaledVec(&grad, l.reg, beta)
	return &grad
}

// HessC computes (2/n) * XᵀX, which does not depend on beta.
func (l *LinearRegression) HessC(beta *mat.VecDense) *mat.Dense {
	x, y := l.subset(nil)

	var h mat.Dense
	h.Mul(x.T(), x)
	h.Scale(2/float64(y.Len()), &h)
	return &h
}

// TestError computes the held-out mean squared error of beta.
func (l *LinearRegression) TestError(beta *mat.VecDense) float64 {
	x, y := l.testData()
	d := residual(x, beta, y).RawVector().Data
	if len(d) == 0 {
		return math.NaN()
	}
	return floats.Dot(d, d) / float64(len(d))
}
