package cost

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is the cross-entropy cost with a logistic link.
// Its Error is an accuracy, so higher is better.
type LogisticRegression struct {
	data
}

// NewLogisticRegression binds training and held-out data and an L2
// regularisation coefficient for the closed-form methods. Targets are 0/1.
func NewLogisticRegression(xTrain *mat.Dense, yTrain *mat.VecDense, xTest *mat.Dense, yTest *mat.VecDense, reg float64) *LogisticRegression {
	return &LogisticRegression{data: newData(xTrain, yTrain, xTest, yTest, reg)}
}

// Error is the fraction of entries where round(p) == round(t).
// Halves round to even.
func (l *LogisticRegression) Error(targets, predictions mat.Matrix) float64 {
	r, c := checkShapes("LogisticRegression", targets, predictions)

	hits := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.RoundToEven(predictions.At(i, j)) == math.RoundToEven(targets.At(i, j)) {
				hits++
			}
		}
	}
	return float64(hits) / float64(r*c)
}

// OutputGradient computes -(t - p)/N, N being the number of rows.
func (l *LogisticRegression) OutputGradient(targets, predictions mat.Matrix) *mat.Dense {
	r, _ := checkShapes("LogisticRegression", targets, predictions)

	var grad mat.Dense
	grad.Sub(predictions, targets)
	grad.Scale(1/float64(r), &grad)
	return &grad
}

func (l *LogisticRegression) ErrorName() string { return "Accuracy" }

// C computes the mean binary cross-entropy of sigmoid(X·beta) plus reg*||beta||.
func (l *LogisticRegression) C(beta *mat.VecDense, idx []int) float64 {
	x, y := l.subset(idx)

	var z mat.VecDense
	z.MulVec(x, beta)

	var sum float64
	for i := 0; i < z.Len(); i++ {
		zi, yi := z.AtVec(i), y.AtVec(i)
		sum -= yi*logSigmoid(zi) + (1-yi)*logSigmoid(-zi)
	}
	return sum/float64(z.Len()) + l.reg*mat.Norm(beta, 2)
}

// GradC computes -Xᵀ(y - sigmoid(X·beta))/n + reg*beta
func (l *LogisticRegression) GradC(beta *mat.VecDense, idx []int) *mat.VecDense {
	x, y := l.subset(idx)

	p := probabilities(x, beta)
	p.SubVec(p, y)

	var grad mat.VecDense
	grad.MulVec(x.T(), p)
	grad.ScaleVec(1/float64(y.Len()), &grad)
	grad.AddScaledVec(&grad, l.reg, beta)
	return &grad
}

// HessC computes XᵀWX/n with W = diag(p(1-p)).
func (l *LogisticRegression) HessC(beta *mat.VecDense) *mat.Dense {
	x, y := l.subset(nil)
	p := probabilities(x, beta)

	r, c := x.Dims()
	wx := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		pi := p.AtVec(i)
		w := pi * (1 - pi)
		row := wx.RawRowView(i)
		for j, v := range x.RawRowView(i) {
			row[j] = w * v
		}
	}

	var h mat.Dense
	h.Mul(x.T(), wx)
	h.Scale(1/float64(y.Len()), &h)
	return &h
}

// TestError is the held-out accuracy of round(sigmoid(X·beta)).
func (l *LogisticRegression) TestError(beta *mat.VecDense) float64 {
	x, y := l.testData()
	p := probabilities(x, beta)

	hits := 0
	for i := 0; i < y.Len(); i++ {
		if math.RoundToEven(p.AtVec(i)) == y.AtVec(i) {
			hits++
		}
	}
	return float64(hits) / float64(y.Len())
}

func probabilities(x *mat.Dense, beta *mat.VecDense) *mat.VecDense {
	var p mat.VecDense
	p.MulVec(x, beta)
	for i := 0; i < p.Len(); i++ {
		p.SetVec(i, sigmoid(p.AtVec(i)))
	}
	return &p
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// logSigmoid computes log(sigmoid(z)) without overflow.
func logSigmoid(z float64) float64 {
	if z >= 0 {
		return -math.Log1p(math.Exp(-z))
	}
	return z - math.Log1p(math.Exp(z))
}
