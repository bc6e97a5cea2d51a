// Package activations provides elementwise activation functions and their
// derivatives, evaluated on scalars or on whole gonum matrices.
package activations

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x) at the pre-activation value x
	Derivative(x float64) float64

	// Name identifies the variant in summaries and checkpoints
	Name() string
}

// RowActivation is implemented by activations that couple the entries of a
// sample (one matrix row) instead of acting on each entry alone.
type RowActivation interface {
	Activation
	ActivateRow(dst, src []float64)
	DerivativeRow(dst, src []float64)
}

// Default leak coefficients.
const (
	DefaultELUAlpha       = 5e-3
	DefaultLeakyReLUAlpha = 0.01
)

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (r ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if x > 0, else 0
func (r ReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

func (r ReLU) Name() string { return "ReLU" }

// Sigmoid activation function.
type Sigmoid struct{}

// sigmoid is evaluated so that exp never receives a large positive argument.
func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// Activate computes sigmoid(x)
func (s Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (s Sigmoid) Derivative(x float64) float64 {
	sigma := sigmoid(x)
	return sigma * (1 - sigma)
}

func (s Sigmoid) Name() string { return "Sigmoid" }

// ELU activation function with a small leak on the negative side.
type ELU struct {
	Alpha float64
}

// NewELU creates an ELU with the given alpha value.
func NewELU(alpha float64) *ELU {
	return &ELU{Alpha: alpha}
}

// Activate computes x if x >= 0, else alpha*(exp(x)-1)
func (e *ELU) Activate(x float64) float64 {
	if x >= 0 {
		return x
	}
	return e.Alpha * (math.Exp(x) - 1)
}

// Derivative returns 1 if x >= 0, else alpha*exp(x)
func (e *ELU) Derivative(x float64) float64 {
	if x >= 0 {
		return 1
	}
	return e.Alpha * math.Exp(x)
}

func (e *ELU) Name() string { return "ELU" }

// LeakyReLU activation function to prevent dying neurons.
type LeakyReLU struct {
	Alpha float64 // Slope for x <= 0
}

// NewLeakyReLU creates a LeakyReLU with the given alpha value.
func NewLeakyReLU(alpha float64) *LeakyReLU {
	return &LeakyReLU{Alpha: alpha}
}

// Activate computes x if x > 0, else alpha*x
func (l *LeakyReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return l.Alpha * x
}

// Derivative returns 1 if x > 0, else alpha
func (l *LeakyReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return l.Alpha
}

func (l *LeakyReLU) Name() string { return "LeakyReLU" }

// Linear is the identity activation.
type Linear struct{}

func (Linear) Activate(x float64) float64   { return x }
func (Linear) Derivative(x float64) float64 { return 1 }
func (Linear) Name() string                 { return "Linear" }

// Tanh activation function.
type Tanh struct{}

// Activate computes tanh(x)
func (t Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

// Derivative computes 1 - tanh(x)^2
func (t Tanh) Derivative(x float64) float64 {
	tanhX := math.Tanh(x)
	return 1 - tanhX*tanhX
}

func (t Tanh) Name() string { return "Tanh" }

// Softmax normalises each sample into a probability distribution.
// Its derivative is the diagonal of the Jacobian, s*(1-s).
type Softmax struct{}

// Activate treats x as a one-element sample, which always maps to 1.
func (s Softmax) Activate(x float64) float64 {
	return 1
}

// Derivative of a one-element softmax is 0.
func (s Softmax) Derivative(x float64) float64 {
	return 0
}

func (s Softmax) Name() string { return "Softmax" }

// ActivateRow writes softmax(src) to dst.
func (s Softmax) ActivateRow(dst, src []float64) {
	// Find max for numerical stability
	maxVal := src[0]
	for _, v := range src[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	sum := 0.0
	for i, v := range src {
		dst[i] = math.Exp(v - maxVal)
		sum += dst[i]
	}
	for i := range dst {
		dst[i] /= sum
	}
}

// DerivativeRow writes s*(1-s) to dst where s = softmax(src).
func (s Softmax) DerivativeRow(dst, src []float64) {
	s.ActivateRow(dst, src)
	for i, v := range dst {
		dst[i] = v * (1 - v)
	}
}

// ApplyMatrix returns act applied to every entry of m (or every row, for a
// RowActivation). The result has the shape of m.
func ApplyMatrix(act Activation, m mat.Matrix) *mat.Dense {
	return mapMatrix(act, m, false)
}

// DeriveMatrix returns the derivative of act evaluated at every entry of m.
func DeriveMatrix(act Activation, m mat.Matrix) *mat.Dense {
	return mapMatrix(act, m, true)
}

func mapMatrix(act Activation, m mat.Matrix, derivative bool) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)

	if ra, ok := act.(RowActivation); ok {
		src := make([]float64, c)
		for i := 0; i < r; i++ {
			mat.Row(src, i, m)
			dst := out.RawRowView(i)
			if derivative {
				ra.DerivativeRow(dst, src)
			} else {
				ra.ActivateRow(dst, src)
			}
		}
		return out
	}

	f := act.Activate
	if derivative {
		f = act.Derivative
	}
	out.Apply(func(_, _ int, v float64) float64 { return f(v) }, m)
	return out
}

// Lookup rebuilds an activation from its Name. alpha is used by the
// parameterised variants and ignored otherwise.
func Lookup(name string, alpha float64) (Activation, error) {
	switch name {
	case "Sigmoid":
		return Sigmoid{}, nil
	case "ELU":
		return NewELU(alpha), nil
	case "ReLU":
		return ReLU{}, nil
	case "LeakyReLU":
		return NewLeakyReLU(alpha), nil
	case "Linear":
		return Linear{}, nil
	case "Tanh":
		return Tanh{}, nil
	case "Softmax":
		return Softmax{}, nil
	default:
		return nil, fmt.Errorf("unknown activation: %q", name)
	}
}

// Alpha returns the leak coefficient of parameterised variants, or 0.
func Alpha(act Activation) float64 {
	switch a := act.(type) {
	case *ELU:
		return a.Alpha
	case *LeakyReLU:
		return a.Alpha
	default:
		return 0
	}
}
