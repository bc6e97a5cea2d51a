// Package layer provides the fully connected layer a network is stacked from.
package layer

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/FlavioCFOliveira/backprop/internal/activations"
	"github.com/FlavioCFOliveira/backprop/internal/opt"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrAlreadyInitialized = errors.New("layer already initialized")
	ErrNotInitialized     = errors.New("layer not initialized")
	ErrShape              = errors.New("parameter shape mismatch")
)

// Kind tells where a layer may sit in the stack.
type Kind int

const (
	Hidden Kind = iota
	Output
)

func (k Kind) String() string {
	if k == Output {
		return "Output"
	}
	return "Hidden"
}

// Layer is one affine transform followed by an activation.
//
// Parameters live in a single (size, 1+inputSize) matrix: column 0 holds
// the biases, columns 1..inputSize the weights. Rows of every input and
// output matrix are samples.
type Layer struct {
	kind   Kind
	size   int
	inSize int
	act    activations.Activation

	// activation of the layer feeding this one; Linear for the first layer
	prev activations.Activation

	params *mat.Dense
}

// NewHidden creates a hidden layer of size nodes.
func NewHidden(size int, act activations.Activation) *Layer {
	return newLayer(Hidden, size, act)
}

// NewOutput creates the output layer. Attaching it closes the network.
func NewOutput(size int, act activations.Activation) *Layer {
	return newLayer(Output, size, act)
}

func newLayer(kind Kind, size int, act activations.Activation) *Layer {
	if size <= 0 {
		panic(fmt.Sprintf("layer: size must be positive, got %d", size))
	}
	if act == nil {
		panic("layer: nil activation")
	}
	return &Layer{kind: kind, size: size, act: act}
}

// Init allocates and randomly fills the parameters for inSize inputs.
// Weights are N(0,1)/sqrt(inSize), biases U(-0.1, 0.1).
// prev is the activation applied to this layer's input; nil means identity.
func (l *Layer) Init(inSize int, prev activations.Activation, rng *rand.Rand) error {
	if l.params != nil {
		return ErrAlreadyInitialized
	}
	if inSize <= 0 {
		return fmt.Errorf("%w: input size must be positive, got %d", ErrShape, inSize)
	}
	if prev == nil {
		prev = activations.Linear{}
	}

	params := mat.NewDense(l.size, 1+inSize, nil)
	scale := 1 / math.Sqrt(float64(inSize))
	for o := 0; o < l.size; o++ {
		row := params.RawRowView(o)
		for i := 1; i <= inSize; i++ {
			row[i] = rng.NormFloat64() * scale
		}
	}
	for o := 0; o < l.size; o++ {
		params.Set(o, 0, rng.Float64()*0.2-0.1)
	}

	l.inSize = inSize
	l.prev = prev
	l.params = params
	return nil
}

// Forward computes z = input·Wᵀ + b and a = act(z).
// input may hold one sample or a batch; both results have Size() columns.
func (l *Layer) Forward(input mat.Matrix) (a, z *mat.Dense) {
	l.mustBeInitialized()
	r, c := input.Dims()
	if c != l.inSize {
		panic(fmt.Sprintf("layer: input has %d columns, want %d", c, l.inSize))
	}

	z = mat.NewDense(r, l.size, nil)
	z.Mul(input, l.weights().T())

	bias := l.params.ColView(0)
	for i := 0; i < r; i++ {
		row := z.RawRowView(i)
		for o := range row {
			row[o] += bias.AtVec(o)
		}
	}

	return activations.ApplyMatrix(l.act, z), z
}

// ForwardVec is Forward for a single flat sample.
func (l *Layer) ForwardVec(x []float64) (a, z *mat.Dense) {
	return l.Forward(mat.NewDense(1, len(x), x))
}

// Backward applies one gradient step and returns the error for the previous layer.
//
// aIn and zIn are this layer's input and the previous layer's pre-activation
// (the raw input for the first layer); delta is dC/dz for this layer.
// The weight gradient deltaᵀ·[1|aIn] is averaged over the batch and the
// parameters move by -eta*(grad + lambda*params). The returned error,
// (delta·W) ⊙ prev'(zIn), uses the weights from before the update.
func (l *Layer) Backward(aIn, zIn, delta mat.Matrix, eta, lambda float64) *mat.Dense {
	l.mustBeInitialized()
	batch, dc := delta.Dims()
	if dc != l.size {
		panic(fmt.Sprintf("layer: error has %d columns, want %d", dc, l.size))
	}
	if ar, ac := aIn.Dims(); ar != batch || ac != l.inSize {
		panic(fmt.Sprintf("layer: input is %dx%d, want %dx%d", ar, ac, batch, l.inSize))
	}

	grad := mat.NewDense(l.size, 1+l.inSize, nil)
	inv := 1 / float64(batch)

	for o := 0; o < l.size; o++ {
		var sum float64
		for i := 0; i < batch; i++ {
			sum += delta.At(i, o)
		}
		grad.Set(o, 0, sum*inv)
	}
	weightGrad := grad.Slice(0, l.size, 1, 1+l.inSize).(*mat.Dense)
	weightGrad.Mul(delta.T(), aIn)
	weightGrad.Scale(inv, weightGrad)

	var out mat.Dense
	out.Mul(delta, l.weights())
	out.MulElem(&out, activations.DeriveMatrix(l.prev, zIn))

	opt.SGD{LearningRate: eta, WeightDecay: lambda}.StepMatrix(l.params, grad)

	return &out
}

func (l *Layer) weights() mat.Matrix {
	return l.params.Slice(0, l.size, 1, 1+l.inSize)
}

func (l *Layer) mustBeInitialized() {
	if l.params == nil {
		panic("layer: " + ErrNotInitialized.Error())
	}
}

// Params returns a copy of the (size, 1+inputSize) parameter matrix, or nil
// before Init.
func (l *Layer) Params() *mat.Dense {
	if l.params == nil {
		return nil
	}
	return mat.DenseCopyOf(l.params)
}

// SetParams overwrites the parameters in place.
func (l *Layer) SetParams(p mat.Matrix) error {
	if l.params == nil {
		return ErrNotInitialized
	}
	r, c := p.Dims()
	if r != l.size || c != 1+l.inSize {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrShape, r, c, l.size, 1+l.inSize)
	}
	l.params.Copy(p)
	return nil
}

// Kind returns Hidden or Output.
func (l *Layer) Kind() Kind { return l.kind }

// IsOutput reports whether this is the output layer.
func (l *Layer) IsOutput() bool { return l.kind == Output }

// Size returns the number of nodes.
func (l *Layer) Size() int { return l.size }

// InputSize returns the input width, 0 before Init.
func (l *Layer) InputSize() int { return l.inSize }

// Initialized reports whether Init has run.
func (l *Layer) Initialized() bool { return l.params != nil }

// Activation returns the activation function used by this layer.
func (l *Layer) Activation() activations.Activation { return l.act }

// ParamCount returns the number of trainable values.
func (l *Layer) ParamCount() int { return l.size * (1 + l.inSize) }
