// Package model provides the feed-forward network: an ordered stack of
// layers, the forward and backward passes across it and the training loops.
package model

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/FlavioCFOliveira/backprop/internal/activations"
	"github.com/FlavioCFOliveira/backprop/internal/cost"
	"github.com/FlavioCFOliveira/backprop/internal/layer"
	"gonum.org/v1/gonum/mat"
)

// Model is a feed-forward network.
//
// Layers are appended in evaluation order; appending the output layer makes
// the model ready and closes it to further layers. A single seeded random
// generator drives weight initialisation and every permutation and sample
// drawn while training, so a fixed seed and call sequence reproduce a run
// exactly. A Model is not safe for concurrent use.
type Model struct {
	inputSize int
	layers    []*layer.Layer
	cost      cost.Function
	rng       *rand.Rand
	ready     bool

	callbacks []Callback
	out       io.Writer
}

// New creates an empty model taking inputSize features per sample.
func New(inputSize int, costFn cost.Function, seed int64) *Model {
	if inputSize <= 0 {
		panic(fmt.Sprintf("model: input size must be positive, got %d", inputSize))
	}
	if costFn == nil {
		panic("model: nil cost function")
	}
	return &Model{
		inputSize: inputSize,
		cost:      costFn,
		rng:       rand.New(rand.NewSource(seed)),
		out:       os.Stdout,
	}
}

// AddLayer initialises l for the current output width and appends it.
func (m *Model) AddLayer(l *layer.Layer) error {
	if m.ready {
		return fmt.Errorf("%w: cannot add a layer after the output layer", ErrConfiguration)
	}
	if l.Initialized() {
		return fmt.Errorf("%w: layer already belongs to a network", ErrConfiguration)
	}

	inSize := m.inputSize
	var prev activations.Activation = activations.Linear{}
	if n := len(m.layers); n > 0 {
		inSize = m.layers[n-1].Size()
		prev = m.layers[n-1].Activation()
	}
	if err := l.Init(inSize, prev, m.rng); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	m.layers = append(m.layers, l)
	if l.IsOutput() {
		m.ready = true
	}
	return nil
}

// Ready reports whether the output layer has been added.
func (m *Model) Ready() bool { return m.ready }

// InputSize returns the number of features per sample.
func (m *Model) InputSize() int { return m.inputSize }

// OutputSize returns the width of the last layer, 0 if there is none.
func (m *Model) OutputSize() int {
	if len(m.layers) == 0 {
		return 0
	}
	return m.layers[len(m.layers)-1].Size()
}

// Layers returns the layers in evaluation order.
func (m *Model) Layers() []*layer.Layer {
	return append([]*layer.Layer(nil), m.layers...)
}

// Cost returns the cost function the model trains against.
func (m *Model) Cost() cost.Function { return m.cost }

// SetOutput redirects verbose training output. nil discards it.
func (m *Model) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	m.out = w
}

// AddCallback registers a training callback.
func (m *Model) AddCallback(cb Callback) {
	m.callbacks = append(m.callbacks, cb)
}

func (m *Model) checkInput(x mat.Matrix) error {
	if !m.ready {
		return fmt.Errorf("%w: network has no output layer", ErrConfiguration)
	}
	r, c := x.Dims()
	if r == 0 {
		return fmt.Errorf("%w: input has no rows", ErrShapeMismatch)
	}
	if c != m.inputSize {
		return fmt.Errorf("%w: cannot feed input of size (%d, %d) into network with input size %d", ErrShapeMismatch, r, c, m.inputSize)
	}
	return nil
}

func (m *Model) checkTargets(x, y mat.Matrix) error {
	if err := m.checkInput(x); err != nil {
		return err
	}
	xr, _ := x.Dims()
	yr, yc := y.Dims()
	if yc != m.OutputSize() {
		return fmt.Errorf("%w: targets have %d columns, output layer has %d", ErrShapeMismatch, yc, m.OutputSize())
	}
	if xr != yr {
		return fmt.Errorf("%w: %d input rows but %d target rows", ErrShapeMismatch, xr, yr)
	}
	return nil
}

// FeedForward evaluates the network on x, one sample per row.
func (m *Model) FeedForward(x mat.Matrix) (*mat.Dense, error) {
	if err := m.checkInput(x); err != nil {
		return nil, err
	}
	return m.predict(x), nil
}

// FeedForwardVec evaluates the network on a single flat sample.
func (m *Model) FeedForwardVec(x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrShapeMismatch)
	}
	out, err := m.FeedForward(mat.NewDense(1, len(x), x))
	if err != nil {
		return nil, err
	}
	return mat.Row(nil, 0, out), nil
}

// FeedForwardTrace evaluates the network and returns every layer's
// post-activation (a) and pre-activation (z) output. Index 0 of both holds
// x itself; index i holds the output of layer i-1.
func (m *Model) FeedForwardTrace(x mat.Matrix) (a, z []*mat.Dense, err error) {
	if err := m.checkInput(x); err != nil {
		return nil, nil, err
	}
	a, z = m.trace(x)
	return a, z, nil
}

func (m *Model) predict(x mat.Matrix) *mat.Dense {
	curr := x
	var a *mat.Dense
	for _, l := range m.layers {
		a, _ = l.Forward(curr)
		curr = a
	}
	return a
}

func (m *Model) trace(x mat.Matrix) (a, z []*mat.Dense) {
	in := mat.DenseCopyOf(x)
	a = make([]*mat.Dense, 0, len(m.layers)+1)
	z = make([]*mat.Dense, 0, len(m.layers)+1)
	a = append(a, in)
	z = append(z, in)

	curr := in
	for _, l := range m.layers {
		act, pre := l.Forward(curr)
		a = append(a, act)
		z = append(z, pre)
		curr = act
	}
	return a, z
}

// Error scores the network's predictions on x against y with the cost function.
func (m *Model) Error(x, y mat.Matrix) (float64, error) {
	if err := m.checkTargets(x, y); err != nil {
		return 0, err
	}
	return m.cost.Error(y, m.predict(x)), nil
}

// BackProp runs one gradient step per row of x, in row order.
//
// For each row the network is traced forward, the output error
// dC/da ⊙ f'(z) is formed from the cost function, and every layer from last
// to first updates its parameters and hands its error to the layer before.
// All shape checks run before any parameter changes.
func (m *Model) BackProp(x, y *mat.Dense, learningRate, regularization float64) error {
	if err := m.checkTargets(x, y); err != nil {
		return err
	}
	m.backProp(x, y, learningRate, regularization)
	return nil
}

func (m *Model) backProp(x, y *mat.Dense, eta, lambda float64) {
	rows, xc := x.Dims()
	_, yc := y.Dims()
	last := len(m.layers)
	out := m.layers[last-1]

	for i := 0; i < rows; i++ {
		a, z := m.trace(x.Slice(i, i+1, 0, xc))
		target := y.Slice(i, i+1, 0, yc)

		delta := m.cost.OutputGradient(target, a[last])
		delta.MulElem(delta, activations.DeriveMatrix(out.Activation(), z[last]))

		for j := last - 1; j >= 0; j-- {
			delta = m.layers[j].Backward(a[j], z[j], delta, eta, lambda)
		}
	}
}

// Summary prints a summary of the network architecture.
func (m *Model) Summary(w io.Writer) {
	fmt.Fprintln(w, "Model: Feed-forward")
	fmt.Fprintln(w, "_________________________________________________________________")
	fmt.Fprintf(w, "%-25s %-20s %-10s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(w, "=================================================================")

	total := 0
	for i, l := range m.layers {
		name := fmt.Sprintf("%s_%d (%s)", l.Kind(), i, l.Activation().Name())
		total += l.ParamCount()
		fmt.Fprintf(w, "%-25s %-20s %-10d\n", name, fmt.Sprintf("(%d)", l.Size()), l.ParamCount())
	}
	fmt.Fprintln(w, "=================================================================")
	fmt.Fprintf(w, "Input size: %d\n", m.inputSize)
	fmt.Fprintf(w, "Total params: %d\n", total)
	fmt.Fprintln(w, "_________________________________________________________________")
}
