package layer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/FlavioCFOliveira/backprop/internal/activations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newInitialized(t *testing.T, size, in int, act, prev activations.Activation) *Layer {
	t.Helper()
	l := NewHidden(size, act)
	require.NoError(t, l.Init(in, prev, rand.New(rand.NewSource(1))))
	return l
}

// TestForwardWidth checks the output width for single rows and batches.
func TestForwardWidth(t *testing.T) {
	shapes := []struct {
		in, size, rows int
	}{
		{1, 1, 1},
		{2, 3, 1},
		{4, 2, 5},
		{8, 16, 3},
	}

	for _, s := range shapes {
		l := newInitialized(t, s.size, s.in, activations.Sigmoid{}, nil)

		a, z := l.Forward(mat.NewDense(s.rows, s.in, nil))
		r, c := a.Dims()
		assert.Equal(t, s.rows, r)
		assert.Equal(t, s.size, c)
		r, c = z.Dims()
		assert.Equal(t, s.rows, r)
		assert.Equal(t, s.size, c)

		a, _ = l.ForwardVec(make([]float64, s.in))
		r, c = a.Dims()
		assert.Equal(t, 1, r)
		assert.Equal(t, s.size, c)
	}
}

// TestForwardValues checks z = x·Wᵀ + b against hand-computed values.
func TestForwardValues(t *testing.T) {
	l := newInitialized(t, 2, 2, activations.Tanh{}, nil)
	require.NoError(t, l.SetParams(mat.NewDense(2, 3, []float64{
		0.5, 1, 0,
		-1, 0, 2,
	})))

	a, z := l.Forward(mat.NewDense(2, 2, []float64{
		1, 2,
		-1, 0,
	}))

	assert.InDeltaSlice(t, []float64{1.5, 3, -0.5, -1}, z.RawMatrix().Data, 1e-12)
	want := []float64{math.Tanh(1.5), math.Tanh(3), math.Tanh(-0.5), math.Tanh(-1)}
	assert.InDeltaSlice(t, want, a.RawMatrix().Data, 1e-12)
}

// TestBackwardUpdate checks the parameter step and the returned error.
func TestBackwardUpdate(t *testing.T) {
	tests := []struct {
		name   string
		lambda float64
		want   []float64
	}{
		{"No regularization", 0, []float64{0.46, 0.92, -1.12}},
		{"With regularization", 0.5, []float64{0.435, 0.87, -1.07}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newInitialized(t, 1, 2, activations.Linear{}, nil)
			require.NoError(t, l.SetParams(mat.NewDense(1, 3, []float64{0.5, 1, -1})))

			aIn := mat.NewDense(1, 2, []float64{2, 3})
			delta := mat.NewDense(1, 1, []float64{0.4})

			out := l.Backward(aIn, aIn, delta, 0.1, tt.lambda)

			assert.InDeltaSlice(t, tt.want, l.Params().RawMatrix().Data, 1e-12)
			// Propagated with the weights from before the step.
			assert.InDeltaSlice(t, []float64{0.4, -0.4}, out.RawMatrix().Data, 1e-12)
		})
	}
}

// TestBackwardBatchAverage checks that gradients are averaged over rows.
func TestBackwardBatchAverage(t *testing.T) {
	l := newInitialized(t, 1, 2, activations.Linear{}, nil)
	require.NoError(t, l.SetParams(mat.NewDense(1, 3, nil)))

	aIn := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	delta := mat.NewDense(2, 1, []float64{1, 3})

	out := l.Backward(aIn, aIn, delta, 1, 0)

	// bias grad mean(1,3)=2, weight grads (1*1+3*0)/2, (1*0+3*1)/2
	assert.InDeltaSlice(t, []float64{-2, -0.5, -1.5}, l.Params().RawMatrix().Data, 1e-12)

	r, c := out.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
}

// TestBackwardUsesPreviousActivation checks the outgoing error is scaled by
// the derivative of the activation feeding the layer.
func TestBackwardUsesPreviousActivation(t *testing.T) {
	l := newInitialized(t, 1, 2, activations.Linear{}, activations.Sigmoid{})
	require.NoError(t, l.SetParams(mat.NewDense(1, 3, []float64{0, 1, 2})))

	aIn := mat.NewDense(1, 2, []float64{0.5, 0.5})
	zIn := mat.NewDense(1, 2, []float64{0, 0})
	delta := mat.NewDense(1, 1, []float64{1})

	out := l.Backward(aIn, zIn, delta, 0, 0)

	// sigmoid'(0) = 0.25
	assert.InDeltaSlice(t, []float64{0.25, 0.5}, out.RawMatrix().Data, 1e-12)
}

// TestInit checks shapes, ranges and reproducibility of initialization.
func TestInit(t *testing.T) {
	a := NewHidden(16, activations.Sigmoid{})
	b := NewHidden(16, activations.Sigmoid{})
	require.NoError(t, a.Init(4, nil, rand.New(rand.NewSource(42))))
	require.NoError(t, b.Init(4, nil, rand.New(rand.NewSource(42))))

	assert.True(t, mat.Equal(a.Params(), b.Params()))
	assert.True(t, a.Initialized())
	assert.Equal(t, 4, a.InputSize())
	assert.Equal(t, 16*5, a.ParamCount())

	p := a.Params()
	r, c := p.Dims()
	assert.Equal(t, 16, r)
	assert.Equal(t, 5, c)
	for o := 0; o < r; o++ {
		assert.GreaterOrEqual(t, p.At(o, 0), -0.1)
		assert.Less(t, p.At(o, 0), 0.1)
	}

	assert.ErrorIs(t, a.Init(4, nil, rand.New(rand.NewSource(1))), ErrAlreadyInitialized)
	assert.ErrorIs(t, NewHidden(2, activations.ReLU{}).Init(0, nil, rand.New(rand.NewSource(1))), ErrShape)
}

// TestParamsIsCopy checks that Params does not alias the layer.
func TestParamsIsCopy(t *testing.T) {
	l := newInitialized(t, 2, 2, activations.ReLU{}, nil)
	p := l.Params()
	p.Zero()

	assert.False(t, mat.Equal(p, l.Params()))
}

// TestSetParams checks shape validation.
func TestSetParams(t *testing.T) {
	l := NewOutput(2, activations.Sigmoid{})
	assert.ErrorIs(t, l.SetParams(mat.NewDense(2, 3, nil)), ErrNotInitialized)
	assert.Nil(t, l.Params())

	require.NoError(t, l.Init(2, nil, rand.New(rand.NewSource(1))))
	assert.ErrorIs(t, l.SetParams(mat.NewDense(2, 2, nil)), ErrShape)
	assert.NoError(t, l.SetParams(mat.NewDense(2, 3, nil)))
	assert.True(t, l.IsOutput())
	assert.Equal(t, Output, l.Kind())
	assert.Equal(t, "Output", l.Kind().String())
}

// TestForwardPanics checks misuse of an uninitialized or mis-fed layer.
func TestForwardPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewHidden(2, activations.ReLU{}).Forward(mat.NewDense(1, 2, nil))
	})

	l := newInitialized(t, 2, 3, activations.ReLU{}, nil)
	assert.Panics(t, func() { l.Forward(mat.NewDense(1, 2, nil)) })
	assert.Panics(t, func() { NewHidden(0, activations.ReLU{}) })
}
