package checkpoint

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/FlavioCFOliveira/backprop/internal/activations"
	"github.com/FlavioCFOliveira/backprop/internal/cost"
	"github.com/FlavioCFOliveira/backprop/internal/layer"
	"github.com/FlavioCFOliveira/backprop/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"google.golang.org/protobuf/encoding/protowire"
)

func mse() cost.Function {
	return cost.NewLinearRegression(nil, nil, nil, nil, 0)
}

func trainedModel(t *testing.T) *model.Model {
	t.Helper()
	m := model.New(2, mse(), 3)
	m.SetOutput(nil)
	require.NoError(t, m.AddLayer(layer.NewHidden(4, activations.NewELU(activations.DefaultELUAlpha))))
	require.NoError(t, m.AddLayer(layer.NewHidden(3, activations.NewLeakyReLU(0.2))))
	require.NoError(t, m.AddLayer(layer.NewOutput(2, activations.Softmax{})))

	x := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1})
	y := mat.NewDense(4, 2, []float64{1, 0, 0, 1, 0, 1, 1, 0})
	require.NoError(t, m.Train(x, y, model.TrainOptions{Epochs: 5, LearningRate: 0.1}))
	return m
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatProto} {
		t.Run(format.String(), func(t *testing.T) {
			m := trainedModel(t)
			path := filepath.Join(t.TempDir(), "model.ckpt")

			saver := NewSaver(format)
			require.NoError(t, saver.SaveModel(m, path))

			loaded, err := saver.LoadModel(path, mse(), 99)
			require.NoError(t, err)

			require.Len(t, loaded.Layers(), len(m.Layers()))
			for i, l := range m.Layers() {
				got := loaded.Layers()[i]
				assert.Equal(t, l.Kind(), got.Kind())
				assert.Equal(t, l.Activation().Name(), got.Activation().Name())
				assert.Equal(t, activations.Alpha(l.Activation()), activations.Alpha(got.Activation()))
				assert.Equal(t, l.Params().RawMatrix().Data, got.Params().RawMatrix().Data)
			}

			x := mat.NewDense(3, 2, []float64{0.2, 0.8, -1, 3, 0.5, 0.5})
			want, err := m.FeedForward(x)
			require.NoError(t, err)
			got, err := loaded.FeedForward(x)
			require.NoError(t, err)
			assert.Equal(t, want.RawMatrix().Data, got.RawMatrix().Data)
		})
	}
}

func TestFromUnreadyModel(t *testing.T) {
	m := model.New(2, mse(), 0)
	_, err := FromModel(m)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestBuildRejectsBrokenCheckpoints(t *testing.T) {
	valid := func() *Checkpoint {
		c, err := FromModel(trainedModel(t))
		require.NoError(t, err)
		return c
	}

	cases := map[string]func(c *Checkpoint){
		"no layers":         func(c *Checkpoint) { c.Layers = nil },
		"bad input size":    func(c *Checkpoint) { c.InputSize = 0 },
		"unknown kind":      func(c *Checkpoint) { c.Layers[0].Kind = "Pooling" },
		"unknown act":       func(c *Checkpoint) { c.Layers[1].Activation = "Swish" },
		"short params":      func(c *Checkpoint) { c.Layers[2].Params = c.Layers[2].Params[1:] },
		"wrong width":       func(c *Checkpoint) { c.InputSize = 3 },
		"missing output":    func(c *Checkpoint) { c.Layers = c.Layers[:2] },
		"output not last":   func(c *Checkpoint) { c.Layers[1].Kind = layer.Output.String() },
		"non-positive size": func(c *Checkpoint) { c.Layers[0].Size = 0 },
		"size not rows":     func(c *Checkpoint) { c.Layers[0].Size = 5 },
		"huge size":         func(c *Checkpoint) { c.Layers[2].Size, c.Layers[2].Rows = 1<<62, 1<<62 },
		"after output":      func(c *Checkpoint) { c.Layers = append(c.Layers, c.Layers[2]) },
	}
	for name, breakIt := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			breakIt(c)
			_, err := c.Build(mse(), 0)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewSaver(FormatJSON).Load(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte{0xff, 0xff, 0xff}, 0644))
	_, err = NewSaver(FormatProto).Load(garbage)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = NewSaver(FormatJSON).Load(garbage)
	assert.ErrorIs(t, err, ErrInvalid)

	assert.Error(t, NewSaver(Format(7)).Save(&Checkpoint{}, filepath.Join(dir, "x")))
}

func TestLoadOversizedLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.json")
	data := `{"input_size":2,"layers":[{"kind":"Output","size":4611686018427387904,"activation":"Linear","rows":1,"cols":3,"params":[1,2,3]}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := NewSaver(FormatJSON).LoadModel(path, mse(), 0)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestProtoSkipsUnknownFields(t *testing.T) {
	c, err := FromModel(trainedModel(t))
	require.NoError(t, err)

	b := marshalProto(c)
	b = protowire.AppendTag(b, 15, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)

	var got Checkpoint
	require.NoError(t, unmarshalProto(b, &got))
	assert.Equal(t, *c, got)
}

func TestModelCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.json")

	m := model.New(1, mse(), 5)
	m.SetOutput(nil)
	require.NoError(t, m.AddLayer(layer.NewOutput(1, activations.Linear{})))

	cb := NewModelCheckpoint(path, FormatJSON)
	cb.Out = io.Discard
	m.AddCallback(cb)

	x := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{1, 3, 5, 7})
	require.NoError(t, m.Train(x, y, model.TrainOptions{Epochs: 10, LearningRate: 0.01}))

	assert.Positive(t, cb.Saved)
	loaded, err := NewSaver(FormatJSON).LoadModel(path, mse(), 0)
	require.NoError(t, err)
	assert.True(t, loaded.Ready())
}
