// Package checkpoint saves and restores trained networks.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/FlavioCFOliveira/backprop/internal/activations"
	"github.com/FlavioCFOliveira/backprop/internal/cost"
	"github.com/FlavioCFOliveira/backprop/internal/layer"
	"github.com/FlavioCFOliveira/backprop/internal/model"
	"gonum.org/v1/gonum/mat"
)

// Version is written into every checkpoint.
const Version = "1"

// ErrInvalid reports a checkpoint that cannot be turned back into a network.
var ErrInvalid = errors.New("invalid checkpoint")

// Format defines the serialization format
type Format int

const (
	FormatJSON Format = iota
	FormatProto
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "JSON"
	case FormatProto:
		return "Proto"
	default:
		return "Unknown"
	}
}

// Checkpoint is the architecture and parameters of a network.
type Checkpoint struct {
	Version   string       `json:"version"`
	InputSize int          `json:"input_size"`
	Layers    []LayerState `json:"layers"`
}

// LayerState is one layer of a Checkpoint. Params is the row-major
// (Size, 1+input) parameter matrix with the biases in column 0.
type LayerState struct {
	Kind       string    `json:"kind"`
	Size       int       `json:"size"`
	Activation string    `json:"activation"`
	Alpha      float64   `json:"alpha,omitempty"`
	Rows       int       `json:"rows"`
	Cols       int       `json:"cols"`
	Params     []float64 `json:"params"`
}

// FromModel captures m. The model must be ready.
func FromModel(m *model.Model) (*Checkpoint, error) {
	if !m.Ready() {
		return nil, fmt.Errorf("%w: network has no output layer", model.ErrConfiguration)
	}

	c := &Checkpoint{Version: Version, InputSize: m.InputSize()}
	for _, l := range m.Layers() {
		p := l.Params()
		r, cols := p.Dims()
		c.Layers = append(c.Layers, LayerState{
			Kind:       l.Kind().String(),
			Size:       l.Size(),
			Activation: l.Activation().Name(),
			Alpha:      activations.Alpha(l.Activation()),
			Rows:       r,
			Cols:       cols,
			Params:     append([]float64(nil), p.RawMatrix().Data...),
		})
	}
	return c, nil
}

// Build rebuilds the network under a fresh cost function and seed. The
// seed only matters for training that follows; every parameter is restored.
func (c *Checkpoint) Build(costFn cost.Function, seed int64) (*model.Model, error) {
	if c.InputSize <= 0 {
		return nil, fmt.Errorf("%w: input size %d", ErrInvalid, c.InputSize)
	}
	if len(c.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrInvalid)
	}

	m := model.New(c.InputSize, costFn, seed)
	prev := c.InputSize
	for i, s := range c.Layers {
		if m.Ready() {
			return nil, fmt.Errorf("%w: layer %d follows the output layer", ErrInvalid, i)
		}
		l, err := s.layer(prev)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if err := m.AddLayer(l); err != nil {
			return nil, fmt.Errorf("%w: layer %d: %v", ErrInvalid, i, err)
		}
		if err := l.SetParams(mat.NewDense(s.Rows, s.Cols, append([]float64(nil), s.Params...))); err != nil {
			return nil, fmt.Errorf("%w: layer %d: %v", ErrInvalid, i, err)
		}
		prev = s.Size
	}
	if !m.Ready() {
		return nil, fmt.Errorf("%w: last layer is not an output layer", ErrInvalid)
	}
	return m, nil
}

// layer checks the declared shape against the stored parameters before
// anything is allocated from it.
func (s LayerState) layer(inSize int) (*layer.Layer, error) {
	if s.Size <= 0 || s.Rows != s.Size || s.Cols != 1+inSize {
		return nil, fmt.Errorf("%w: size %d after %d inputs, params %dx%d", ErrInvalid, s.Size, inSize, s.Rows, s.Cols)
	}
	if len(s.Params)%s.Cols != 0 || len(s.Params)/s.Cols != s.Rows {
		return nil, fmt.Errorf("%w: %d values for a %dx%d matrix", ErrInvalid, len(s.Params), s.Rows, s.Cols)
	}
	act, err := activations.Lookup(s.Activation, s.Alpha)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch s.Kind {
	case layer.Hidden.String():
		return layer.NewHidden(s.Size, act), nil
	case layer.Output.String():
		return layer.NewOutput(s.Size, act), nil
	default:
		return nil, fmt.Errorf("%w: unknown layer kind %q", ErrInvalid, s.Kind)
	}
}

// Saver handles saving checkpoints in one format.
type Saver struct {
	format Format
}

// NewSaver creates a Saver for the specified format.
func NewSaver(format Format) *Saver {
	return &Saver{format: format}
}

// Save writes c to path.
func (s *Saver) Save(c *Checkpoint, path string) error {
	var (
		data []byte
		err  error
	)
	switch s.format {
	case FormatJSON:
		data, err = json.MarshalIndent(c, "", "  ")
	case FormatProto:
		data = marshalProto(c)
	default:
		return fmt.Errorf("unsupported checkpoint format: %s", s.format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// Load reads a checkpoint from path.
func (s *Saver) Load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var c Checkpoint
	switch s.format {
	case FormatJSON:
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	case FormatProto:
		if err := unmarshalProto(data, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	default:
		return nil, fmt.Errorf("unsupported checkpoint format: %s", s.format)
	}
	return &c, nil
}

// SaveModel captures m and writes it to path.
func (s *Saver) SaveModel(m *model.Model, path string) error {
	c, err := FromModel(m)
	if err != nil {
		return err
	}
	return s.Save(c, path)
}

// LoadModel reads path and rebuilds the network it holds.
func (s *Saver) LoadModel(path string, costFn cost.Function, seed int64) (*model.Model, error) {
	c, err := s.Load(path)
	if err != nil {
		return nil, err
	}
	return c.Build(costFn, seed)
}
