package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MinMaxScaler remaps every column from [min, max] to [0, 1].
type MinMaxScaler struct {
	min, max []float64
}

// Fit records per-column minima and maxima of x.
func (s *MinMaxScaler) Fit(x mat.Matrix) {
	r, c := x.Dims()
	s.min = make([]float64, c)
	s.max = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, x)
		s.min[j] = floats.Min(col)
		s.max[j] = floats.Max(col)
	}
}

// Transform returns a scaled copy of x. Constant columns map to 0.
func (s *MinMaxScaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	r, c := x.Dims()
	if c != len(s.min) {
		return nil, fmt.Errorf("dataset: scaler fitted on %d columns, got %d", len(s.min), c)
	}

	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		diff := s.max[j] - s.min[j]
		if diff == 0 {
			return 0
		}
		return (v - s.min[j]) / diff
	}, x)
	return out, nil
}

// Normalize replaces the inputs with their min-max scaled copy.
func (d *Dataset) Normalize() {
	if d.Len() == 0 {
		return
	}
	var s MinMaxScaler
	s.Fit(d.X)
	scaled, _ := s.Transform(d.X)
	d.X = scaled
}
