// Package dataset holds paired input/target matrices and the row operations
// the trainers need: permutation, slicing and hold-out splits.
package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Dataset pairs an input matrix with a target matrix, one sample per row.
type Dataset struct {
	X *mat.Dense
	Y *mat.Dense
}

// New validates that x and y hold the same number of rows.
func New(x, y *mat.Dense) (*Dataset, error) {
	if x == nil || y == nil {
		return nil, fmt.Errorf("dataset: nil matrix")
	}
	xr, _ := x.Dims()
	yr, _ := y.Dims()
	if xr != yr {
		return nil, fmt.Errorf("dataset: %d input rows but %d target rows", xr, yr)
	}
	return &Dataset{X: x, Y: y}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	r, _ := d.X.Dims()
	return r
}

// Permute returns a new Dataset whose row i is row perm[i] of d.
func (d *Dataset) Permute(perm []int) *Dataset {
	return &Dataset{X: takeRows(d.X, perm), Y: takeRows(d.Y, perm)}
}

// Slice returns rows [i, j) as views into d.
func (d *Dataset) Slice(i, j int) *Dataset {
	_, xc := d.X.Dims()
	_, yc := d.Y.Dims()
	return &Dataset{
		X: d.X.Slice(i, j, 0, xc).(*mat.Dense),
		Y: d.Y.Slice(i, j, 0, yc).(*mat.Dense),
	}
}

// HoldOut returns how many rows Split reserves for testFraction:
// ceil(testFraction * Len()).
func (d *Dataset) HoldOut(testFraction float64) int {
	return int(math.Ceil(testFraction * float64(d.Len())))
}

// Split keeps the leading rows for training and the trailing HoldOut rows
// for testing. Rows are not shuffled; permute first when that matters.
// Both halves are views into d.
func (d *Dataset) Split(testFraction float64) (train, test *Dataset, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("dataset: test fraction must be in (0, 1), got %v", testFraction)
	}
	n := d.Len()
	nTest := d.HoldOut(testFraction)
	if nTest == 0 || nTest >= n {
		return nil, nil, fmt.Errorf("dataset: test fraction %v leaves an empty partition of %d rows", testFraction, n)
	}
	return d.Slice(0, n-nTest), d.Slice(n-nTest, n), nil
}

func takeRows(m *mat.Dense, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, k := range idx {
		out.SetRow(i, m.RawRowView(k))
	}
	return out
}
