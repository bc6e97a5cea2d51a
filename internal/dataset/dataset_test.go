package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sample(t *testing.T) *Dataset {
	t.Helper()
	x := mat.NewDense(5, 2, []float64{
		0, 10,
		1, 11,
		2, 12,
		3, 13,
		4, 14,
	})
	y := mat.NewDense(5, 1, []float64{0, 1, 2, 3, 4})
	d, err := New(x, y)
	require.NoError(t, err)
	return d
}

func TestNew(t *testing.T) {
	_, err := New(mat.NewDense(2, 1, nil), mat.NewDense(3, 1, nil))
	assert.Error(t, err)
	_, err = New(nil, mat.NewDense(3, 1, nil))
	assert.Error(t, err)
}

func TestPermuteKeepsPairs(t *testing.T) {
	d := sample(t)
	p := d.Permute([]int{4, 2, 0, 3, 1})

	require.Equal(t, 5, p.Len())
	assert.Equal(t, []float64{4, 14}, p.X.RawRowView(0))
	assert.Equal(t, 4.0, p.Y.At(0, 0))
	for i := 0; i < p.Len(); i++ {
		assert.Equal(t, p.X.At(i, 0), p.Y.At(i, 0))
	}

	// The source is untouched.
	assert.Equal(t, 0.0, d.X.At(0, 0))
}

func TestSlice(t *testing.T) {
	d := sample(t)
	s := d.Slice(1, 3)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []float64{1, 11}, s.X.RawRowView(0))
	assert.Equal(t, 2.0, s.Y.At(1, 0))
}

func TestSplit(t *testing.T) {
	d := sample(t)

	train, test, err := d.Split(0.2)
	require.NoError(t, err)
	assert.Equal(t, 4, train.Len())
	assert.Equal(t, 1, test.Len())
	assert.Equal(t, 4.0, test.Y.At(0, 0))

	// ceil(0.3 * 5) = 2
	train, test, err = d.Split(0.3)
	require.NoError(t, err)
	assert.Equal(t, 3, train.Len())
	assert.Equal(t, 2, test.Len())

	for _, f := range []float64{0, 1, -0.5, 0.99} {
		_, _, err := d.Split(f)
		assert.Error(t, err, "fraction %v", f)
	}
}

func TestMinMaxScaler(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
	})

	var s MinMaxScaler
	s.Fit(x)
	out, err := s.Transform(x)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 0.5, 0, 1, 0}, out.RawMatrix().Data)

	_, err = s.Transform(mat.NewDense(1, 3, nil))
	assert.Error(t, err)

	d := sample(t)
	d.Normalize()
	assert.Equal(t, 0.0, d.X.At(0, 1))
	assert.Equal(t, 1.0, d.X.At(4, 1))
}

func TestLoadCSV(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "data.csv")
	file, err := os.Create(filename)
	require.NoError(t, err)

	writer := csv.NewWriter(file)
	require.NoError(t, writer.Write([]string{"f1", "f2", "l1", "f3", "l2"}))
	require.NoError(t, writer.Write([]string{"1.0", "2.0", "0.0", "3.0", "1.0"}))
	require.NoError(t, writer.Write([]string{"4.0", "5.0", "1.0", "6.0", "0.0"}))
	writer.Flush()
	require.NoError(t, file.Close())

	d, err := LoadCSV(filename, []int{4, 2}, true)
	require.NoError(t, err)

	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, d.X.RawMatrix().Data)
	// Targets follow the order of labelCols.
	assert.Equal(t, []float64{1, 0, 0, 1}, d.Y.RawMatrix().Data)
}

func TestLoadCSVErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCSV(filepath.Join(dir, "missing.csv"), []int{0}, false)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("1,x\n"), 0o644))
	_, err = LoadCSV(bad, []int{0}, false)
	assert.Error(t, err)

	header := filepath.Join(dir, "header.csv")
	require.NoError(t, os.WriteFile(header, []byte("a,b\n"), 0o644))
	_, err = LoadCSV(header, []int{1}, true)
	assert.Error(t, err)

	ok := filepath.Join(dir, "ok.csv")
	require.NoError(t, os.WriteFile(ok, []byte("1,2\n3,4\n"), 0o644))
	_, err = LoadCSV(ok, []int{5}, false)
	assert.Error(t, err)
	_, err = LoadCSV(ok, []int{0, 1}, false)
	assert.Error(t, err)
}
