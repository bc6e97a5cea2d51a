package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// LoadCSV loads data from a CSV file.
// labelCols specifies the indices of columns to be used as targets, in the
// order given. All other columns are used as features.
// hasHeader skips the first line if true.
func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}

	if len(records) <= startRow {
		return nil, fmt.Errorf("csv file has no data rows")
	}

	numCols := len(records[0])
	isLabelCol := make(map[int]bool)
	for _, col := range labelCols {
		if col < 0 || col >= numCols {
			return nil, fmt.Errorf("label column %d out of range [0, %d)", col, numCols)
		}
		isLabelCol[col] = true
	}
	if len(isLabelCol) == 0 || len(isLabelCol) == numCols {
		return nil, fmt.Errorf("need at least one feature and one label column, got %d labels of %d columns", len(isLabelCol), numCols)
	}

	numSamples := len(records) - startRow
	numFeatures := numCols - len(isLabelCol)
	x := mat.NewDense(numSamples, numFeatures, nil)
	y := mat.NewDense(numSamples, len(labelCols), nil)

	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("inconsistent number of columns at row %d", i)
		}

		row := i - startRow
		values := make([]float64, numCols)
		feature := 0
		for j, valStr := range record {
			val, err := strconv.ParseFloat(valStr, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			values[j] = val
			if !isLabelCol[j] {
				x.Set(row, feature, val)
				feature++
			}
		}

		// Targets keep the order of labelCols
		for k, col := range labelCols {
			y.Set(row, k, values[col])
		}
	}

	return &Dataset{X: x, Y: y}, nil
}
