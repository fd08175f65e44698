// Package dataset provides training data for the forest: CSV ingestion into
// the feature-major tensor layout the core consumes, and a synthetic
// media-classification generator used for benchmarks and end-to-end tests.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ParseCSV reads rows of comma-separated floats into a feature-major tensor.
// When hasLabels is true the first column holds the integer class label. All
// rows must have the same width.
func ParseCSV(r io.Reader, hasLabels bool) (X []float32, y []int32, s, f int, err error) {
	reader := csv.NewReader(r)

	var rows [][]float32

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, 0, 0, err
		}

		col := 0
		if hasLabels {
			label, err := strconv.ParseInt(row[0], 10, 32)
			if err != nil {
				return nil, nil, 0, 0, fmt.Errorf("dataset: row %d: bad label %q: %v", len(rows), row[0], err)
			}
			y = append(y, int32(label))
			col++
		}

		vals := make([]float32, 0, len(row)-col)
		for _, v := range row[col:] {
			fv, err := strconv.ParseFloat(v, 32)
			if err != nil {
				return nil, nil, 0, 0, fmt.Errorf("dataset: row %d: bad value %q: %v", len(rows), v, err)
			}
			vals = append(vals, float32(fv))
		}
		rows = append(rows, vals)
	}

	if len(rows) == 0 {
		return nil, nil, 0, 0, nil
	}

	s = len(rows)
	f = len(rows[0])
	for i, row := range rows {
		if len(row) != f {
			return nil, nil, 0, 0, fmt.Errorf("dataset: row %d has %d values, want %d", i, len(row), f)
		}
	}

	// rows are sample-major; the core wants feature-major
	X = make([]float32, s*f)
	for i, row := range rows {
		for j, v := range row {
			X[j*s+i] = v
		}
	}

	return X, y, s, f, nil
}

// WriteCSV writes a feature-major tensor and its labels as label-first CSV
// rows, the layout ParseCSV reads back.
func WriteCSV(w io.Writer, X []float32, y []int32, s, f int) error {
	writer := csv.NewWriter(w)

	row := make([]string, f+1)
	for i := 0; i < s; i++ {
		row[0] = strconv.FormatInt(int64(y[i]), 10)
		for j := 0; j < f; j++ {
			row[j+1] = strconv.FormatFloat(float64(X[j*s+i]), 'g', -1, 32)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// Transpose converts a row-major (rows × cols) tensor to column-major,
// turning sample-major input into the feature-major layout the core uses.
func Transpose(X []float32, rows, cols int) []float32 {
	Xt := make([]float32, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			Xt[j*rows+i] = X[i*cols+j]
		}
	}
	return Xt
}
