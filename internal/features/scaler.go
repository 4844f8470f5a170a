package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler imputes missing values with the fit-time column mean and
// standardizes to zero mean / unit variance using fit-time statistics only.
// Serving-time data never contributes to the statistics. The fitted state is
// JSON-serialized alongside the model artifact.
type Scaler struct {
	Columns []string  `json:"columns"`
	Means   []float64 `json:"means"`
	Scales  []float64 `json:"scales"`
}

// Fit captures per-column mean and standard deviation from the training
// matrix. NaN cells are excluded from the statistics. A column with no
// observed values imputes to 0; a zero-variance column scales by 1.
func (s *Scaler) Fit(rows [][]float64, columns []string) {
	s.Columns = append([]string(nil), columns...)
	s.Means = make([]float64, len(columns))
	s.Scales = make([]float64, len(columns))

	for j := range columns {
		var observed []float64
		for i := range rows {
			if !math.IsNaN(rows[i][j]) {
				observed = append(observed, rows[i][j])
			}
		}
		mean, scale := 0.0, 1.0
		if len(observed) > 0 {
			mean = stat.Mean(observed, nil)
		}
		if len(observed) > 1 {
			if sd := stat.StdDev(observed, nil); sd > 0 {
				scale = sd
			}
		}
		s.Means[j] = mean
		s.Scales[j] = scale
	}
}

// Transform imputes then standardizes, returning a new matrix.
func (s *Scaler) Transform(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(s.Columns) {
			return nil, fmt.Errorf("row has %d values, scaler fitted on %d columns", len(row), len(s.Columns))
		}
		t := make([]float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				v = s.Means[j]
			}
			t[j] = (v - s.Means[j]) / s.Scales[j]
		}
		out[i] = t
	}
	return out, nil
}

// InverseTransform reverses standardization using the same fit-time
// statistics. Imputed cells come back as the column mean.
func (s *Scaler) InverseTransform(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(s.Columns) {
			return nil, fmt.Errorf("row has %d values, scaler fitted on %d columns", len(row), len(s.Columns))
		}
		t := make([]float64, len(row))
		for j, v := range row {
			t[j] = v*s.Scales[j] + s.Means[j]
		}
		out[i] = t
	}
	return out, nil
}
