package model

import (
	"errors"
	"math"
)

// LogisticRegression is a binary classifier fitted with full-batch gradient
// descent. Fitting is deterministic: no sampling, fixed iteration count.
type LogisticRegression struct {
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	MaxIter      int       `json:"maxIter"`
	LearningRate float64   `json:"learningRate"`
}

func NewLogisticRegression(opts Options) *LogisticRegression {
	return &LogisticRegression{
		MaxIter:      opts.MaxIter,
		LearningRate: opts.LearningRate,
	}
}

func (m *LogisticRegression) Kind() Kind { return KindLogisticRegression }

func (m *LogisticRegression) Params() map[string]any {
	return map[string]any{
		"model_type": "LogisticRegression",
		"max_iter":   m.MaxIter,
	}
}

func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("empty training set")
	}
	if len(X) != len(y) {
		return errors.New("feature and label counts differ")
	}
	p := len(X[0])
	m.Weights = make([]float64, p)
	m.Bias = 0

	n := float64(len(X))
	grad := make([]float64, p)
	for iter := 0; iter < m.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0
		for i, row := range X {
			err := sigmoid(m.decision(row)) - float64(y[i])
			for j, v := range row {
				grad[j] += err * v
			}
			gradBias += err
		}
		for j := range m.Weights {
			m.Weights[j] -= m.LearningRate * grad[j] / n
		}
		m.Bias -= m.LearningRate * gradBias / n
	}
	return nil
}

func (m *LogisticRegression) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, p := range m.PredictProba(X) {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

func (m *LogisticRegression) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = sigmoid(m.decision(row))
	}
	return out
}

func (m *LogisticRegression) decision(row []float64) float64 {
	z := m.Bias
	for j, w := range m.Weights {
		if j < len(row) {
			z += w * row[j]
		}
	}
	return z
}

func sigmoid(z float64) float64 {
	// Clamp to keep exp finite on extreme margins.
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}
