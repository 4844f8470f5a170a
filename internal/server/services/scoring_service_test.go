package services

import (
	"context"
	"testing"

	"github.com/riskline/credit-scoring/internal/features"
	"github.com/riskline/credit-scoring/internal/model"
	"github.com/riskline/credit-scoring/internal/registry"
	"github.com/riskline/credit-scoring/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestArtifact(t *testing.T, schema []string, weights []float64, scaler *features.Scaler) *registry.Artifact {
	t.Helper()
	payload, err := model.Marshal(&model.LogisticRegression{Weights: weights})
	require.NoError(t, err)
	return &registry.Artifact{
		Kind:          "logistic_regression",
		Estimator:     payload,
		Scaler:        scaler,
		FeatureSchema: schema,
	}
}

func TestPredict_AlignsToArtifactSchema(t *testing.T) {
	// Positive weight on the second schema column; request key order must not
	// matter, only the schema order.
	artifact := newTestArtifact(t, []string{"TransactionCount", "TotalTransactionAmount"}, []float64{0, 5}, nil)
	svc, err := NewScoringService(zap.NewNop(), artifact)
	require.NoError(t, err)

	low, err := svc.Predict(context.Background(), "t1", map[string]float64{
		"TotalTransactionAmount": 0,
		"TransactionCount":       100,
	})
	require.NoError(t, err)
	high, err := svc.Predict(context.Background(), "t2", map[string]float64{
		"TotalTransactionAmount": 10,
		"TransactionCount":       100,
	})
	require.NoError(t, err)
	assert.Greater(t, high, low)
}

func TestPredict_MissingSchemaColumn(t *testing.T) {
	artifact := newTestArtifact(t, []string{"TransactionCount", "TotalTransactionAmount"}, []float64{0, 0}, nil)
	svc, err := NewScoringService(zap.NewNop(), artifact)
	require.NoError(t, err)

	_, err = svc.Predict(context.Background(), "t1", map[string]float64{"TransactionCount": 1})
	require.Error(t, err)
	assert.True(t, pkg.IsCode(err, pkg.ErrSchemaMismatchCode))
}

func TestPredict_AppliesFittedScaler(t *testing.T) {
	scaler := &features.Scaler{
		Columns: []string{"TransactionCount"},
		Means:   []float64{10},
		Scales:  []float64{2},
	}
	artifact := newTestArtifact(t, []string{"TransactionCount"}, []float64{1}, scaler)
	svc, err := NewScoringService(zap.NewNop(), artifact)
	require.NoError(t, err)

	// The mean value scales to zero: sigmoid(0) = 0.5 exactly.
	p, err := svc.Predict(context.Background(), "t1", map[string]float64{"TransactionCount": 10})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-9)
}

func TestPredict_ProbabilityAlwaysBounded(t *testing.T) {
	artifact := newTestArtifact(t, []string{"TransactionCount"}, []float64{1000}, nil)
	svc, err := NewScoringService(zap.NewNop(), artifact)
	require.NoError(t, err)

	p, err := svc.Predict(context.Background(), "t1", map[string]float64{"TransactionCount": 1e6})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p, 0.0)
	assert.LessOrEqual(t, p, 1.0)
}

func TestNewScoringService_RejectsCorruptEstimator(t *testing.T) {
	_, err := NewScoringService(zap.NewNop(), &registry.Artifact{
		Kind:      "logistic_regression",
		Estimator: []byte(`{"kind":"svm","payload":{}}`),
	})
	assert.Error(t, err)
}
