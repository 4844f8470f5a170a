package services

import (
	"context"
	"fmt"

	"github.com/riskline/credit-scoring/internal/model"
	"github.com/riskline/credit-scoring/internal/registry"
	"github.com/riskline/credit-scoring/pkg"
	"go.uber.org/zap"
)

// ScoringService converts a validated feature row into the tabular shape the
// artifact expects and runs inference. The artifact and fitted state are
// read-only after construction, so one instance is safe to share across
// requests.
type ScoringService interface {
	Predict(ctx context.Context, traceID string, features map[string]float64) (float64, error)
}

type ScoringServiceImpl struct {
	logger   *zap.Logger
	artifact *registry.Artifact
	est      model.Estimator
}

// NewScoringService decodes the artifact's estimator once at startup.
func NewScoringService(logger *zap.Logger, artifact *registry.Artifact) (ScoringService, error) {
	est, err := model.Unmarshal(artifact.Estimator)
	if err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	logger.Info("model artifact loaded",
		zap.String("kind", artifact.Kind),
		zap.Int("featureColumns", len(artifact.FeatureSchema)),
	)
	return &ScoringServiceImpl{logger: logger, artifact: artifact, est: est}, nil
}

func (s *ScoringServiceImpl) Predict(_ context.Context, traceID string, features map[string]float64) (float64, error) {
	row := make([]float64, len(s.artifact.FeatureSchema))
	for i, col := range s.artifact.FeatureSchema {
		v, ok := features[col]
		if !ok {
			return 0, pkg.NewAppError(pkg.ErrSchemaMismatchCode,
				fmt.Sprintf("request is missing feature column %q required by the model schema", col), nil)
		}
		row[i] = v
	}

	rows := [][]float64{row}
	if s.artifact.Scaler != nil {
		var err error
		if rows, err = s.artifact.Scaler.Transform(rows); err != nil {
			return 0, pkg.NewAppError(pkg.ErrSchemaMismatchCode, "failed to apply fitted scaler", err)
		}
	}

	proba := s.est.PredictProba(rows)
	if len(proba) != 1 {
		return 0, pkg.NewAppError(pkg.ErrServerCode,
			fmt.Sprintf("model returned %d predictions for one row", len(proba)), nil)
	}

	p := proba[0]
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	s.logger.Debug("prediction served", zap.String(pkg.TraceId, traceID), zap.Float64("fraudProbability", p))
	return p, nil
}
