package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riskline/credit-scoring/pkg"
	"github.com/riskline/credit-scoring/pkg/database"
	"go.uber.org/zap"
)

const modelRunsSchema = `
CREATE TABLE IF NOT EXISTS model_runs (
	id             UUID PRIMARY KEY,
	model_name     TEXT NOT NULL,
	run_name       TEXT NOT NULL,
	status         TEXT NOT NULL,
	stage          TEXT NOT NULL,
	params         JSONB,
	metrics        JSONB,
	artifact       JSONB,
	failure_reason TEXT,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_model_runs_lookup ON model_runs (model_name, stage, status, updated_at DESC);
`

// PostgresRegistry persists run records in a model_runs table. Same contract
// as FileRegistry; used when the pipeline shares a registry across hosts.
type PostgresRegistry struct {
	db     *database.DB
	logger *zap.Logger
}

func NewPostgresRegistry(ctx context.Context, db *database.DB, logger *zap.Logger) (*PostgresRegistry, error) {
	if _, err := db.Exec(ctx, modelRunsSchema); err != nil {
		return nil, pkg.NewAppError(pkg.ErrRegistryCode, "failed to bootstrap model_runs schema", err)
	}
	return &PostgresRegistry{db: db, logger: logger}, nil
}

func (r *PostgresRegistry) CreateRun(ctx context.Context, modelName, runName string) (*Run, error) {
	now := time.Now().UTC()
	run := &Run{
		ID:        uuid.New(),
		ModelName: modelName,
		RunName:   runName,
		Status:    pkg.RunStatusRunning,
		Stage:     pkg.StageNone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO model_runs (id, model_name, run_name, status, stage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.ModelName, run.RunName, run.Status, run.Stage, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrRegistryCode, "failed to create run", err)
	}
	r.logger.Info("run created", zap.String("runId", run.ID.String()), zap.String("modelName", modelName))
	return run, nil
}

func (r *PostgresRegistry) CompleteRun(ctx context.Context, run *Run, params map[string]any, metrics map[string]float64, artifact *Artifact) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return pkg.NewAppError(pkg.ErrRegistryCode, "failed to encode params", err)
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return pkg.NewAppError(pkg.ErrRegistryCode, "failed to encode metrics", err)
	}
	artifactJSON, err := json.Marshal(artifact)
	if err != nil {
		return pkg.NewAppError(pkg.ErrRegistryCode, "failed to encode artifact", err)
	}

	run.Params = params
	run.Metrics = metrics
	run.Artifact = artifact
	run.Status = pkg.RunStatusCompleted
	run.UpdatedAt = time.Now().UTC()

	// Artifact and status land in one transaction: a reader must never see a
	// completed run without its artifact.
	err = r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE model_runs SET params = $1, metrics = $2, artifact = $3, updated_at = $4
			WHERE id = $5`,
			paramsJSON, metricsJSON, artifactJSON, run.UpdatedAt, run.ID,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE model_runs SET status = $1 WHERE id = $2`, run.Status, run.ID)
		return err
	})
	if err != nil {
		return pkg.NewAppError(pkg.ErrRegistryCode, "failed to complete run", err)
	}
	return nil
}

func (r *PostgresRegistry) FailRun(ctx context.Context, run *Run, cause error) error {
	run.Status = pkg.RunStatusFailed
	run.FailureReason = cause.Error()
	run.UpdatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx, `
		UPDATE model_runs SET status = $1, failure_reason = $2, updated_at = $3 WHERE id = $4`,
		run.Status, run.FailureReason, run.UpdatedAt, run.ID,
	)
	if err != nil {
		return pkg.NewAppError(pkg.ErrRegistryCode, "failed to mark run failed", err)
	}
	return nil
}

func (r *PostgresRegistry) SetStage(ctx context.Context, runID uuid.UUID, stage pkg.ModelStage) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE model_runs SET stage = $1, updated_at = $2 WHERE id = $3`,
		stage, time.Now().UTC(), runID,
	)
	if err != nil {
		return pkg.NewAppError(pkg.ErrRegistryCode, "failed to set stage", err)
	}
	if tag.RowsAffected() == 0 {
		return pkg.NewAppError(pkg.ErrModelNotFoundCode, fmt.Sprintf("run %s not found", runID), nil)
	}
	return nil
}

func (r *PostgresRegistry) LoadLatest(ctx context.Context, modelName string, stage pkg.ModelStage) (*Artifact, error) {
	var artifactJSON []byte
	err := r.db.QueryRow(ctx, `
		SELECT artifact FROM model_runs
		WHERE model_name = $1 AND stage = $2 AND status = $3 AND artifact IS NOT NULL
		ORDER BY updated_at DESC LIMIT 1`,
		modelName, stage, pkg.RunStatusCompleted,
	).Scan(&artifactJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pkg.NewAppError(pkg.ErrModelNotFoundCode,
				fmt.Sprintf("no %s artifact for model %q", stage, modelName), err)
		}
		return nil, pkg.NewAppError(pkg.ErrRegistryCode, "failed to load artifact", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(artifactJSON, &artifact); err != nil {
		return nil, pkg.NewAppError(pkg.ErrRegistryCode, "failed to decode artifact", err)
	}
	return &artifact, nil
}
