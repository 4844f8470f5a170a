package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/riskline/credit-scoring/internal/features"
	"github.com/riskline/credit-scoring/pkg"
)

// Artifact is the durable, self-describing model record the serving side
// loads: the serialized estimator plus the fitted preprocessing state needed
// to reproduce training-time features exactly.
type Artifact struct {
	Kind          string               `json:"kind"`
	Estimator     json.RawMessage      `json:"estimator"`
	Scaler        *features.Scaler     `json:"scaler,omitempty"`
	Vocabulary    *features.Vocabulary `json:"vocabulary,omitempty"`
	FeatureSchema []string             `json:"featureSchema"`
}

// Run is one training invocation's record. Status moves running → completed
// or running → failed; a half-logged run is never reported as complete.
type Run struct {
	ID            uuid.UUID          `json:"id"`
	ModelName     string             `json:"modelName"`
	RunName       string             `json:"runName"`
	Status        pkg.RunStatus      `json:"status"`
	Stage         pkg.ModelStage     `json:"stage"`
	Params        map[string]any     `json:"params,omitempty"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	Artifact      *Artifact          `json:"artifact,omitempty"`
	FailureReason string             `json:"failureReason,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Registry persists training runs (write side) and resolves the latest
// artifact for a model name and lifecycle stage (read side). A read miss is a
// ModelNotFound error.
type Registry interface {
	CreateRun(ctx context.Context, modelName, runName string) (*Run, error)
	CompleteRun(ctx context.Context, run *Run, params map[string]any, metrics map[string]float64, artifact *Artifact) error
	FailRun(ctx context.Context, run *Run, cause error) error
	SetStage(ctx context.Context, runID uuid.UUID, stage pkg.ModelStage) error
	LoadLatest(ctx context.Context, modelName string, stage pkg.ModelStage) (*Artifact, error)
}
