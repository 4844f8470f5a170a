package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/riskline/credit-scoring/pkg"
	"go.uber.org/zap"
)

// FileRegistry stores one JSON document per run under <dir>/runs. Writes go
// through a temp file and rename so a crash never leaves a torn record.
type FileRegistry struct {
	dir    string
	logger *zap.Logger
}

func NewFileRegistry(dir string, logger *zap.Logger) (*FileRegistry, error) {
	runsDir := filepath.Join(dir, "runs")
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return nil, pkg.NewAppError(pkg.ErrRegistryCode, fmt.Sprintf("failed to create registry dir %s", runsDir), err)
	}
	return &FileRegistry{dir: dir, logger: logger}, nil
}

func (r *FileRegistry) CreateRun(_ context.Context, modelName, runName string) (*Run, error) {
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
	if err := r.write(run); err != nil {
		return nil, err
	}
	r.logger.Info("run created", zap.String("runId", run.ID.String()), zap.String("modelName", modelName))
	return run, nil
}

func (r *FileRegistry) CompleteRun(_ context.Context, run *Run, params map[string]any, metrics map[string]float64, artifact *Artifact) error {
	run.Params = params
	run.Metrics = metrics
	run.Artifact = artifact
	run.Status = pkg.RunStatusCompleted
	run.UpdatedAt = time.Now().UTC()
	return r.write(run)
}

func (r *FileRegistry) FailRun(_ context.Context, run *Run, cause error) error {
	run.Status = pkg.RunStatusFailed
	run.FailureReason = cause.Error()
	run.UpdatedAt = time.Now().UTC()
	return r.write(run)
}

func (r *FileRegistry) SetStage(_ context.Context, runID uuid.UUID, stage pkg.ModelStage) error {
	run, err := r.read(runID)
	if err != nil {
		return err
	}
	run.Stage = stage
	run.UpdatedAt = time.Now().UTC()
	return r.write(run)
}

func (r *FileRegistry) LoadLatest(_ context.Context, modelName string, stage pkg.ModelStage) (*Artifact, error) {
	entries, err := os.ReadDir(filepath.Join(r.dir, "runs"))
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrRegistryCode, "failed to list runs", err)
	}

	var best *Run
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		run, err := r.readFile(filepath.Join(r.dir, "runs", entry.Name()))
		if err != nil {
			r.logger.Warn("skipping unreadable run record", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if run.ModelName != modelName || run.Stage != stage || run.Status != pkg.RunStatusCompleted {
			continue
		}
		if best == nil || run.UpdatedAt.After(best.UpdatedAt) {
			best = run
		}
	}
	if best == nil || best.Artifact == nil {
		return nil, pkg.NewAppError(pkg.ErrModelNotFoundCode,
			fmt.Sprintf("no %s artifact for model %q", stage, modelName), nil)
	}
	return best.Artifact, nil
}

func (r *FileRegistry) write(run *Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return pkg.NewAppError(pkg.ErrRegistryCode, "failed to encode run", err)
	}
	path := r.runPath(run.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return pkg.NewAppError(pkg.ErrRegistryCode, fmt.Sprintf("failed to write run %s", run.ID), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return pkg.NewAppError(pkg.ErrRegistryCode, fmt.Sprintf("failed to persist run %s", run.ID), err)
	}
	return nil
}

func (r *FileRegistry) read(runID uuid.UUID) (*Run, error) {
	return r.readFile(r.runPath(runID))
}

func (r *FileRegistry) readFile(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkg.NewAppError(pkg.ErrModelNotFoundCode, fmt.Sprintf("run record %s not found", path), err)
		}
		return nil, pkg.NewAppError(pkg.ErrRegistryCode, fmt.Sprintf("failed to read run %s", path), err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, pkg.NewAppError(pkg.ErrRegistryCode, fmt.Sprintf("failed to decode run %s", path), err)
	}
	return &run, nil
}

func (r *FileRegistry) runPath(runID uuid.UUID) string {
	return filepath.Join(r.dir, "runs", runID.String()+".json")
}
