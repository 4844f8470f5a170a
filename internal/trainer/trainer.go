package trainer

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/riskline/credit-scoring/internal/dataset"
	"github.com/riskline/credit-scoring/internal/features"
	"github.com/riskline/credit-scoring/internal/model"
	"github.com/riskline/credit-scoring/internal/registry"
	"github.com/riskline/credit-scoring/pkg"
	"go.uber.org/zap"
)

// State tracks the orchestrator lifecycle: each step requires the previous
// one to have completed.
type State int

const (
	StateUnloaded State = iota
	StateDataLoaded
	StateSplit
	StateTrained
	StateLogged
)

func (s State) String() string {
	switch s {
	case StateDataLoaded:
		return "data_loaded"
	case StateSplit:
		return "split"
	case StateTrained:
		return "trained"
	case StateLogged:
		return "logged"
	default:
		return "unloaded"
	}
}

const (
	DefaultTestFraction = 0.2
	DefaultSeed         = 42
	DefaultLabelColumn  = "AnyFraud"
)

// Trainer drives one training run end to end: load, split, fit, evaluate,
// and record the run in the registry.
type Trainer struct {
	logger      *zap.Logger
	reg         registry.Registry
	modelName   string
	dataPath    string
	labelColumn string

	state  State
	table  *dataset.Table
	scaler *features.Scaler
	vocab  *features.Vocabulary

	xTrain, xTest [][]float64
	yTrain, yTest []int
}

func New(logger *zap.Logger, reg registry.Registry, modelName, dataPath, labelColumn string) *Trainer {
	if labelColumn == "" {
		labelColumn = DefaultLabelColumn
	}
	return &Trainer{
		logger:      logger,
		reg:         reg,
		modelName:   modelName,
		dataPath:    dataPath,
		labelColumn: labelColumn,
	}
}

func (t *Trainer) State() State { return t.state }

// LoadData reads the labeled modeling table from the configured path.
func (t *Trainer) LoadData(_ context.Context) error {
	table, err := dataset.LoadModelingTable(t.dataPath, t.labelColumn)
	if err != nil {
		return err
	}
	t.table = table
	t.state = StateDataLoaded
	t.logger.Info("data loaded",
		zap.Int("rows", table.NumRows()),
		zap.Int("columns", table.NumColumns()),
	)
	return nil
}

// SetTable supplies an in-memory modeling table built by the feature
// pipeline, together with the vocabulary that fixed its categorical schema.
func (t *Trainer) SetTable(table *dataset.Table, vocab *features.Vocabulary) {
	t.table = table
	t.vocab = vocab
	t.state = StateDataLoaded
	t.logger.Info("data loaded",
		zap.Int("rows", table.NumRows()),
		zap.Int("columns", table.NumColumns()),
	)
}

// SplitData partitions rows into training and held-out subsets with a
// deterministic seed, then fits the numeric scaler on the training subset
// only and transforms both.
func (t *Trainer) SplitData(testFraction float64, seed int64) error {
	if t.state < StateDataLoaded {
		return pkg.NewAppError(pkg.ErrTrainerStateCode, "split requires loaded data", nil)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return pkg.NewAppError(pkg.ErrInvalidInputCode,
			fmt.Sprintf("test fraction must be in (0,1), got %v", testFraction), nil)
	}

	n := t.table.NumRows()
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(float64(n) * testFraction)
	if nTest < 1 && n > 1 {
		nTest = 1
	}

	var trainRows, testRows [][]float64
	t.yTrain, t.yTest = nil, nil
	for i, idx := range perm {
		if i < nTest {
			testRows = append(testRows, t.table.Rows[idx])
			t.yTest = append(t.yTest, t.table.Labels[idx])
		} else {
			trainRows = append(trainRows, t.table.Rows[idx])
			t.yTrain = append(t.yTrain, t.table.Labels[idx])
		}
	}

	t.scaler = &features.Scaler{}
	t.scaler.Fit(trainRows, t.table.Columns)
	var err error
	if t.xTrain, err = t.scaler.Transform(trainRows); err != nil {
		return err
	}
	if t.xTest, err = t.scaler.Transform(testRows); err != nil {
		return err
	}

	t.state = StateSplit
	t.logger.Info("data split completed",
		zap.Int("train", len(t.xTrain)),
		zap.Int("test", len(t.xTest)),
		zap.Float64("testFraction", testFraction),
	)
	return nil
}

// TrainAndLogModel fits the estimator selected by kindName on the training
// subset, evaluates it on the held-out subset, and records parameters,
// metrics, and artifact as one run. An unsupported kind fails before
// anything is written to the registry; a failure mid-run marks the record
// failed rather than leaving it half-logged.
func (t *Trainer) TrainAndLogModel(ctx context.Context, kindName string) (*registry.Run, Metrics, error) {
	if t.state < StateSplit {
		return nil, Metrics{}, pkg.NewAppError(pkg.ErrTrainerStateCode, "training requires split data", nil)
	}

	kind, err := model.ParseKind(kindName)
	if err != nil {
		return nil, Metrics{}, err
	}
	est, err := model.New(kind, model.DefaultOptions())
	if err != nil {
		return nil, Metrics{}, err
	}

	run, err := t.reg.CreateRun(ctx, t.modelName, kindName)
	if err != nil {
		return nil, Metrics{}, err
	}

	if err := est.Fit(t.xTrain, t.yTrain); err != nil {
		err = fmt.Errorf("fit failed: %w", err)
		if failErr := t.reg.FailRun(ctx, run, err); failErr != nil {
			t.logger.Error("failed to mark run failed", zap.Error(failErr))
		}
		return run, Metrics{}, err
	}
	t.state = StateTrained

	metrics := t.EvaluateModel(est.Predict(t.xTest), est.PredictProba(t.xTest))

	artifact, err := t.buildArtifact(est)
	if err != nil {
		if failErr := t.reg.FailRun(ctx, run, err); failErr != nil {
			t.logger.Error("failed to mark run failed", zap.Error(failErr))
		}
		return run, metrics, err
	}
	if err := t.reg.CompleteRun(ctx, run, est.Params(), metrics.Map(), artifact); err != nil {
		return run, metrics, err
	}
	t.state = StateLogged
	t.logger.Info("model trained and logged",
		zap.String("modelKind", kindName),
		zap.String("runId", run.ID.String()),
	)
	return run, metrics, nil
}

// LogModel persists an already-fitted estimator (e.g. a tuned one) as a new
// run and evaluates it on the held-out subset.
func (t *Trainer) LogModel(ctx context.Context, est model.Estimator, runName string) (*registry.Run, Metrics, error) {
	if t.state < StateSplit {
		return nil, Metrics{}, pkg.NewAppError(pkg.ErrTrainerStateCode, "logging requires split data", nil)
	}
	run, err := t.reg.CreateRun(ctx, t.modelName, runName)
	if err != nil {
		return nil, Metrics{}, err
	}

	metrics := t.EvaluateModel(est.Predict(t.xTest), est.PredictProba(t.xTest))

	artifact, err := t.buildArtifact(est)
	if err != nil {
		if failErr := t.reg.FailRun(ctx, run, err); failErr != nil {
			t.logger.Error("failed to mark run failed", zap.Error(failErr))
		}
		return run, metrics, err
	}
	if err := t.reg.CompleteRun(ctx, run, est.Params(), metrics.Map(), artifact); err != nil {
		return run, metrics, err
	}
	t.state = StateLogged
	return run, metrics, nil
}

// EvaluateModel reports the metric suite on the held-out subset. ROC-AUC is
// logged as unavailable when the held-out labels carry a single class.
func (t *Trainer) EvaluateModel(yPred []int, proba []float64) Metrics {
	m := Evaluate(t.yTest, yPred, proba)
	fields := []zap.Field{
		zap.Float64("accuracy", m.Accuracy),
		zap.Float64("precision", m.Precision),
		zap.Float64("recall", m.Recall),
		zap.Float64("f1_score", m.F1),
	}
	if m.ROCAUCAvailable {
		fields = append(fields, zap.Float64("roc_auc", m.ROCAUC))
	} else {
		fields = append(fields, zap.String("roc_auc", "unavailable"))
	}
	t.logger.Info("evaluation metrics", fields...)
	return m
}

func (t *Trainer) buildArtifact(est model.Estimator) (*registry.Artifact, error) {
	payload, err := model.Marshal(est)
	if err != nil {
		return nil, fmt.Errorf("serialize estimator: %w", err)
	}
	return &registry.Artifact{
		Kind:          est.Kind().String(),
		Estimator:     payload,
		Scaler:        t.scaler,
		Vocabulary:    t.vocab,
		FeatureSchema: append([]string(nil), t.table.Columns...),
	}, nil
}
