package model

import (
	"encoding/json"
	"fmt"

	"github.com/riskline/credit-scoring/pkg"
)

// Kind selects a concrete estimator. It is a closed enumeration: anything a
// caller cannot parse into one of these values is rejected before training
// starts.
type Kind int

const (
	KindUnknown Kind = iota
	KindLogisticRegression
	KindRandomForest
)

const (
	kindNameLogisticRegression = "logistic_regression"
	kindNameRandomForest       = "random_forest"
)

func (k Kind) String() string {
	switch k {
	case KindLogisticRegression:
		return kindNameLogisticRegression
	case KindRandomForest:
		return kindNameRandomForest
	default:
		return "unknown"
	}
}

// ParseKind maps a selector string to a Kind, failing with
// UnsupportedModelKind for anything outside the enumeration.
func ParseKind(s string) (Kind, error) {
	switch s {
	case kindNameLogisticRegression:
		return KindLogisticRegression, nil
	case kindNameRandomForest:
		return KindRandomForest, nil
	default:
		return KindUnknown, pkg.NewAppError(pkg.ErrUnsupportedModelKindCode,
			fmt.Sprintf("unsupported model kind %q", s), nil)
	}
}

// Estimator is the capability set shared by all model kinds. PredictProba
// returns the positive-class probability per row.
type Estimator interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) []int
	PredictProba(X [][]float64) []float64
	Params() map[string]any
	Kind() Kind
}

// Options carries estimator hyperparameters. Zero values fall back to
// defaults in New.
type Options struct {
	// Logistic regression
	MaxIter      int
	LearningRate float64
	// Random forest
	Trees    int
	MaxDepth int
	MinLeaf  int
	// Shared
	Seed int64
}

// DefaultOptions mirrors the canonical configuration: maxIter 1000 for the
// logistic model, 100 trees for the forest, seed 42 for both.
func DefaultOptions() Options {
	return Options{
		MaxIter:      1000,
		LearningRate: 0.1,
		Trees:        100,
		MaxDepth:     10,
		MinLeaf:      1,
		Seed:         42,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxIter <= 0 {
		o.MaxIter = d.MaxIter
	}
	if o.LearningRate <= 0 {
		o.LearningRate = d.LearningRate
	}
	if o.Trees <= 0 {
		o.Trees = d.Trees
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.MinLeaf <= 0 {
		o.MinLeaf = d.MinLeaf
	}
	if o.Seed == 0 {
		o.Seed = d.Seed
	}
	return o
}

// New constructs an unfitted estimator for the given kind.
func New(kind Kind, opts Options) (Estimator, error) {
	opts = opts.withDefaults()
	switch kind {
	case KindLogisticRegression:
		return NewLogisticRegression(opts), nil
	case KindRandomForest:
		return NewRandomForest(opts), nil
	default:
		return nil, pkg.NewAppError(pkg.ErrUnsupportedModelKindCode,
			fmt.Sprintf("unsupported model kind %q", kind), nil)
	}
}

// envelope wraps a serialized estimator with its kind tag.
type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Marshal serializes a fitted estimator to a self-describing JSON document.
func Marshal(est Estimator) ([]byte, error) {
	payload, err := json.Marshal(est)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: est.Kind().String(), Payload: payload})
}

// Unmarshal restores an estimator serialized with Marshal.
func Unmarshal(data []byte) (Estimator, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode estimator envelope: %w", err)
	}
	kind, err := ParseKind(env.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindLogisticRegression:
		var lr LogisticRegression
		if err := json.Unmarshal(env.Payload, &lr); err != nil {
			return nil, fmt.Errorf("decode logistic regression: %w", err)
		}
		return &lr, nil
	case KindRandomForest:
		var rf RandomForest
		if err := json.Unmarshal(env.Payload, &rf); err != nil {
			return nil, fmt.Errorf("decode random forest: %w", err)
		}
		return &rf, nil
	default:
		return nil, pkg.NewAppError(pkg.ErrUnsupportedModelKindCode, env.Kind, nil)
	}
}
