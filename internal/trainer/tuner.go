package trainer

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskline/credit-scoring/internal/model"
	"github.com/riskline/credit-scoring/pkg"
	"go.uber.org/zap"
)

const (
	DefaultScoring = "f1"
	DefaultFolds   = 5
)

type tuneResult struct {
	idx   int
	score float64
	err   error
}

// TuneModel performs exhaustive cross-validated search over the candidate
// options. Candidates are fitted concurrently; each works on its own
// estimator, so there is no shared mutable state. The best mean score wins,
// ties broken by candidate order, and the winner is refitted on the full
// training subset.
func (t *Trainer) TuneModel(ctx context.Context, kind model.Kind, candidates []model.Options, scoring string, folds int) (model.Estimator, model.Options, error) {
	if t.state < StateSplit {
		return nil, model.Options{}, pkg.NewAppError(pkg.ErrTrainerStateCode, "tuning requires split data", nil)
	}
	if len(candidates) == 0 {
		return nil, model.Options{}, fmt.Errorf("empty candidate grid")
	}
	if scoring == "" {
		scoring = DefaultScoring
	}
	if folds < 2 {
		folds = DefaultFolds
	}
	if folds > len(t.xTrain) {
		folds = len(t.xTrain)
	}

	results := make(chan tuneResult, len(candidates))
	var wg sync.WaitGroup
	for i, opts := range candidates {
		wg.Add(1)
		go func(idx int, opts model.Options) {
			defer wg.Done()
			score, err := t.crossValidate(ctx, kind, opts, scoring, folds)
			results <- tuneResult{idx: idx, score: score, err: err}
		}(i, opts)
	}
	wg.Wait()
	close(results)

	best := tuneResult{idx: -1}
	for res := range results {
		if res.err != nil {
			return nil, model.Options{}, fmt.Errorf("candidate %d: %w", res.idx, res.err)
		}
		if best.idx < 0 || res.score > best.score || (res.score == best.score && res.idx < best.idx) {
			best = res
		}
	}

	winner := candidates[best.idx]
	est, err := model.New(kind, winner)
	if err != nil {
		return nil, model.Options{}, err
	}
	if err := est.Fit(t.xTrain, t.yTrain); err != nil {
		return nil, model.Options{}, fmt.Errorf("refit best candidate: %w", err)
	}
	t.logger.Info("tuning completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("best", best.idx),
		zap.String("scoring", scoring),
		zap.Float64("bestScore", best.score),
	)
	return est, winner, nil
}

// crossValidate scores one candidate with k-fold CV on the training subset.
// Folds are assigned round-robin over the already-shuffled training rows.
// Cancellation is checked between folds, not mid-fit.
func (t *Trainer) crossValidate(ctx context.Context, kind model.Kind, opts model.Options, scoring string, folds int) (float64, error) {
	total := 0.0
	for fold := 0; fold < folds; fold++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		var xFit, xVal [][]float64
		var yFit, yVal []int
		for i := range t.xTrain {
			if i%folds == fold {
				xVal = append(xVal, t.xTrain[i])
				yVal = append(yVal, t.yTrain[i])
			} else {
				xFit = append(xFit, t.xTrain[i])
				yFit = append(yFit, t.yTrain[i])
			}
		}

		est, err := model.New(kind, opts)
		if err != nil {
			return 0, err
		}
		if err := est.Fit(xFit, yFit); err != nil {
			return 0, err
		}
		m := Evaluate(yVal, est.Predict(xVal), est.PredictProba(xVal))
		score, err := scoreByName(scoring, m)
		if err != nil {
			return 0, err
		}
		total += score
	}
	return total / float64(folds), nil
}
