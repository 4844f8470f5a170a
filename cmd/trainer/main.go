package main

import (
	"context"

	"github.com/riskline/credit-scoring/configs"
	"github.com/riskline/credit-scoring/internal/dataset"
	"github.com/riskline/credit-scoring/internal/features"
	"github.com/riskline/credit-scoring/internal/registry"
	"github.com/riskline/credit-scoring/internal/trainer"
	"github.com/riskline/credit-scoring/pkg"
	"github.com/riskline/credit-scoring/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	pkg.InitLogger()
	logger := pkg.Logger
	defer logger.Sync()

	cfg, err := configs.LoadTrainer(logger)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if utils.IsEmpty(cfg.DataPath) && utils.IsEmpty(cfg.TransactionsPath) {
		logger.Fatal("either APP_DATA_PATH or APP_TRANSACTIONS_PATH must be set")
	}

	ctx := context.Background()
	reg, err := registry.NewFileRegistry(cfg.RegistryDir, logger)
	if err != nil {
		logger.Fatal("failed to open registry", zap.Error(err))
	}

	t := trainer.New(logger, reg, cfg.ModelName, cfg.DataPath, cfg.LabelColumn)

	if !utils.IsEmpty(cfg.TransactionsPath) {
		// Full pipeline: raw transactions through the feature stages.
		table, vocab, err := featurize(logger, cfg)
		if err != nil {
			logger.Fatal("feature pipeline failed", zap.Error(err))
		}
		t.SetTable(table, vocab)
	} else if err := t.LoadData(ctx); err != nil {
		logger.Fatal("failed to load data", zap.Error(err))
	}

	if err := t.SplitData(cfg.TestFraction, cfg.Seed); err != nil {
		logger.Fatal("failed to split data", zap.Error(err))
	}

	run, metrics, err := t.TrainAndLogModel(ctx, cfg.ModelKind)
	if err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}
	logger.Info("training run completed",
		zap.String("runId", run.ID.String()),
		zap.Float64("f1_score", metrics.F1),
	)

	if cfg.Promote {
		if err := reg.SetStage(ctx, run.ID, pkg.StageProduction); err != nil {
			logger.Fatal("failed to promote run", zap.Error(err))
		}
		logger.Info("run promoted to Production", zap.String("runId", run.ID.String()))
	}
}

func featurize(logger *zap.Logger, cfg *configs.TrainerConfig) (*dataset.Table, *features.Vocabulary, error) {
	txs, err := dataset.LoadTransactions(cfg.TransactionsPath)
	if err != nil {
		return nil, nil, err
	}
	labels, err := dataset.LoadLabels(cfg.LabelsPath, cfg.LabelColumn)
	if err != nil {
		return nil, nil, err
	}

	vocab := features.FitVocabulary(txs, features.DefaultCategoricalColumns)
	table, err := features.BuildCustomerFeatures(txs, vocab)
	if err != nil {
		// Record-local timestamp failures: affected customers fall back to
		// imputed temporal fields, the batch itself proceeds.
		logger.Warn("some transactions had malformed timestamps", zap.Error(err))
	}
	return table.ToModelingTable(labels), vocab, nil
}
