package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/riskline/credit-scoring/configs"
	"github.com/riskline/credit-scoring/internal/registry"
	"github.com/riskline/credit-scoring/internal/server/handlers"
	"github.com/riskline/credit-scoring/internal/server/services"
	"github.com/riskline/credit-scoring/pkg"
	"github.com/riskline/credit-scoring/pkg/database"
	middleware "github.com/riskline/credit-scoring/pkg/middlewares"
	"github.com/riskline/credit-scoring/pkg/utils"
	"go.uber.org/zap"
)

// NewApp wires dependencies, builds the Gin engine, and returns an
// *http.Server and a cleanup func. The Production artifact is loaded before
// any route is bound: a registry miss aborts startup rather than failing
// lazily on the first request.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	cfg, err := configs.LoadServer(logger)
	if err != nil {
		return nil, nil, err
	}

	reg, cleanup, err := openRegistry(ctx, logger, cfg)
	if err != nil {
		return nil, nil, err
	}

	artifact, err := reg.LoadLatest(ctx, cfg.ModelName, pkg.ModelStage(cfg.ModelStage))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to load %s model %q: %w", cfg.ModelStage, cfg.ModelName, err)
	}

	scoringService, err := services.NewScoringService(logger, artifact)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	r := NewRouter(logger, scoringService)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	return srv, cleanup, nil
}

// NewRouter builds the Gin engine for the scoring API.
func NewRouter(logger *zap.Logger, svc services.ScoringService) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.TraceID())
	r.Use(middleware.Metrics())

	handlers.NewBaseHandler(logger).RegisterRoutes(r)
	handlers.NewPredictHandler(logger, svc).RegisterRoutes(r)
	return r
}

// openRegistry picks the backend: Postgres when a DB address is configured,
// filesystem otherwise.
func openRegistry(ctx context.Context, logger *zap.Logger, cfg *configs.ServerConfig) (registry.Registry, func(), error) {
	if !utils.IsEmpty(cfg.RegistryDbAddr) {
		db, disconnect, err := database.New(ctx, logger, database.Config{
			DSN:      cfg.RegistryDbAddr,
			MaxConns: cfg.MaxDbCons,
			MinConns: cfg.MinDbCons,
		})
		if err != nil {
			return nil, nil, err
		}
		reg, err := registry.NewPostgresRegistry(ctx, db, logger)
		if err != nil {
			disconnect()
			return nil, nil, err
		}
		return reg, disconnect, nil
	}

	reg, err := registry.NewFileRegistry(cfg.RegistryDir, logger)
	if err != nil {
		return nil, nil, err
	}
	return reg, func() {}, nil
}
