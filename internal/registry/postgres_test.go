package registry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/riskline/credit-scoring/pkg"
	"github.com/riskline/credit-scoring/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// startPostgres spins up a disposable Postgres container and returns a DSN
// without the protocol prefix, matching what the config layer passes in.
func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	const (
		user     = "db_user"
		password = "db_password"
		dbName   = "credit_scoring"
	)
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       dbName,
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("could not start postgres container (is docker available?): %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = pgC.Terminate(ctx)
	})

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port.Port(), dbName)
}

func newPostgresRegistry(t *testing.T) *PostgresRegistry {
	t.Helper()
	dsn := startPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, closer, err := database.New(ctx, zap.NewNop(), database.Config{DSN: dsn, MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(closer)

	reg, err := NewPostgresRegistry(ctx, db, zap.NewNop())
	require.NoError(t, err)
	return reg
}

func TestPostgresRegistry_RunLifecycle(t *testing.T) {
	reg := newPostgresRegistry(t)
	ctx := context.Background()

	run, err := reg.CreateRun(ctx, "credit-risk-model", "logistic_regression")
	require.NoError(t, err)
	assert.Equal(t, pkg.RunStatusRunning, run.Status)

	params := map[string]any{"max_iter": 1000, "learning_rate": 0.1}
	metrics := map[string]float64{"accuracy": 0.91, "roc_auc": 0.88}
	require.NoError(t, reg.CompleteRun(ctx, run, params, metrics, testArtifact("logistic_regression")))
	require.NoError(t, reg.SetStage(ctx, run.ID, pkg.StageProduction))

	artifact, err := reg.LoadLatest(ctx, "credit-risk-model", pkg.StageProduction)
	require.NoError(t, err)
	assert.Equal(t, "logistic_regression", artifact.Kind)
	assert.Equal(t, []string{"TotalAmount", "AverageAmount"}, artifact.FeatureSchema)
}

func TestPostgresRegistry_MissAndFailedRuns(t *testing.T) {
	reg := newPostgresRegistry(t)
	ctx := context.Background()

	_, err := reg.LoadLatest(ctx, "credit-risk-model", pkg.StageProduction)
	require.Error(t, err)
	assert.True(t, pkg.IsCode(err, pkg.ErrModelNotFoundCode))

	run, err := reg.CreateRun(ctx, "credit-risk-model", "random_forest")
	require.NoError(t, err)
	require.NoError(t, reg.FailRun(ctx, run, fmt.Errorf("fit failed")))
	require.NoError(t, reg.SetStage(ctx, run.ID, pkg.StageProduction))

	_, err = reg.LoadLatest(ctx, "credit-risk-model", pkg.StageProduction)
	require.Error(t, err)
	assert.True(t, pkg.IsCode(err, pkg.ErrModelNotFoundCode))
}
