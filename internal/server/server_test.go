package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/riskline/credit-scoring/internal/model"
	"github.com/riskline/credit-scoring/internal/registry"
	"github.com/riskline/credit-scoring/internal/server/services"
	"github.com/riskline/credit-scoring/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var featureColumns = []string{
	"TotalTransactionAmount", "AvgTransactionAmount", "TransactionCount", "StdTransactionAmount",
	"TransactionHour", "TransactionDay", "TransactionMonth", "TransactionYear",
	"CurrencyCode_UGX",
	"ProductCategory_airtime", "ProductCategory_data_bundles", "ProductCategory_financial_services",
	"ProductCategory_movies", "ProductCategory_other", "ProductCategory_ticket",
	"ProductCategory_transport", "ProductCategory_tv", "ProductCategory_utility_bill",
	"ChannelId_ChannelId_1", "ChannelId_ChannelId_2", "ChannelId_ChannelId_3", "ChannelId_ChannelId_5",
}

// newTestRouter serves a zero-weight logistic model over the full feature
// schema, so every valid request scores exactly 0.5.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	est := &model.LogisticRegression{
		Weights: make([]float64, len(featureColumns)),
	}
	payload, err := model.Marshal(est)
	require.NoError(t, err)

	svc, err := services.NewScoringService(zap.NewNop(), &registry.Artifact{
		Kind:          "logistic_regression",
		Estimator:     payload,
		FeatureSchema: featureColumns,
	})
	require.NoError(t, err)
	return NewRouter(zap.NewNop(), svc)
}

func fullPayload() map[string]any {
	payload := make(map[string]any, len(featureColumns))
	for _, col := range featureColumns {
		payload[col] = 0.0
	}
	return payload
}

func postPredict(t *testing.T, r *gin.Engine, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPredict_AllZeroFeatures(t *testing.T) {
	r := newTestRouter(t)

	w := postPredict(t, r, fullPayload())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		FraudProbability float64 `json:"fraud_probability"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.FraudProbability, 0.0)
	assert.LessOrEqual(t, resp.FraudProbability, 1.0)
	assert.InDelta(t, 0.5, resp.FraudProbability, 1e-9)
}

func TestPredict_MissingFieldRejected(t *testing.T) {
	r := newTestRouter(t)

	payload := fullPayload()
	delete(payload, "TransactionHour")
	w := postPredict(t, r, payload)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp pkg.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pkg.ErrInvalidInputCode.Code, resp.Code)
	assert.NotEmpty(t, resp.Details)
}

func TestPredict_MalformedBodyRejected(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

type failingScoringService struct{ err error }

func (s failingScoringService) Predict(context.Context, string, map[string]float64) (float64, error) {
	return 0, s.err
}

func TestPredict_ServiceFailureSurfacesDetails(t *testing.T) {
	svcErr := pkg.NewAppError(pkg.ErrSchemaMismatchCode, "request is missing feature column \"TransactionYear\"", nil)
	r := NewRouter(zap.NewNop(), failingScoringService{err: svcErr})

	w := postPredict(t, r, fullPayload())
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp pkg.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pkg.ErrSchemaMismatchCode.Code, resp.Code)
	assert.Contains(t, resp.Details, "TransactionYear")
}

func TestPredict_UnknownServiceError(t *testing.T) {
	r := NewRouter(zap.NewNop(), failingScoringService{err: errors.New("boom")})

	w := postPredict(t, r, fullPayload())
	require.Equal(t, http.StatusInternalServerError, w.Code)

	// Errors without a domain code collapse to the generic internal code.
	var resp pkg.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pkg.ErrServerCode.Code, resp.Code)
}

func TestBaseRoutes(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/", "/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestPredict_TraceHeaderPropagated(t *testing.T) {
	r := newTestRouter(t)

	body, err := json.Marshal(fullPayload())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(pkg.HeaderTraceId, "trace-abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-abc-123", w.Header().Get(pkg.HeaderTraceId))
}
