package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/riskline/credit-scoring/internal/server/services"
	"github.com/riskline/credit-scoring/internal/server/views"
	"github.com/riskline/credit-scoring/pkg"
	"github.com/riskline/credit-scoring/pkg/utils"
	"go.uber.org/zap"
)

type PredictHandler struct {
	logger  *zap.Logger
	service services.ScoringService
}

func NewPredictHandler(logger *zap.Logger, svc services.ScoringService) *PredictHandler {
	return &PredictHandler{logger: logger, service: svc}
}

// RegisterRoutes registers prediction routes on the provided Gin engine.
func (h *PredictHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/predict", h.Predict)
}

func (h *PredictHandler) Predict(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	var req views.PredictRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		// Rejected before reaching the model.
		resp := pkg.ToErrorResponse(h.logger, traceID,
			pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid request body", err))
		c.JSON(resp.Status, resp)
		return
	}

	probability, err := h.service.Predict(c.Request.Context(), traceID, req.Features())
	if err != nil {
		// Single-shot: no retry.
		h.logger.Error("prediction failed", zap.String(pkg.TraceId, traceID), zap.Error(err))
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	c.JSON(http.StatusOK, views.PredictResponse{FraudProbability: probability})
}
