package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"text-analysis-api/models"
	"text-analysis-api/services"
)

// PredictionService is what the HTTP layer needs from the prediction pipeline.
type PredictionService interface {
	PredictConsistency(ctx context.Context, premise, hypothesis string) (*models.ConsistencyResult, error)
	PredictGibberish(ctx context.Context, text string) (*models.GibberishResult, error)
	ListConsistency(ctx context.Context, limit int) ([]models.ConsistencyResult, error)
	ListGibberish(ctx context.Context, limit int) ([]models.GibberishResult, error)
	Stats(ctx context.Context, kind models.Kind, limit int) (*services.ResultStats, error)
}

// ConsistencyRequest carries the premise in input_1 and the hypothesis in
// input_2. Empty strings are accepted; absent fields are not.
type ConsistencyRequest struct {
	Input1 *string `json:"input_1" binding:"required"`
	Input2 *string `json:"input_2" binding:"required"`
}

type GibberishRequest struct {
	InputText *string `json:"input_text" binding:"required"`
}

type PredictionHandler struct {
	svc PredictionService
}

func NewPredictionHandler(svc PredictionService) *PredictionHandler {
	return &PredictionHandler{svc: svc}
}

func (h *PredictionHandler) PredictConsistency(c *gin.Context) {
	var req ConsistencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "input_1 and input_2 are required")
		return
	}

	rec, err := h.svc.PredictConsistency(c.Request.Context(), *req.Input1, *req.Input2)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *PredictionHandler) PredictGibberish(c *gin.Context) {
	var req GibberishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "input_text is required")
		return
	}

	rec, err := h.svc.PredictGibberish(c.Request.Context(), *req.InputText)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
