package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"text-analysis-api/models"
)

func (h *PredictionHandler) ListConsistency(c *gin.Context) {
	rows, err := h.svc.ListConsistency(c.Request.Context(), ParseLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *PredictionHandler) ListGibberish(c *gin.Context) {
	rows, err := h.svc.ListGibberish(c.Request.Context(), ParseLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Stats handles GET /api/results/:kind/stats.
func (h *PredictionHandler) Stats(c *gin.Context) {
	kind, ok := models.ParseKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown prediction kind"})
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), kind, ParseLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
