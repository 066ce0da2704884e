package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency. Optional checks report their failure
// without marking the service not ready.
type HealthCheck struct {
	Name     string
	Check    func(ctx context.Context) error
	Optional bool
}

type HealthHandler struct {
	checks []HealthCheck
}

func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// Health handles GET /health. It is a liveness probe and touches nothing.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthStatus{Status: "healthy"})
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string, len(h.checks))
	ready := true
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			components[check.Name] = "error: " + err.Error()
			if !check.Optional {
				ready = false
			}
			continue
		}
		components[check.Name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, HealthStatus{Status: "not ready", Components: components})
		return
	}
	c.JSON(http.StatusOK, HealthStatus{Status: "ready", Components: components})
}
