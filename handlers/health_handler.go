package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/TrailParty/trail-party-backend/logger"
	"github.com/gin-gonic/gin"
)

// HealthCheck is a named dependency probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler reports process liveness and dependency readiness.
type HealthHandler struct {
	checks []HealthCheck
}

// NewHealthHandler creates a health handler over the given dependency probes.
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// LivenessCheck reports that the process is up.
// GET /health/liveness
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "up"})
}

// ReadinessCheck probes every dependency and reports per-dependency status.
// GET /health/readiness
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	log := logger.GetLogger()
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			log.Warnw("Readiness check failed", "dependency", check.Name, "error", err)
			results[check.Name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[check.Name] = "up"
	}

	c.JSON(status, gin.H{
		"status":       statusLabel(status),
		"dependencies": results,
	})
}

func statusLabel(status int) string {
	if status == http.StatusOK {
		return "ready"
	}
	return "degraded"
}
