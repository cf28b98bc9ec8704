package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helderdigital/engage-go/internal/application/container"
)

// HealthHandlers serves liveness and degradation status.
type HealthHandlers struct {
	container *container.Container
}

// NewHealthHandlers creates health handlers over the container.
func NewHealthHandlers(c *container.Container) *HealthHandlers {
	return &HealthHandlers{container: c}
}

// GetHealth handles GET /api/v1/health
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	status := "ok"
	if h.container.PersistenceDegraded() {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":              status,
		"persistenceDegraded": h.container.PersistenceDegraded(),
	})
}
