package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helderdigital/engage-go/internal/application/services"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/performance"
	"github.com/helderdigital/engage-go/internal/presentation/http/middleware"
)

// ExperimentHandlers contains the visitor-facing experimentation handlers.
type ExperimentHandlers struct {
	experimentService *services.ExperimentService
	logger            *logging.ChanneledLogger
	perfTracker       *performance.Tracker
}

// NewExperimentHandlers creates experiment handlers with injected dependencies
func NewExperimentHandlers(experimentService *services.ExperimentService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ExperimentHandlers {
	return &ExperimentHandlers{
		experimentService: experimentService,
		logger:            logger,
		perfTracker:       perfTracker,
	}
}

// GetVariant handles GET /api/v1/experiments/:id/variant - resolves the
// visitor's sticky variant, assigning one on first contact.
func (h *ExperimentHandlers) GetVariant(c *gin.Context) {
	visitorID, exists := middleware.GetVisitorID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor context not found"})
		return
	}
	experimentID := c.Param("id")

	if h.experimentService.GetExperiment(experimentID) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown experiment"})
		return
	}

	variant := h.experimentService.AssignVariant(visitorID, experimentID)
	if variant == nil {
		// No assignment possible: the caller renders its default presentation.
		c.JSON(http.StatusOK, gin.H{"assigned": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assigned":  true,
		"variantId": variant.ID,
		"config":    variant.Config,
	})
}

type conversionRequest struct {
	Value *float64 `json:"value"`
}

// PostConversion handles POST /api/v1/experiments/:id/convert
func (h *ExperimentHandlers) PostConversion(c *gin.Context) {
	visitorID, exists := middleware.GetVisitorID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor context not found"})
		return
	}
	experimentID := c.Param("id")

	var req conversionRequest
	// The value is optional; a bare POST is valid.
	_ = c.ShouldBindJSON(&req)

	recorded := h.experimentService.RecordConversion(visitorID, experimentID, req.Value)
	c.JSON(http.StatusOK, gin.H{"recorded": recorded})
}
