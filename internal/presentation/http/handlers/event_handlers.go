// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helderdigital/engage-go/internal/application/services"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/performance"
	"github.com/helderdigital/engage-go/internal/presentation/http/middleware"
)

// EventHandlers contains the activity ingestion handlers.
type EventHandlers struct {
	scoringService *services.ScoringService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewEventHandlers creates event handlers with injected dependencies
func NewEventHandlers(scoringService *services.ScoringService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *EventHandlers {
	return &EventHandlers{
		scoringService: scoringService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

type activityRequest struct {
	Trigger  string         `json:"trigger" binding:"required"`
	Metadata map[string]any `json:"metadata"`
}

// PostActivity handles POST /api/v1/events - processes one site activity
func (h *EventHandlers) PostActivity(c *gin.Context) {
	visitorID, exists := middleware.GetVisitorID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("scoring:activity_request", visitorID)
	defer h.perfTracker.CompleteOperation(marker)

	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trigger is required"})
		return
	}

	result := h.scoringService.ProcessActivity(visitorID, req.Trigger, req.Metadata)

	h.logger.Scoring().Debug("Activity request processed",
		"visitorId", visitorID, "trigger", req.Trigger,
		"firedRules", len(result.FiredRules), "duration", time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"visitorId":       visitorID,
		"totalScore":      result.Profile.TotalScore,
		"engagementLevel": result.Profile.EngagementLevel,
		"firedRules":      result.FiredRules,
	})
}
