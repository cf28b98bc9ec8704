package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helderdigital/engage-go/internal/application/services"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/performance"
	"github.com/helderdigital/engage-go/internal/presentation/http/middleware"
)

// ProfileHandlers serves the visitor's own scoring state.
type ProfileHandlers struct {
	scoringService *services.ScoringService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewProfileHandlers creates profile handlers with injected dependencies
func NewProfileHandlers(scoringService *services.ScoringService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ProfileHandlers {
	return &ProfileHandlers{
		scoringService: scoringService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// GetProfile handles GET /api/v1/profile - the visitor's own lead profile
func (h *ProfileHandlers) GetProfile(c *gin.Context) {
	visitorID, exists := middleware.GetVisitorID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor context not found"})
		return
	}

	marker := h.perfTracker.StartOperation("scoring:profile_request", visitorID)
	defer h.perfTracker.CompleteOperation(marker)

	profile := h.scoringService.GetProfile(visitorID)
	if profile == nil {
		c.JSON(http.StatusOK, gin.H{
			"visitorId":       visitorID,
			"totalScore":      0,
			"engagementLevel": h.scoringService.GetEngagementLevel(visitorID),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"visitorId":       profile.VisitorID,
		"totalScore":      profile.TotalScore,
		"engagementLevel": profile.EngagementLevel,
		"firstActivity":   profile.FirstActivity,
		"lastActivity":    profile.LastActivity,
		"activityCount":   len(profile.Activities),
		"tags":            profile.Tags,
	})
}

// GetActivities handles GET /api/v1/profile/activities - the visitor's log
func (h *ProfileHandlers) GetActivities(c *gin.Context) {
	visitorID, exists := middleware.GetVisitorID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor context not found"})
		return
	}

	marker := h.perfTracker.StartOperation("scoring:activities_request", visitorID)
	defer h.perfTracker.CompleteOperation(marker)

	activities := h.scoringService.GetActivities(visitorID)
	c.JSON(http.StatusOK, gin.H{"visitorId": visitorID, "activities": activities})
}
