package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helderdigital/engage-go/internal/application/services"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/performance"
	"github.com/helderdigital/engage-go/internal/presentation/http/middleware"
)

// QuickScanHandlers contains the quiz funnel handlers.
type QuickScanHandlers struct {
	quickScanService *services.QuickScanService
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewQuickScanHandlers creates quickscan handlers with injected dependencies
func NewQuickScanHandlers(quickScanService *services.QuickScanService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *QuickScanHandlers {
	return &QuickScanHandlers{
		quickScanService: quickScanService,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

type quickScanMilestone struct {
	Metadata map[string]any `json:"metadata"`
}

// GetConfig handles GET /api/v1/quickscan/config - the visitor's presentation
func (h *QuickScanHandlers) GetConfig(c *gin.Context) {
	visitorID, exists := middleware.GetVisitorID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor context not found"})
		return
	}

	marker := h.perfTracker.StartOperation("experiments:quickscan_config", visitorID)
	defer h.perfTracker.CompleteOperation(marker)

	c.JSON(http.StatusOK, h.quickScanService.GetConfig(visitorID))
}

// PostStart handles POST /api/v1/quickscan/start
func (h *QuickScanHandlers) PostStart(c *gin.Context) {
	h.milestone(c, h.quickScanService.RecordStart)
}

// PostProgress handles POST /api/v1/quickscan/progress
func (h *QuickScanHandlers) PostProgress(c *gin.Context) {
	h.milestone(c, h.quickScanService.RecordProgress)
}

// PostComplete handles POST /api/v1/quickscan/complete
func (h *QuickScanHandlers) PostComplete(c *gin.Context) {
	h.milestone(c, h.quickScanService.RecordComplete)
}

func (h *QuickScanHandlers) milestone(c *gin.Context, record func(string, map[string]any) *services.ActivityResult) {
	visitorID, exists := middleware.GetVisitorID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor context not found"})
		return
	}

	var req quickScanMilestone
	// The milestone body is optional; a bare POST is valid.
	_ = c.ShouldBindJSON(&req)

	result := record(visitorID, req.Metadata)
	c.JSON(http.StatusOK, gin.H{
		"visitorId":       visitorID,
		"totalScore":      result.Profile.TotalScore,
		"engagementLevel": result.Profile.EngagementLevel,
		"firedRules":      result.FiredRules,
	})
}
