package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helderdigital/engage-go/internal/application/services"
	"github.com/helderdigital/engage-go/internal/infrastructure/messaging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/presentation/http/middleware"
	"github.com/helderdigital/engage-go/pkg/config"
)

// SSEHandlers streams a visitor's own tracking events.
type SSEHandlers struct {
	broadcaster    *messaging.SSEBroadcaster
	visitorService *services.VisitorService
	logger         *logging.ChanneledLogger
}

// NewSSEHandlers creates SSE handlers with injected dependencies
func NewSSEHandlers(broadcaster *messaging.SSEBroadcaster, visitorService *services.VisitorService, logger *logging.ChanneledLogger) *SSEHandlers {
	return &SSEHandlers{
		broadcaster:    broadcaster,
		visitorService: visitorService,
		logger:         logger,
	}
}

// Stream handles GET /api/v1/events/stream - a visitor-scoped SSE stream
func (h *SSEHandlers) Stream(c *gin.Context) {
	visitorID, exists := middleware.GetVisitorID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor context not found"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	messages := h.broadcaster.AddVisitorClient(visitorID)
	defer h.broadcaster.RemoveVisitorClient(messages, visitorID)

	heartbeat := time.NewTicker(time.Duration(config.SSEHeartbeatIntervalSeconds) * time.Second)
	defer heartbeat.Stop()

	deadline := time.NewTimer(time.Duration(config.SSEConnectionTimeoutMinutes) * time.Minute)
	defer deadline.Stop()

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"visitorId\":%q}\n\n", visitorID)
	flusher.Flush()

	for {
		select {
		case message, open := <-messages:
			if !open {
				return
			}
			fmt.Fprint(c.Writer, message)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": heartbeat\n\n")
			flusher.Flush()
		case <-deadline.C:
			h.logger.SSE().Debug("SSE connection timed out", "visitorId", visitorID)
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
