package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/helderdigital/engage-go/internal/application/container"
	"github.com/helderdigital/engage-go/internal/application/services"
	"github.com/helderdigital/engage-go/internal/infrastructure/messaging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/pkg/config"
)

// AdminHandlers contains the back-office handlers: login, catalog management,
// dashboard, and the live feed.
type AdminHandlers struct {
	container *container.Container
	upgrader  websocket.Upgrader
}

// NewAdminHandlers creates admin handlers over the container.
func NewAdminHandlers(c *container.Container) *AdminHandlers {
	return &AdminHandlers{
		container: c,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/admin/login
func (h *AdminHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	token, err := h.container.AuthService.Login(req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GetStatus handles GET /api/admin/status
func (h *AdminHandlers) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"persistenceDegraded": h.container.PersistenceDegraded(),
		"visitors":            h.container.VisitorService.Count(),
		"performance":         h.container.PerfTracker.GetOverallStats(),
	})
}

// GetDashboard handles GET /api/admin/dashboard
func (h *AdminHandlers) GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.LeadAnalyticsService.Dashboard())
}

// ListRules handles GET /api/admin/rules
func (h *AdminHandlers) ListRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": h.container.ScoringService.ListRules()})
}

type activationRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetRuleActivation handles PATCH /api/admin/rules/:id
func (h *AdminHandlers) SetRuleActivation(c *gin.Context) {
	var req activationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active is required"})
		return
	}

	if !h.container.ScoringService.SetRuleActive(c.Param("id"), *req.Active) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown rule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ruleId": c.Param("id"), "active": *req.Active})
}

// ListExperiments handles GET /api/admin/experiments
func (h *AdminHandlers) ListExperiments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"experiments": h.container.ExperimentService.ListExperiments()})
}

// SetExperimentActivation handles PATCH /api/admin/experiments/:id
func (h *AdminHandlers) SetExperimentActivation(c *gin.Context) {
	var req activationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active is required"})
		return
	}

	if !h.container.ExperimentService.SetExperimentActive(c.Param("id"), *req.Active) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown experiment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"experimentId": c.Param("id"), "active": *req.Active})
}

// ListProfiles handles GET /api/admin/profiles
func (h *AdminHandlers) ListProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": h.container.ScoringService.AllProfiles()})
}

// GetHighValueLeads handles GET /api/admin/leads - profiles at or above the
// minScore floor, defaulting to the configured high-value threshold.
func (h *AdminHandlers) GetHighValueLeads(c *gin.Context) {
	minScore := config.HighValueThreshold
	if raw := c.Query("minScore"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minScore must be a non-negative integer"})
			return
		}
		minScore = parsed
	}

	c.JSON(http.StatusOK, gin.H{
		"minScore": minScore,
		"leads":    h.container.ScoringService.GetHighValueProfiles(minScore),
	})
}

// GetProfile handles GET /api/admin/profiles/:visitorId
func (h *AdminHandlers) GetProfile(c *gin.Context) {
	profile := h.container.ScoringService.GetProfile(c.Param("visitorId"))
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown visitor"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ResetProfile handles POST /api/admin/profiles/:visitorId/reset
func (h *AdminHandlers) ResetProfile(c *gin.Context) {
	if !h.container.ScoringService.ResetScore(c.Param("visitorId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown visitor"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"visitorId": c.Param("visitorId"), "reset": true})
}

// GetLogLevels handles GET /api/admin/logs/levels
func (h *AdminHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": h.container.Logger.GetChannelLevels()})
}

type logLevelRequest struct {
	Channel string `json:"channel" binding:"required"`
	Level   string `json:"level" binding:"required"`
}

// SetLogLevel handles POST /api/admin/logs/levels
func (h *AdminHandlers) SetLogLevel(c *gin.Context) {
	var req logLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel and level are required"})
		return
	}

	var level slog.Level
	switch strings.ToLower(req.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown level"})
		return
	}

	if err := h.container.Logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": req.Channel, "level": req.Level})
}

// LiveFeed handles GET /api/admin/feed - upgrades to a WebSocket carrying
// live tracking events plus periodic dashboard stats.
func (h *AdminHandlers) LiveFeed(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.container.Logger.SSE().Error("WebSocket upgrade failed", "error", err.Error())
		return
	}

	client := &messaging.FeedClient{Conn: conn, Send: make(chan []byte, 64)}
	h.container.LiveFeed.Register(client)

	// Writer pump. The feed closes Send on unregister.
	go func() {
		defer conn.Close()
		for message := range client.Send {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}()

	// Reader pump: discard inbound frames, unregister on disconnect.
	go func() {
		defer h.container.LiveFeed.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
