// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/helderdigital/engage-go/internal/application/container"
	"github.com/helderdigital/engage-go/internal/presentation/http/handlers"
	"github.com/helderdigital/engage-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	eventHandlers := handlers.NewEventHandlers(container.ScoringService, container.Logger, container.PerfTracker)
	profileHandlers := handlers.NewProfileHandlers(container.ScoringService, container.Logger, container.PerfTracker)
	experimentHandlers := handlers.NewExperimentHandlers(container.ExperimentService, container.Logger, container.PerfTracker)
	quickScanHandlers := handlers.NewQuickScanHandlers(container.QuickScanService, container.Logger, container.PerfTracker)
	sseHandlers := handlers.NewSSEHandlers(container.SSEBroadcaster, container.VisitorService, container.Logger)
	healthHandlers := handlers.NewHealthHandlers(container)
	adminHandlers := handlers.NewAdminHandlers(container)

	// Visitor-facing API: every route resolves the visitor identity first.
	api := r.Group("/api/v1")
	api.Use(middleware.VisitorMiddleware(container.VisitorService))
	{
		api.GET("/health", healthHandlers.GetHealth)

		api.POST("/events", eventHandlers.PostActivity)
		api.GET("/events/stream", sseHandlers.Stream)

		api.GET("/profile", profileHandlers.GetProfile)
		api.GET("/profile/activities", profileHandlers.GetActivities)

		api.GET("/experiments/:id/variant", experimentHandlers.GetVariant)
		api.POST("/experiments/:id/convert", experimentHandlers.PostConversion)

		quickscan := api.Group("/quickscan")
		{
			quickscan.GET("/config", quickScanHandlers.GetConfig)
			quickscan.POST("/start", quickScanHandlers.PostStart)
			quickscan.POST("/progress", quickScanHandlers.PostProgress)
			quickscan.POST("/complete", quickScanHandlers.PostComplete)
		}
	}

	// Back-office API: password login, JWT everywhere else.
	admin := r.Group("/api/admin")
	{
		admin.POST("/login", adminHandlers.Login)

		admin.Use(middleware.AdminAuthMiddleware(container.AuthService))
		{
			admin.GET("/status", adminHandlers.GetStatus)
			admin.GET("/dashboard", adminHandlers.GetDashboard)

			admin.GET("/rules", adminHandlers.ListRules)
			admin.PATCH("/rules/:id", adminHandlers.SetRuleActivation)

			admin.GET("/experiments", adminHandlers.ListExperiments)
			admin.PATCH("/experiments/:id", adminHandlers.SetExperimentActivation)

			admin.GET("/leads", adminHandlers.GetHighValueLeads)
			admin.GET("/profiles", adminHandlers.ListProfiles)
			admin.GET("/profiles/:visitorId", adminHandlers.GetProfile)
			admin.POST("/profiles/:visitorId/reset", adminHandlers.ResetProfile)

			admin.GET("/logs/levels", adminHandlers.GetLogLevels)
			admin.POST("/logs/levels", adminHandlers.SetLogLevel)

			admin.GET("/feed", adminHandlers.LiveFeed)
		}
	}

	return r
}
