// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/helderdigital/engage-go/internal/application/services"
	"github.com/helderdigital/engage-go/internal/domain/engagement"
	"github.com/helderdigital/engage-go/internal/domain/experiments"
	"github.com/helderdigital/engage-go/internal/infrastructure/email"
	"github.com/helderdigital/engage-go/internal/infrastructure/messaging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/performance"
	"github.com/helderdigital/engage-go/internal/infrastructure/persistence/database"
	"github.com/helderdigital/engage-go/internal/infrastructure/persistence/state"
	"github.com/helderdigital/engage-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Engine services
	VisitorService       *services.VisitorService
	ScoringService       *services.ScoringService
	ExperimentService    *services.ExperimentService
	QuickScanService     *services.QuickScanService
	LeadAnalyticsService *services.LeadAnalyticsService
	AuthService          *services.AuthService

	// Catalogs
	RuleCatalog       *engagement.RuleCatalog
	ExperimentCatalog *experiments.Catalog

	// Messaging
	SSEBroadcaster *messaging.SSEBroadcaster
	LiveFeed       *messaging.LiveFeedBroadcaster
	EventSink      messaging.EventSink

	// Infrastructure
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
	Store       state.Store
	DB          *database.DB
	Email       email.Service

	fallback *state.FallbackStore
}

// NewContainer creates and wires all singleton services. Persistence failures
// do not abort construction: the engine falls back to memory-only state and
// keeps serving.
func NewContainer(logger *logging.ChanneledLogger) *Container {
	c := &Container{
		Logger:      logger,
		PerfTracker: performance.NewTracker(nil),
	}

	c.Store = c.buildStore()

	emailSvc, err := email.NewService()
	if err != nil {
		logger.Email().Info("Lead alert email disabled", "reason", err.Error())
	}
	c.Email = emailSvc

	c.SSEBroadcaster = messaging.NewSSEBroadcaster(config.EventBufferSize, logger)
	c.LiveFeed = messaging.NewLiveFeedBroadcaster(nil, logger)
	c.EventSink = messaging.NewFanoutSink(c.SSEBroadcaster, c.LiveFeed)

	c.RuleCatalog = engagement.NewRuleCatalog()
	c.ExperimentCatalog = experiments.NewCatalog()

	c.VisitorService = services.NewVisitorService(c.Store, c.EventSink, logger)
	c.ScoringService = services.NewScoringService(
		c.RuleCatalog, c.Store, c.EventSink, c.Email, logger, c.PerfTracker,
		services.ScoringOptions{
			MaxScore:           config.MaxLeadScore,
			HighValueThreshold: config.HighValueThreshold,
			AlertRecipient:     config.LeadAlertRecipient,
		})
	c.ExperimentService = services.NewExperimentService(
		c.ExperimentCatalog, c.Store, c.EventSink, logger, c.PerfTracker,
		services.ExperimentOptions{})
	c.QuickScanService = services.NewQuickScanService(c.ScoringService, c.ExperimentService, logger)
	c.LeadAnalyticsService = services.NewLeadAnalyticsService(c.ScoringService, c.ExperimentService, logger, c.PerfTracker)
	c.AuthService = services.NewAuthService(config.AdminPasswordHash, config.JWTSecret, config.TokenLifetime, logger)

	c.LiveFeed.SetStatsProvider(c.LeadAnalyticsService)

	return c
}

// buildStore connects the persistent store, degrading to memory-only when the
// database is unreachable or its schema cannot be prepared.
func (c *Container) buildStore() state.Store {
	db, err := database.NewConnectionWithLogger(config.DBDriver, config.DBPath, c.Logger)
	if err != nil {
		c.Logger.Database().Warn("Database unavailable, running memory-only",
			"driver", config.DBDriver, "error", err.Error())
		return state.NewMemoryStateStore()
	}
	c.DB = db

	sqlStore, err := state.NewSQLStateStore(db, c.Logger)
	if err != nil {
		c.Logger.Database().Warn("State table unavailable, running memory-only", "error", err.Error())
		return state.NewMemoryStateStore()
	}

	c.fallback = state.NewFallbackStore(sqlStore, c.Logger)
	return c.fallback
}

// PersistenceDegraded reports whether the engine is running memory-only.
func (c *Container) PersistenceDegraded() bool {
	return c.fallback == nil || c.fallback.Degraded()
}

// Close releases held infrastructure resources.
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
