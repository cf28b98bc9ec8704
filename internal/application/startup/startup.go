// Package startup prepares the application server
package startup

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helderdigital/engage-go/internal/application/container"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/presentation/http/server"
	"github.com/helderdigital/engage-go/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until the
// process receives a shutdown signal.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	log.Println("Initializing engagement engine...")

	// Step 1: Channeled logging
	logger, err := logging.NewChanneledLogger(nil)
	if err != nil {
		return err
	}
	logger.Startup().Info("Channeled logging initialized")

	// Step 2: Dependency injection container (store, catalogs, engines)
	logger.Startup().Info("Initializing dependency injection container...")
	startContainerTime := time.Now()
	appContainer := container.NewContainer(logger)
	logger.Startup().Info("Dependency injection container created",
		"persistenceDegraded", appContainer.PersistenceDegraded(),
		"duration", time.Since(startContainerTime))

	// Step 3: Background loops
	go appContainer.LiveFeed.Run()
	logger.Startup().Info("Admin live feed broadcaster started")

	perfStop := make(chan struct{})
	go appContainer.PerfTracker.Run(perfStop)
	logger.Startup().Info("Performance maintenance loop started")

	// Step 4: HTTP server
	logger.Startup().Info("Starting HTTP server...")
	startServerTime := time.Now()
	httpServer := server.New(config.Port, appContainer)
	logger.Startup().Info("HTTP server initialized", "port", config.Port, "duration", time.Since(startServerTime))

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	close(perfStop)

	logger.Shutdown().Info("Closing infrastructure...")
	if err := appContainer.Close(); err != nil {
		logger.Shutdown().Error("Error closing infrastructure", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
