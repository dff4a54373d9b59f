package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transferscan/internal/api"
	"transferscan/internal/artifact"
	"transferscan/internal/catalog/assist"
	"transferscan/internal/config"
	"transferscan/internal/logger"
	"transferscan/internal/pdftext"
	"transferscan/internal/repository"
	"transferscan/internal/service"
)

func main() {
	// Initialize logger from environment
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	upstreamTimeout := time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second

	// Initialize upstream collaborators
	directory := assist.NewClient(&assist.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		AcademicYearID: cfg.Upstream.AcademicYearID,
		CategoryCode:   cfg.Upstream.CategoryCode,
		Timeout:        upstreamTimeout,
		UserAgent:      cfg.Upstream.UserAgent,
	})
	fetcher := artifact.NewHTTPFetcher(&artifact.Config{
		BaseURL:   cfg.Upstream.BaseURL,
		Timeout:   upstreamTimeout,
		UserAgent: cfg.Upstream.UserAgent,
	})
	converter := pdftext.NewConverter(cfg.PDFText.Binary)

	// Initialize job store and matcher
	store := repository.NewJobStore()
	matcher := service.NewMatcher(directory, fetcher, converter, store, appLogger)

	// Periodically drop stale job records to bound memory
	retention := time.Duration(cfg.Jobs.RetentionHours) * time.Hour
	sweepStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Jobs.SweepIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := store.Sweep(retention); removed > 0 {
					appLogger.WithField("count", removed).Info("Swept stale jobs")
				}
			case <-sweepStop:
				return
			}
		}
	}()

	// Setup router
	router := api.SetupRouter(store, matcher, cfg, appLogger)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	close(sweepStop)

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
