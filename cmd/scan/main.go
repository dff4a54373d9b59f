package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/google/uuid"
	"transferscan/internal/artifact"
	"transferscan/internal/catalog/assist"
	"transferscan/internal/config"
	"transferscan/internal/domain"
	"transferscan/internal/logger"
	"transferscan/internal/pdftext"
	"transferscan/internal/repository"
	"transferscan/internal/service"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "transferscan-scan",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	institution := flag.String("institution", "", "Receiving institution name (exact)")
	major := flag.String("major", "", "Major agreement label (exact)")
	course := flag.String("course", "", "Course code to look up")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *institution == "" || *major == "" || *course == "" {
		appLogger.Fatal("Flags -institution, -major and -course are all required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	upstreamTimeout := time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second

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

	store := repository.NewJobStore()
	matcher := service.NewMatcher(directory, fetcher, converter, store, appLogger)

	req := domain.MatchRequest{
		InstitutionName: *institution,
		Major:           *major,
		Course:          *course,
	}

	appLogger.WithFields(logger.Fields{
		"institution": req.InstitutionName,
		"major":       req.Major,
		"course":      req.Course,
	}).Info("Starting scan")

	// Run the pipeline synchronously against a local store
	jobID := uuid.New().String()
	store.Create(jobID)
	matcher.Run(context.Background(), jobID, req)

	job, err := store.Get(jobID)
	if err != nil {
		appLogger.WithError(err).Fatal("Job record disappeared")
	}

	if job.Status == domain.JobStatusFailed {
		appLogger.WithField("error", job.Error).Error("Scan failed")
		os.Exit(1)
	}

	for _, match := range job.Matches {
		appLogger.WithFields(logger.Fields{
			"institution":  match.InstitutionName,
			"artifact_key": match.ArtifactKey,
			"articulation": match.ArticulatedText,
		}).Info("Articulated course found")
	}

	appLogger.WithFields(logger.Fields{
		"processed": job.TotalProcessed,
		"matched":   job.MatchedCount,
	}).Info(job.Summary)
}
