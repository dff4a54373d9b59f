package api

import (
	"github.com/gin-gonic/gin"
	"transferscan/internal/api/handler"
	"transferscan/internal/api/middleware"
	"transferscan/internal/config"
	"transferscan/internal/logger"
	"transferscan/internal/repository"
	"transferscan/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	store *repository.JobStore,
	matcher *service.Matcher,
	cfg *config.Config,
	log *logger.Logger,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	jobsHandler := handler.NewJobsHandler(store, matcher, log)

	// Health check
	r.GET("/health", healthHandler.Health)

	// Jobs
	r.POST("/jobs", jobsHandler.Submit)
	r.GET("/jobs", jobsHandler.List)
	r.GET("/jobs/:id", jobsHandler.Get)

	return r
}
