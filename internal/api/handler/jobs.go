package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"transferscan/internal/domain"
	"transferscan/internal/logger"
	"transferscan/internal/repository"
	"transferscan/internal/service"
)

// JobsHandler handles job submission and polling.
type JobsHandler struct {
	store   *repository.JobStore
	matcher *service.Matcher
	logger  *logger.Logger
}

// NewJobsHandler creates a new jobs handler.
// Parameters:
//   - store: job store for polling.
//   - matcher: matcher launched per submitted job.
//   - log: logger instance.
//
// Returns:
//   - *JobsHandler: initialized handler.
func NewJobsHandler(store *repository.JobStore, matcher *service.Matcher, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		store:   store,
		matcher: matcher,
		logger:  log,
	}
}

// SubmitResponse is the job submission API response.
type SubmitResponse struct {
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ListResponse is the job listing API response.
type ListResponse struct {
	Jobs  []domain.Job `json:"jobs"`
	Total int          `json:"total"`
}

// Submit accepts a match request and launches a background job for it.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *JobsHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.CtxWarn(ctx, "Invalid match request: client_ip=%s, error=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID := uuid.New().String()
	h.store.Create(jobID)
	h.matcher.Launch(jobID, req)

	logger.CtxInfo(ctx, "Accepted match job: job_id=%s, institution=%q, major=%q, course=%q",
		jobID, req.InstitutionName, req.Major, req.Course)

	c.JSON(http.StatusAccepted, SubmitResponse{
		JobID:   jobID,
		Status:  string(domain.JobStatusProcessing),
		Message: "Matching started; poll /jobs/" + jobID + " for progress",
	})
}

// Get returns the current state of one job.
func (h *JobsHandler) Get(c *gin.Context) {
	id := c.Param("id")

	job, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, job)
}

// List returns a snapshot of all jobs, newest first.
func (h *JobsHandler) List(c *gin.Context) {
	jobs := h.store.List()
	c.JSON(http.StatusOK, ListResponse{
		Jobs:  jobs,
		Total: len(jobs),
	})
}
