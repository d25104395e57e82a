package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bsvalues/terrafusion-sync/internal/api/dto"
	"github.com/bsvalues/terrafusion-sync/internal/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SubmitJob handles POST /api/v1/jobs
// Validates the submission, records a PENDING job, and enqueues it for the
// worker fleet.
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var req dto.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.ledger.Submit(c.Request.Context(), ledger.JobType(req.JobType), req.CountyID, req.Parameters)
	if err != nil {
		h.respondError(c, err, "Failed to submit job")
		return
	}

	msg, err := json.Marshal(map[string]string{"job_id": job.JobID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode job message"})
		return
	}

	if err := h.publisher.PublishWithRetry(c.Request.Context(), msg, "application/json"); err != nil {
		h.logger.Error("Failed to enqueue job message",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		// The row exists but no worker will ever see it. Fail it in
		// place rather than leave it PENDING forever.
		if failErr := h.ledger.Fail(c.Request.Context(), job.JobID, "failed to enqueue job message"); failErr != nil {
			h.logger.Error("Failed to mark unenqueued job as failed",
				slog.String("job_id", job.JobID),
				slog.String("error", failErr.Error()),
			)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue job"})
		return
	}

	c.JSON(http.StatusAccepted, dto.FromJob(job))
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		h.logger.Error("Invalid job_id format", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.ledger.Get(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err, "Failed to get job")
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs newest first with optional county/type/status filters and
// cursor pagination.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := ledger.JobFilter{
		CountyID: req.CountyID,
		JobType:  ledger.JobType(req.JobType),
		Status:   ledger.Status(req.Status),
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	jobs, err := h.ledger.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "Failed to list jobs")
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	jobResponse := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		jobResponse[i] = dto.FromJob(&jobs[i])
	}

	var nextCursor string
	if hasMore {
		lastJob := jobs[len(jobs)-1]
		nextCursor = EncodeJobCursor(&ledger.JobCursor{
			CreatedAt: lastJob.CreatedAt,
			JobID:     lastJob.JobID,
		})
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobResponse,
		NextCursor: nextCursor,
	})
}

// respondError maps the ledger error taxonomy onto HTTP statuses.
func (h *JobHandler) respondError(c *gin.Context, err error, logMsg string) {
	var (
		validationErr *ledger.ValidationError
		stateErr      *ledger.InvalidStateError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, ledger.ErrScopeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{"error": stateErr.Error()})
	default:
		h.logger.Error(logMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": logMsg})
	}
}
