// internal/handlers/job.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/commerce-jobs/internal/scheduler"
	"github.com/javajoker/commerce-jobs/internal/utils"
)

type JobHandler struct {
	scheduler *scheduler.Scheduler
}

func NewJobHandler(s *scheduler.Scheduler) *JobHandler {
	return &JobHandler{scheduler: s}
}

// ListJobs returns the registered job names.
func (h *JobHandler) ListJobs(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{"jobs": h.scheduler.Names()})
}

// TriggerJob runs one job synchronously and returns its run summary. The
// run goes through the same lease as scheduled ticks, so a trigger can
// never race a running instance.
func (h *JobHandler) TriggerJob(c *gin.Context) {
	name := c.Param("name")

	summary, err := h.scheduler.RunNow(c.Request.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrUnknownJob):
			utils.NotFoundResponse(c, "job")
		case errors.Is(err, scheduler.ErrAlreadyRunning):
			utils.ConflictResponse(c, "job is already running")
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"job":     name,
		"summary": summary,
	})
}
