package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/bookmark-engine/model"
)

var validJobStatuses = map[model.JobStatus]bool{
	model.JobStatusPending:   true,
	model.JobStatusRunning:   true,
	model.JobStatusCompleted: true,
	model.JobStatusFailed:    true,
	model.JobStatusCancelled: true,
}

// GetJobHandler returns the status of a job.
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")
	if api.jobs == nil {
		SendJobNotFoundError(c, jobID)
		return
	}

	job, err := api.jobs.GetJob(jobID)
	if err != nil {
		SendJobNotFoundError(c, jobID)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobsHandler lists jobs. The status query parameter filters by status.
func (api *API) ListJobsHandler(c *gin.Context) {
	var statusFilter *model.JobStatus
	if raw := c.Query("status"); raw != "" {
		status := model.JobStatus(raw)
		if !validJobStatuses[status] {
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed,
				"Invalid status filter '"+raw+"'",
				ErrorDetail{Field: "status", Message: "must be one of pending, running, completed, failed, cancelled"})
			return
		}
		statusFilter = &status
	}

	list := []*model.Job{}
	if api.jobs != nil {
		list = api.jobs.ListJobs(statusFilter)
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  list,
		"total": len(list),
	})
}

// GetJobMetricsHandler returns job execution metrics.
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	source, ok := api.jobs.(metricsSource)
	if !ok || api.jobs == nil {
		SendError(c, http.StatusNotImplemented, ErrorCodeNotSupported, "Job metrics are not available")
		return
	}

	c.JSON(http.StatusOK, source.GetMetrics())
}
