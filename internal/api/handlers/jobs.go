package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/universe/internal/scheduler"
	"github.com/wonny/universe/pkg/logger"
)

// JobController exposes scheduler state and manual triggers
type JobController interface {
	GetJobStats() map[string]scheduler.JobStats
	Trigger(jobName string) error
}

// JobsHandler handles scheduler endpoints
type JobsHandler struct {
	jobs   JobController
	logger *logger.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(jobs JobController, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		jobs:   jobs,
		logger: log.WithField("module", "api_jobs"),
	}
}

// GetStats returns run statistics for every job
// GET /api/jobs
func (h *JobsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.jobs.GetJobStats())
}

// Run starts a job in the background
// POST /api/jobs/{name}/run
func (h *JobsHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.jobs.Trigger(name); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.WithError(err).WithField("job", name).Error("Failed to trigger job")
		respondError(w, http.StatusInternalServerError, "Failed to trigger job")
		return
	}

	h.logger.WithField("job", name).Info("Job triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"job":    name,
	})
}
