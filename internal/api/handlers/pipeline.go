package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/internal/scheduler"
	"github.com/wonny/fxpulse/pkg/logger"
)

// RefreshTimeout bounds a manual cycle
const RefreshTimeout = 25 * time.Second

// CycleRunner runs one analysis cycle
type CycleRunner interface {
	RunCycle(ctx context.Context, trigger string) *contracts.CycleSummary
}

// JobStatsSource reports scheduler job statistics
type JobStatsSource interface {
	GetJobStats() map[string]scheduler.JobStats
}

// PipelineHandler exposes the manual trigger and scheduler state
type PipelineHandler struct {
	runner CycleRunner
	jobs   JobStatsSource
	logger *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler.
// jobs may be nil when the scheduler is not running.
func NewPipelineHandler(runner CycleRunner, jobs JobStatsSource, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		runner: runner,
		jobs:   jobs,
		logger: log,
	}
}

// Refresh runs one cycle synchronously and returns its summary.
// The cycle outlives a disconnecting client; it is bounded by RefreshTimeout only.
// POST /api/refresh
func (h *PipelineHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), RefreshTimeout)
	defer cancel()

	summary := h.runner.RunCycle(ctx, contracts.TriggerManual)

	h.logger.WithFields(map[string]interface{}{
		"processed": summary.Processed,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	}).Info("Manual refresh completed")

	respondJSON(w, http.StatusOK, summary)
}

// ListJobs returns scheduler job statistics
// GET /api/scheduler/jobs
func (h *PipelineHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	stats := map[string]scheduler.JobStats{}
	if h.jobs != nil {
		stats = h.jobs.GetJobStats()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  stats,
		"count": len(stats),
	})
}
