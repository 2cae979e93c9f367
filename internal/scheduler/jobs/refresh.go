package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/pkg/logger"
)

// CycleRunner runs one analysis cycle
type CycleRunner interface {
	RunCycle(ctx context.Context, trigger string) *contracts.CycleSummary
}

// RefreshJob drives the periodic analysis cycle
type RefreshJob struct {
	runner   CycleRunner
	schedule string
	logger   *logger.Logger
}

// NewRefreshJob creates a new refresh job
func NewRefreshJob(runner CycleRunner, schedule string, log *logger.Logger) *RefreshJob {
	if schedule == "" {
		schedule = "@every 30s"
	}
	return &RefreshJob{
		runner:   runner,
		schedule: schedule,
		logger:   log.Module("refresh_job"),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "refresh_cycle"
}

// Schedule returns the cron schedule
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run executes one scheduled cycle.
// Partial failures are reported in the summary only; the job fails when no symbol got through.
func (j *RefreshJob) Run(ctx context.Context) error {
	summary := j.runner.RunCycle(ctx, contracts.TriggerScheduled)

	j.logger.WithFields(map[string]interface{}{
		"processed": summary.Processed,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"duration":  summary.Duration,
	}).Info("Refresh cycle completed")

	if summary.Failed > 0 && summary.Processed == 0 && summary.Skipped == 0 {
		return fmt.Errorf("refresh cycle: all %d symbols failed: %v", summary.Failed, summary.FailedSymbols())
	}
	return nil
}
