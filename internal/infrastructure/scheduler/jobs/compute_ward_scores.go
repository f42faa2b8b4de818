// Package jobs contains the scheduled jobs of the scoring service.
package jobs

import (
	"context"
	"time"

	"github.com/neta-watch/ward-pulse/internal/application/command"
	"github.com/neta-watch/ward-pulse/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPUTE WARD SCORES JOB
// ══════════════════════════════════════════════════════════════════════════════

// ComputeWardScoresJob runs the weekly scoring batch: aggregate the trailing
// week of civic signals, score every ward, rank them, and persist the rows.
// The job is safe to re-run; rows are keyed on (pincode, week, year) and a
// rerun overwrites the week.
type ComputeWardScoresJob struct {
	handler *command.ComputeWeeklyScoresHandler
	log     *logger.Logger
	timeout time.Duration
}

// NewComputeWardScoresJob creates the job. A zero timeout defaults to
// 5 minutes, comfortably above what a full run needs.
func NewComputeWardScoresJob(handler *command.ComputeWeeklyScoresHandler, log *logger.Logger, timeout time.Duration) *ComputeWardScoresJob {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ComputeWardScoresJob{
		handler: handler,
		log:     log.With(logger.Component("compute_ward_scores_job")),
		timeout: timeout,
	}
}

// Name returns the unique job name.
func (j *ComputeWardScoresJob) Name() string { return "compute_ward_scores" }

// Description returns a human-readable description.
func (j *ComputeWardScoresJob) Description() string {
	return "Aggregates the trailing week of polls and alerts into ranked ward report cards"
}

// Run executes the weekly scoring batch.
func (j *ComputeWardScoresJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result, err := j.handler.Handle(ctx)
	if err != nil {
		return err
	}

	j.log.Info("weekly scoring run finished",
		logger.Int("wards_processed", result.WardsProcessed),
		logger.Week(result.WeekNumber, result.Year),
		logger.Duration("duration", result.Duration))
	return nil
}
