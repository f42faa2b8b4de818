package jobs

import (
	"context"
	"time"

	"github.com/neta-watch/ward-pulse/internal/domain/scoring"
	"github.com/neta-watch/ward-pulse/pkg/logger"
	"github.com/neta-watch/ward-pulse/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLEANUP OLD SCORES JOB
// ══════════════════════════════════════════════════════════════════════════════

// CleanupOldScoresJob deletes score rows older than the retention window.
// History endpoints only ever serve the last year, so rows beyond that are
// dead weight.
type CleanupOldScoresJob struct {
	scores    scoring.WardScoreRepository
	retention time.Duration
	log       *logger.Logger
}

// NewCleanupOldScoresJob creates the job. A zero retention defaults to
// 78 weeks (a year and a half of weekly rows).
func NewCleanupOldScoresJob(scores scoring.WardScoreRepository, retention time.Duration, log *logger.Logger) *CleanupOldScoresJob {
	if retention <= 0 {
		retention = 78 * 7 * 24 * time.Hour
	}
	return &CleanupOldScoresJob{
		scores:    scores,
		retention: retention,
		log:       log.With(logger.Component("cleanup_old_scores_job")),
	}
}

// Name returns the unique job name.
func (j *CleanupOldScoresJob) Name() string { return "cleanup_old_scores" }

// Description returns a human-readable description.
func (j *CleanupOldScoresJob) Description() string {
	return "Deletes ward score rows older than the retention window"
}

// Run deletes rows computed before the retention cutoff.
func (j *CleanupOldScoresJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cutoff := timeutil.Now().Add(-j.retention)
	deleted, err := j.scores.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		j.log.Info("old score rows deleted",
			logger.Int("deleted", deleted),
			logger.Time("cutoff", cutoff))
	}
	return nil
}
