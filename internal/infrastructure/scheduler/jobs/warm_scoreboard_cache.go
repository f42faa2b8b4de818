package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/neta-watch/ward-pulse/internal/domain/scoring"
	"github.com/neta-watch/ward-pulse/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// WARM SCOREBOARD CACHE JOB
// ══════════════════════════════════════════════════════════════════════════════

// WarmScoreboardCacheJob pre-populates the scoreboard cache with the latest
// week's rows so the first reader after an invalidation doesn't pay the
// database round trip.
type WarmScoreboardCacheJob struct {
	scores scoring.WardScoreRepository
	cache  scoring.ScoreboardCache
	ttl    time.Duration
	log    *logger.Logger
}

// NewWarmScoreboardCacheJob creates the job.
func NewWarmScoreboardCacheJob(scores scoring.WardScoreRepository, cache scoring.ScoreboardCache, ttl time.Duration, log *logger.Logger) *WarmScoreboardCacheJob {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &WarmScoreboardCacheJob{
		scores: scores,
		cache:  cache,
		ttl:    ttl,
		log:    log.With(logger.Component("warm_scoreboard_cache_job")),
	}
}

// Name returns the unique job name.
func (j *WarmScoreboardCacheJob) Name() string { return "warm_scoreboard_cache" }

// Description returns a human-readable description.
func (j *WarmScoreboardCacheJob) Description() string {
	return "Pre-populates the Redis scoreboard cache with the latest week's rows"
}

// Run loads the latest week from the repository and writes it to the cache.
// A service that has never completed a scoring run is not an error.
func (j *WarmScoreboardCacheJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	week, err := j.scores.LatestWeek(ctx)
	if err != nil {
		if errors.Is(err, scoring.ErrScoreNotFound) {
			j.log.Debug("no scored weeks yet, nothing to warm")
			return nil
		}
		return err
	}

	rows, err := j.scores.ListByWeek(ctx, week, 0, 0)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	if err := j.cache.SetScoreboard(ctx, week, rows, j.ttl); err != nil {
		return err
	}

	j.log.Info("scoreboard cache warmed",
		logger.Week(week.Week, week.Year),
		logger.Int("wards", len(rows)))
	return nil
}
