// Package eventhandler contains subscribers that react to domain events.
package eventhandler

import (
	"context"
	"time"

	"github.com/neta-watch/ward-pulse/internal/domain/scoring"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
	"github.com/neta-watch/ward-pulse/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON SCORES COMPUTED
// ══════════════════════════════════════════════════════════════════════════════

// OnScoresComputed invalidates the cached scoreboard after a scoring run
// rewrites a week's rows, so readers never see a stale mix of old and new
// ranks.
type OnScoresComputed struct {
	cache   scoring.ScoreboardCache
	log     *logger.Logger
	timeout time.Duration
}

// NewOnScoresComputed creates the handler. A nil cache makes it a no-op.
func NewOnScoresComputed(cache scoring.ScoreboardCache, log *logger.Logger) *OnScoresComputed {
	if log == nil {
		log = logger.Default()
	}
	return &OnScoresComputed{
		cache:   cache,
		log:     log.With(logger.Component("on_scores_computed")),
		timeout: 10 * time.Second,
	}
}

// Name returns the handler name for logging.
func (h *OnScoresComputed) Name() string {
	return "invalidate_scoreboard_cache"
}

// Handle drops the cached entries for the recomputed week.
func (h *OnScoresComputed) Handle(event shared.Event) error {
	e, ok := event.(*shared.ScoresComputedEvent)
	if !ok {
		return nil
	}
	if h.cache == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	week := shared.WeekOfYear{Week: e.WeekNumber, Year: e.Year}
	if err := h.cache.InvalidateWeek(ctx, week); err != nil {
		h.log.Error("failed to invalidate scoreboard cache",
			logger.Week(week.Week, week.Year),
			logger.Err(err),
		)
		return err
	}

	h.log.Info("scoreboard cache invalidated",
		logger.Week(week.Week, week.Year),
		logger.Int("wards", e.WardsProcessed),
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RANK CHANGE LOGGER
// ══════════════════════════════════════════════════════════════════════════════

// RankChangeLogger records significant ward rank movements. It stands in for
// the notification fan-out that the mobile app performs client-side.
type RankChangeLogger struct {
	log       *logger.Logger
	threshold int
}

// NewRankChangeLogger creates the handler. Movements smaller than threshold
// positions are ignored.
func NewRankChangeLogger(log *logger.Logger, threshold int) *RankChangeLogger {
	if log == nil {
		log = logger.Default()
	}
	if threshold < 1 {
		threshold = 1
	}
	return &RankChangeLogger{
		log:       log.With(logger.Component("rank_change_logger")),
		threshold: threshold,
	}
}

// Name returns the handler name for logging.
func (h *RankChangeLogger) Name() string {
	return "rank_change_logger"
}

// Handle logs the movement. Entering the top of the board is always logged;
// plain rank changes only when they clear the threshold.
func (h *RankChangeLogger) Handle(event shared.Event) error {
	switch e := event.(type) {
	case *shared.WardRankChangedEvent:
		change := e.RankChange
		if change < 0 {
			change = -change
		}
		if change < h.threshold {
			return nil
		}
		h.log.Info("ward rank changed",
			logger.Pincode(e.Pincode),
			logger.Ward(e.Ward),
			logger.Int("old_rank", e.OldRank),
			logger.Int("new_rank", e.NewRank),
			logger.Int("rank_change", e.RankChange),
			logger.Week(e.WeekNumber, e.Year),
		)
	case *shared.WardEnteredTopEvent:
		h.log.Info("ward entered the top of the scoreboard",
			logger.Pincode(e.Pincode),
			logger.Ward(e.Ward),
			logger.Int("rank", e.Rank),
			logger.Int("top_size", e.TopSize),
			logger.Week(e.WeekNumber, e.Year),
		)
	}
	return nil
}
