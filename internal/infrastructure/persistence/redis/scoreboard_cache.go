package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/neta-watch/ward-pulse/internal/domain/scoring"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// ScoreboardCache implements scoring.ScoreboardCache on Redis.
// The weekly scoreboard and per-ward cards are written by the read path on
// cache miss and dropped by InvalidateWeek after a scoring run.
type ScoreboardCache struct {
	cache *Cache
}

// NewScoreboardCache creates a Redis-backed scoreboard cache.
func NewScoreboardCache(cache *Cache) *ScoreboardCache {
	return &ScoreboardCache{cache: cache}
}

// GetScoreboard returns the cached ranked list for a week, or ErrCacheMiss.
func (c *ScoreboardCache) GetScoreboard(ctx context.Context, week shared.WeekOfYear) ([]*scoring.WardWeeklyScore, error) {
	var scores []*scoring.WardWeeklyScore
	if err := c.cache.Get(ctx, ScoreboardKey(week.Week, week.Year), &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// SetScoreboard caches the ranked list for a week.
func (c *ScoreboardCache) SetScoreboard(ctx context.Context, week shared.WeekOfYear, scores []*scoring.WardWeeklyScore, ttl time.Duration) error {
	return c.cache.Set(ctx, ScoreboardKey(week.Week, week.Year), scores, ttl)
}

// GetWardCard returns one cached ward card, or ErrCacheMiss.
func (c *ScoreboardCache) GetWardCard(ctx context.Context, pincode shared.Pincode, week shared.WeekOfYear) (*scoring.WardWeeklyScore, error) {
	var score scoring.WardWeeklyScore
	if err := c.cache.Get(ctx, WardCardKey(string(pincode), week.Week, week.Year), &score); err != nil {
		return nil, err
	}
	return &score, nil
}

// SetWardCard caches one ward card.
func (c *ScoreboardCache) SetWardCard(ctx context.Context, score *scoring.WardWeeklyScore, ttl time.Duration) error {
	if score == nil {
		return scoring.ErrNilScore
	}
	return c.cache.Set(ctx, WardCardKey(string(score.Pincode), score.Week.Week, score.Week.Year), score, ttl)
}

// InvalidateWeek drops the week's scoreboard and every ward card cached for it.
func (c *ScoreboardCache) InvalidateWeek(ctx context.Context, week shared.WeekOfYear) error {
	if err := c.cache.Delete(ctx, ScoreboardKey(week.Week, week.Year)); err != nil {
		return err
	}
	pattern := fmt.Sprintf("%s*:%d:%d", PrefixWardCard, week.Year, week.Week)
	return c.cache.DeleteByPattern(ctx, pattern)
}
