package scoring

import (
	"context"
	"time"

	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WARD SCORE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// WardScoreRepository persists and reads weekly ward report cards.
// Implementations live in the infrastructure layer (PostgreSQL) with
// in-memory fakes for tests.
type WardScoreRepository interface {
	// UpsertAll writes every row keyed on (pincode, week, year); a rerun for
	// the same week overwrites rather than duplicates. A failure here fails
	// the whole scoring run; no partial retry is attempted.
	UpsertAll(ctx context.Context, scores []*WardWeeklyScore) error

	// RanksForWeek returns the persisted rank of every ward scored in the
	// given week, keyed by pincode. An empty map (not an error) is returned
	// when the week has no rows.
	RanksForWeek(ctx context.Context, week shared.WeekOfYear) (map[shared.Pincode]Rank, error)

	// GetByPincodeWeek returns one ward's row for one week, or
	// ErrScoreNotFound.
	GetByPincodeWeek(ctx context.Context, pincode shared.Pincode, week shared.WeekOfYear) (*WardWeeklyScore, error)

	// ListByWeek returns the week's rows in rank order, paged.
	ListByWeek(ctx context.Context, week shared.WeekOfYear, limit, offset int) ([]*WardWeeklyScore, error)

	// LatestWeek returns the most recent week that has persisted rows, or
	// ErrScoreNotFound when no scoring run has ever completed.
	LatestWeek(ctx context.Context) (shared.WeekOfYear, error)

	// HistoryByPincode returns a ward's most recent rows, newest first.
	HistoryByPincode(ctx context.Context, pincode shared.Pincode, limit int) ([]*WardWeeklyScore, error)

	// DeleteOlderThan removes rows computed before the cutoff and returns
	// the number deleted. Used by the retention cleanup job.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCOREBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// ScoreboardCache caches the hot read paths (current scoreboard and per-ward
// cards). Separated from the repository so Redis can be swapped out or
// disabled entirely.
type ScoreboardCache interface {
	// GetScoreboard returns the cached ranked list for a week, or
	// a cache-miss error.
	GetScoreboard(ctx context.Context, week shared.WeekOfYear) ([]*WardWeeklyScore, error)

	// SetScoreboard caches the ranked list for a week with a TTL.
	SetScoreboard(ctx context.Context, week shared.WeekOfYear, scores []*WardWeeklyScore, ttl time.Duration) error

	// GetWardCard returns one cached ward card, or a cache-miss error.
	GetWardCard(ctx context.Context, pincode shared.Pincode, week shared.WeekOfYear) (*WardWeeklyScore, error)

	// SetWardCard caches one ward card with a TTL.
	SetWardCard(ctx context.Context, score *WardWeeklyScore, ttl time.Duration) error

	// InvalidateWeek drops all cached entries for a week. Called after a
	// scoring run rewrites the week's rows.
	InvalidateWeek(ctx context.Context, week shared.WeekOfYear) error
}
