package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neta-watch/ward-pulse/internal/domain/scoring"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type memScoreRepo struct {
	rows  []*scoring.WardWeeklyScore
	week  shared.WeekOfYear
	lists int
}

func (m *memScoreRepo) UpsertAll(ctx context.Context, scores []*scoring.WardWeeklyScore) error {
	m.rows = scores
	return nil
}

func (m *memScoreRepo) RanksForWeek(ctx context.Context, week shared.WeekOfYear) (map[shared.Pincode]scoring.Rank, error) {
	return nil, nil
}

func (m *memScoreRepo) GetByPincodeWeek(ctx context.Context, pincode shared.Pincode, week shared.WeekOfYear) (*scoring.WardWeeklyScore, error) {
	for _, row := range m.rows {
		if row.Pincode == pincode && row.Week == week {
			return row, nil
		}
	}
	return nil, scoring.ErrScoreNotFound
}

func (m *memScoreRepo) ListByWeek(ctx context.Context, week shared.WeekOfYear, limit, offset int) ([]*scoring.WardWeeklyScore, error) {
	m.lists++
	if offset >= len(m.rows) {
		return nil, nil
	}
	end := len(m.rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return m.rows[offset:end], nil
}

func (m *memScoreRepo) LatestWeek(ctx context.Context) (shared.WeekOfYear, error) {
	if len(m.rows) == 0 {
		return shared.WeekOfYear{}, scoring.ErrScoreNotFound
	}
	return m.week, nil
}

func (m *memScoreRepo) HistoryByPincode(ctx context.Context, pincode shared.Pincode, limit int) ([]*scoring.WardWeeklyScore, error) {
	var out []*scoring.WardWeeklyScore
	for _, row := range m.rows {
		if row.Pincode == pincode {
			out = append(out, row)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memScoreRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

type memCache struct {
	boards map[shared.WeekOfYear][]*scoring.WardWeeklyScore
	cards  map[string]*scoring.WardWeeklyScore
	sets   int
}

func newMemCache() *memCache {
	return &memCache{
		boards: make(map[shared.WeekOfYear][]*scoring.WardWeeklyScore),
		cards:  make(map[string]*scoring.WardWeeklyScore),
	}
}

func (m *memCache) GetScoreboard(ctx context.Context, week shared.WeekOfYear) ([]*scoring.WardWeeklyScore, error) {
	if board, ok := m.boards[week]; ok {
		return board, nil
	}
	return nil, scoring.ErrScoreNotFound
}

func (m *memCache) SetScoreboard(ctx context.Context, week shared.WeekOfYear, scores []*scoring.WardWeeklyScore, ttl time.Duration) error {
	m.sets++
	m.boards[week] = scores
	return nil
}

func (m *memCache) GetWardCard(ctx context.Context, pincode shared.Pincode, week shared.WeekOfYear) (*scoring.WardWeeklyScore, error) {
	if card, ok := m.cards[pincode.String()]; ok {
		return card, nil
	}
	return nil, scoring.ErrScoreNotFound
}

func (m *memCache) SetWardCard(ctx context.Context, score *scoring.WardWeeklyScore, ttl time.Duration) error {
	m.cards[score.Pincode.String()] = score
	return nil
}

func (m *memCache) InvalidateWeek(ctx context.Context, week shared.WeekOfYear) error {
	delete(m.boards, week)
	return nil
}

func seededRepo() *memScoreRepo {
	week := shared.WeekOfYear{Week: 35, Year: 2026}
	rows := make([]*scoring.WardWeeklyScore, 0, 30)
	for i := 1; i <= 30; i++ {
		rows = append(rows, &scoring.WardWeeklyScore{
			Pincode:      shared.Pincode(testPincode(i)),
			Ward:         "Ward",
			Week:         week,
			OverallScore: scoring.Score(100 - i),
			Rank:         scoring.Rank(i),
			PrevRank:     scoring.Rank(i),
		})
	}
	return &memScoreRepo{rows: rows, week: week}
}

func testPincode(i int) string {
	return fmt.Sprintf("1100%02d", i)
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetScoreboard_DefaultsAndPaging(t *testing.T) {
	repo := seededRepo()
	h := NewGetScoreboardHandler(repo, nil, time.Hour, nil)

	result, err := h.Handle(context.Background(), GetScoreboardQuery{})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 20) // default page size
	assert.Equal(t, 35, result.WeekNumber)
	assert.Equal(t, 1, result.Entries[0].Rank)

	page2, err := h.Handle(context.Background(), GetScoreboardQuery{Limit: 20, Offset: 20})
	require.NoError(t, err)
	assert.Len(t, page2.Entries, 10)
	assert.Equal(t, 21, page2.Entries[0].Rank)
}

func TestGetScoreboard_EmptyBeforeFirstRun(t *testing.T) {
	h := NewGetScoreboardHandler(&memScoreRepo{}, nil, time.Hour, nil)

	result, err := h.Handle(context.Background(), GetScoreboardQuery{})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Zero(t, result.WeekNumber)
}

func TestGetScoreboard_RejectsNegativeParams(t *testing.T) {
	h := NewGetScoreboardHandler(seededRepo(), nil, time.Hour, nil)

	_, err := h.Handle(context.Background(), GetScoreboardQuery{Limit: -1})
	assert.Error(t, err)
	_, err = h.Handle(context.Background(), GetScoreboardQuery{Offset: -1})
	assert.Error(t, err)
}

func TestGetScoreboard_WarmsAndServesCache(t *testing.T) {
	repo := seededRepo()
	cache := newMemCache()
	h := NewGetScoreboardHandler(repo, cache, time.Hour, nil)

	// First read misses the cache and warms it with the full board.
	_, err := h.Handle(context.Background(), GetScoreboardQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	listsAfterWarm := repo.lists

	// Second read is served from cache, repo untouched.
	result, err := h.Handle(context.Background(), GetScoreboardQuery{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 10)
	assert.Equal(t, listsAfterWarm, repo.lists)
}

func TestGetWardCard_ReadThrough(t *testing.T) {
	repo := seededRepo()
	cache := newMemCache()
	h := NewGetWardCardHandler(repo, cache, time.Hour, nil)

	pincode := repo.rows[4].Pincode.String()
	result, err := h.Handle(context.Background(), GetWardCardQuery{Pincode: pincode})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Card.Rank)

	// The card is now cached.
	_, cached := cache.cards[pincode]
	assert.True(t, cached)
}

func TestGetWardCard_NotFound(t *testing.T) {
	h := NewGetWardCardHandler(seededRepo(), nil, time.Hour, nil)

	_, err := h.Handle(context.Background(), GetWardCardQuery{Pincode: "999999"})
	assert.ErrorIs(t, err, scoring.ErrScoreNotFound)
}

func TestGetWardHistory_LimitsWeeks(t *testing.T) {
	week1 := shared.WeekOfYear{Week: 34, Year: 2026}
	week2 := shared.WeekOfYear{Week: 35, Year: 2026}
	repo := &memScoreRepo{
		week: week2,
		rows: []*scoring.WardWeeklyScore{
			{Pincode: "110001", Week: week2, OverallScore: 80, Rank: 1},
			{Pincode: "110001", Week: week1, OverallScore: 70, Rank: 2},
		},
	}
	h := NewGetWardHistoryHandler(repo)

	result, err := h.Handle(context.Background(), GetWardHistoryQuery{Pincode: "110001", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, "110001", result.Pincode)
	require.Len(t, result.Weeks, 1)
	assert.Equal(t, 35, result.Weeks[0].WeekNumber)
}
