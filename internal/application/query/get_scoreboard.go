package query

import (
	"context"
	"errors"
	"time"

	"github.com/neta-watch/ward-pulse/internal/domain/scoring"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
	"github.com/neta-watch/ward-pulse/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SCOREBOARD QUERY
// Returns the ranked ward list for the most recent scored week, paged.
// ══════════════════════════════════════════════════════════════════════════════

// GetScoreboardQuery contains the scoreboard request parameters.
type GetScoreboardQuery struct {
	// Limit - number of rows (default 20, maximum 100).
	Limit int

	// Offset - pagination offset.
	Offset int
}

// Validate checks and normalizes the query parameters.
func (q *GetScoreboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		return errors.New("offset cannot be negative")
	}
	return nil
}

// WardScoreDTO is the transport representation of one ward's report card.
type WardScoreDTO struct {
	Pincode            string `json:"pincode"`
	Ward               string `json:"ward"`
	City               string `json:"city"`
	State              string `json:"state"`
	WeekNumber         int    `json:"week_number"`
	Year               int    `json:"year"`
	CleanlinessScore   int    `json:"cleanliness_score"`
	WaterScore         int    `json:"water_score"`
	RoadsScore         int    `json:"roads_score"`
	SafetyScore        int    `json:"safety_score"`
	OverallScore       int    `json:"overall_score"`
	Rank               int    `json:"rank"`
	PrevRank           int    `json:"prev_rank"`
	RankChange         int    `json:"rank_change"`
	RankDirection      string `json:"rank_direction"`
	TotalResponses     int    `json:"total_responses"`
	TotalAlerts        int    `json:"total_alerts"`
	TotalConfirmations int    `json:"total_confirmations"`
}

// toDTO maps a domain score row to its transport form.
func toDTO(s *scoring.WardWeeklyScore) WardScoreDTO {
	return WardScoreDTO{
		Pincode:            s.Pincode.String(),
		Ward:               s.Ward,
		City:               s.City,
		State:              s.State,
		WeekNumber:         s.Week.Week,
		Year:               s.Week.Year,
		CleanlinessScore:   int(s.CleanlinessScore),
		WaterScore:         int(s.WaterScore),
		RoadsScore:         int(s.RoadsScore),
		SafetyScore:        int(s.SafetyScore),
		OverallScore:       int(s.OverallScore),
		Rank:               int(s.Rank),
		PrevRank:           int(s.PrevRank),
		RankChange:         int(s.RankChange),
		RankDirection:      s.RankChange.Direction(),
		TotalResponses:     s.TotalResponses,
		TotalAlerts:        s.TotalAlerts,
		TotalConfirmations: s.TotalConfirmations,
	}
}

// GetScoreboardResult contains the scoreboard response.
type GetScoreboardResult struct {
	Entries    []WardScoreDTO `json:"entries"`
	WeekNumber int            `json:"week_number"`
	Year       int            `json:"year"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

// GetScoreboardHandler serves the ranked ward list with a Redis read-through
// cache in front of PostgreSQL. A nil cache disables caching.
type GetScoreboardHandler struct {
	scores   scoring.WardScoreRepository
	cache    scoring.ScoreboardCache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewGetScoreboardHandler creates the handler.
func NewGetScoreboardHandler(scores scoring.WardScoreRepository, cache scoring.ScoreboardCache, cacheTTL time.Duration, log *logger.Logger) *GetScoreboardHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetScoreboardHandler{
		scores:   scores,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log.With(logger.Component("get_scoreboard")),
	}
}

// Handle executes the query against the latest scored week.
func (h *GetScoreboardHandler) Handle(ctx context.Context, q GetScoreboardQuery) (*GetScoreboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	week, err := h.scores.LatestWeek(ctx)
	if err != nil {
		if errors.Is(err, scoring.ErrScoreNotFound) {
			// No scoring run has completed yet; an empty board is valid.
			return &GetScoreboardResult{Entries: []WardScoreDTO{}, Limit: q.Limit, Offset: q.Offset}, nil
		}
		return nil, err
	}

	rows, err := h.load(ctx, week, q)
	if err != nil {
		return nil, err
	}

	entries := make([]WardScoreDTO, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, toDTO(row))
	}

	return &GetScoreboardResult{
		Entries:    entries,
		WeekNumber: week.Week,
		Year:       week.Year,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}, nil
}

// load serves the page from cache when possible, falling back to the
// repository. Cache errors are logged and treated as misses.
func (h *GetScoreboardHandler) load(ctx context.Context, week shared.WeekOfYear, q GetScoreboardQuery) ([]*scoring.WardWeeklyScore, error) {
	if h.cache != nil {
		cached, err := h.cache.GetScoreboard(ctx, week)
		if err == nil {
			return page(cached, q.Limit, q.Offset), nil
		}
	}

	rows, err := h.scores.ListByWeek(ctx, week, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}

	// Warm the cache with the full board only when the first page was asked
	// for; partial pages are not representative.
	if h.cache != nil && q.Offset == 0 {
		full, err := h.scores.ListByWeek(ctx, week, 0, 0)
		if err == nil {
			if err := h.cache.SetScoreboard(ctx, week, full, h.cacheTTL); err != nil {
				h.log.Debug("scoreboard cache write failed", logger.Err(err))
			}
		}
	}

	return rows, nil
}

// page slices a cached full board down to the requested window.
func page(rows []*scoring.WardWeeklyScore, limit, offset int) []*scoring.WardWeeklyScore {
	if offset >= len(rows) {
		return nil
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}
