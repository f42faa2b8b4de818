// Package query contains read operations following the CQRS pattern.
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
// GET WARD CARD QUERY
// Returns one ward's report card for the most recent scored week.
// ══════════════════════════════════════════════════════════════════════════════

// GetWardCardQuery contains the ward card request parameters.
type GetWardCardQuery struct {
	// Pincode - the ward's postal code.
	Pincode string
}

// Validate checks the query parameters.
func (q *GetWardCardQuery) Validate() error {
	if !shared.Pincode(q.Pincode).IsValid() {
		return errors.New("pincode is required")
	}
	return nil
}

// GetWardCardResult contains the ward card response.
type GetWardCardResult struct {
	Card WardScoreDTO `json:"card"`
}

// GetWardCardHandler serves single ward report cards with a cache in front of
// the repository. A nil cache disables caching.
type GetWardCardHandler struct {
	scores   scoring.WardScoreRepository
	cache    scoring.ScoreboardCache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewGetWardCardHandler creates the handler.
func NewGetWardCardHandler(scores scoring.WardScoreRepository, cache scoring.ScoreboardCache, cacheTTL time.Duration, log *logger.Logger) *GetWardCardHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetWardCardHandler{
		scores:   scores,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log.With(logger.Component("get_ward_card")),
	}
}

// Handle executes the query. Returns scoring.ErrScoreNotFound when the ward
// has no row for the latest scored week.
func (h *GetWardCardHandler) Handle(ctx context.Context, q GetWardCardQuery) (*GetWardCardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	pincode := shared.Pincode(q.Pincode)

	week, err := h.scores.LatestWeek(ctx)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if cached, err := h.cache.GetWardCard(ctx, pincode, week); err == nil {
			return &GetWardCardResult{Card: toDTO(cached)}, nil
		}
	}

	row, err := h.scores.GetByPincodeWeek(ctx, pincode, week)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.SetWardCard(ctx, row, h.cacheTTL); err != nil {
			h.log.Debug("ward card cache write failed", logger.Err(err))
		}
	}

	return &GetWardCardResult{Card: toDTO(row)}, nil
}
