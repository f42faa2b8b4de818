package query

import (
	"context"
	"errors"

	"github.com/neta-watch/ward-pulse/internal/domain/scoring"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET WARD HISTORY QUERY
// Returns a ward's past weekly report cards, newest first. Feeds the score
// trend chart on the ward page.
// ══════════════════════════════════════════════════════════════════════════════

// GetWardHistoryQuery contains the history request parameters.
type GetWardHistoryQuery struct {
	// Pincode - the ward's postal code.
	Pincode string

	// Limit - number of weeks to return (default 12, maximum 52).
	Limit int
}

// Validate checks and normalizes the query parameters.
func (q *GetWardHistoryQuery) Validate() error {
	if !shared.Pincode(q.Pincode).IsValid() {
		return errors.New("pincode is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 12
	}
	if q.Limit > 52 {
		q.Limit = 52
	}
	return nil
}

// GetWardHistoryResult contains the history response.
type GetWardHistoryResult struct {
	Pincode string         `json:"pincode"`
	Weeks   []WardScoreDTO `json:"weeks"`
}

// GetWardHistoryHandler serves ward score history. History is an infrequent
// read, so it goes straight to the repository without caching.
type GetWardHistoryHandler struct {
	scores scoring.WardScoreRepository
}

// NewGetWardHistoryHandler creates the handler.
func NewGetWardHistoryHandler(scores scoring.WardScoreRepository) *GetWardHistoryHandler {
	return &GetWardHistoryHandler{scores: scores}
}

// Handle executes the query.
func (h *GetWardHistoryHandler) Handle(ctx context.Context, q GetWardHistoryQuery) (*GetWardHistoryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.scores.HistoryByPincode(ctx, shared.Pincode(q.Pincode), q.Limit)
	if err != nil {
		return nil, err
	}

	weeks := make([]WardScoreDTO, 0, len(rows))
	for _, row := range rows {
		weeks = append(weeks, toDTO(row))
	}

	return &GetWardHistoryResult{Pincode: q.Pincode, Weeks: weeks}, nil
}
