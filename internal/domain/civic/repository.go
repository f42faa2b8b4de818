package civic

import (
	"context"
	"time"
)

// PollResponseRepository reads poll responses for aggregation.
// Implementations live in the infrastructure layer (PostgreSQL) with
// in-memory fakes for tests.
type PollResponseRepository interface {
	// ListSince returns all poll responses created at or after the given time.
	// A storage failure here aborts the whole scoring run.
	ListSince(ctx context.Context, since time.Time) ([]*PollResponse, error)
}

// PollResponseWriter persists newly recorded poll responses.
type PollResponseWriter interface {
	// Save stores a single poll response.
	Save(ctx context.Context, response *PollResponse) error
}

// AlertRepository reads area alerts for aggregation.
type AlertRepository interface {
	// ListActiveSince returns all alerts with active status created at or
	// after the given time.
	ListActiveSince(ctx context.Context, since time.Time) ([]*Alert, error)
}

// DailyPollRepository resolves polls and their categories.
type DailyPollRepository interface {
	// GetByID returns the poll with the given ID, or ErrPollNotFound.
	GetByID(ctx context.Context, id string) (*DailyPoll, error)

	// CategoriesByPollID returns the category of every known poll in one
	// query, keyed by poll ID. The scoring run preloads this map instead of
	// looking polls up one response at a time.
	CategoriesByPollID(ctx context.Context) (map[string]PollCategory, error)
}
