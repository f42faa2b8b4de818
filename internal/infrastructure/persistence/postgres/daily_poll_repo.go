package postgres

import (
	"context"
	"fmt"

	"github.com/neta-watch/ward-pulse/internal/domain/civic"
)

// DailyPollRepo implements civic.DailyPollRepository on PostgreSQL.
type DailyPollRepo struct {
	conn *Connection
}

// NewDailyPollRepo creates a new daily poll repository.
func NewDailyPollRepo(conn *Connection) *DailyPollRepo {
	return &DailyPollRepo{conn: conn}
}

// GetByID returns the poll with the given ID, or civic.ErrPollNotFound.
func (r *DailyPollRepo) GetByID(ctx context.Context, id string) (*civic.DailyPoll, error) {
	var p civic.DailyPoll
	var category string
	err := r.conn.QueryRow(ctx, `
		SELECT id, question, category, active, created_at
		FROM daily_polls
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Question, &category, &p.Active, &p.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, civic.ErrPollNotFound
		}
		return nil, fmt.Errorf("daily polls: get %s: %w", id, err)
	}
	p.Category = civic.PollCategory(category)
	return &p, nil
}

// CategoriesByPollID returns the category of every known poll in one query.
func (r *DailyPollRepo) CategoriesByPollID(ctx context.Context) (map[string]civic.PollCategory, error) {
	rows, err := r.conn.Query(ctx, `SELECT id, category FROM daily_polls`)
	if err != nil {
		return nil, fmt.Errorf("daily polls: list categories: %w", err)
	}
	defer rows.Close()

	categories := make(map[string]civic.PollCategory)
	for rows.Next() {
		var id, category string
		if err := rows.Scan(&id, &category); err != nil {
			return nil, fmt.Errorf("daily polls: scan: %w", err)
		}
		categories[id] = civic.PollCategory(category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daily polls: rows: %w", err)
	}
	return categories, nil
}
