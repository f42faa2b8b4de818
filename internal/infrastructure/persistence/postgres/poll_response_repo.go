package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/neta-watch/ward-pulse/internal/domain/civic"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// PollResponseRepo implements civic.PollResponseRepository and
// civic.PollResponseWriter on PostgreSQL.
type PollResponseRepo struct {
	conn *Connection
}

// NewPollResponseRepo creates a new poll response repository.
func NewPollResponseRepo(conn *Connection) *PollResponseRepo {
	return &PollResponseRepo{conn: conn}
}

// ListSince returns all poll responses created at or after the given time.
func (r *PollResponseRepo) ListSince(ctx context.Context, since time.Time) ([]*civic.PollResponse, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, poll_id, pincode, COALESCE(ward, ''), response, created_at
		FROM poll_responses
		WHERE created_at >= $1
		ORDER BY created_at
	`, since)
	if err != nil {
		return nil, fmt.Errorf("poll responses: list since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var responses []*civic.PollResponse
	for rows.Next() {
		var pr civic.PollResponse
		var pincode string
		if err := rows.Scan(&pr.ID, &pr.PollID, &pincode, &pr.Ward, &pr.Response, &pr.CreatedAt); err != nil {
			return nil, fmt.Errorf("poll responses: scan: %w", err)
		}
		pr.Pincode = shared.Pincode(pincode)
		responses = append(responses, &pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("poll responses: rows: %w", err)
	}
	return responses, nil
}

// Save stores a single poll response.
func (r *PollResponseRepo) Save(ctx context.Context, pr *civic.PollResponse) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO poll_responses (id, poll_id, pincode, ward, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, pr.ID, pr.PollID, string(pr.Pincode), pr.Ward, pr.Response, pr.CreatedAt)
	if err != nil {
		return fmt.Errorf("poll responses: save: %w", err)
	}
	return nil
}
