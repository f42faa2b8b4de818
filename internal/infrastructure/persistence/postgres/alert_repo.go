package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/neta-watch/ward-pulse/internal/domain/civic"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// AlertRepo implements civic.AlertRepository on PostgreSQL.
type AlertRepo struct {
	conn *Connection
}

// NewAlertRepo creates a new alert repository.
func NewAlertRepo(conn *Connection) *AlertRepo {
	return &AlertRepo{conn: conn}
}

// ListActiveSince returns all active alerts created at or after the given time.
func (r *AlertRepo) ListActiveSince(ctx context.Context, since time.Time) ([]*civic.Alert, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, pincode, category, title, upvote_count, status, created_at
		FROM area_alerts
		WHERE status = $1 AND created_at >= $2
		ORDER BY created_at
	`, string(civic.AlertStatusActive), since)
	if err != nil {
		return nil, fmt.Errorf("alerts: list active since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var alerts []*civic.Alert
	for rows.Next() {
		var a civic.Alert
		var pincode, status string
		if err := rows.Scan(&a.ID, &pincode, &a.Category, &a.Title, &a.UpvoteCount, &status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("alerts: scan: %w", err)
		}
		a.Pincode = shared.Pincode(pincode)
		a.Status = civic.AlertStatus(status)
		alerts = append(alerts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("alerts: rows: %w", err)
	}
	return alerts, nil
}
