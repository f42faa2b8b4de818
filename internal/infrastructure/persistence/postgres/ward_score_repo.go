package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/neta-watch/ward-pulse/internal/domain/scoring"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// WardScoreRepo implements scoring.WardScoreRepository on PostgreSQL.
type WardScoreRepo struct {
	conn *Connection
}

// NewWardScoreRepo creates a new ward score repository.
func NewWardScoreRepo(conn *Connection) *WardScoreRepo {
	return &WardScoreRepo{conn: conn}
}

const wardScoreColumns = `
	pincode, ward_name, city, state, week_number, year,
	cleanliness_score, water_score, roads_score, safety_score, overall_score,
	rank, prev_rank, rank_change,
	total_responses, total_alerts, total_confirmations, computed_at`

// UpsertAll writes every row keyed on (pincode, week_number, year) inside a
// single transaction. A rerun for the same week overwrites the whole row.
func (r *WardScoreRepo) UpsertAll(ctx context.Context, scores []*scoring.WardWeeklyScore) error {
	if len(scores) == 0 {
		return nil
	}

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, s := range scores {
			batch.Queue(`
				INSERT INTO ward_weekly_scores (
					pincode, ward_name, city, state, week_number, year,
					cleanliness_score, water_score, roads_score, safety_score, overall_score,
					rank, prev_rank, rank_change,
					total_responses, total_alerts, total_confirmations, computed_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
				ON CONFLICT (pincode, week_number, year) DO UPDATE SET
					ward_name = EXCLUDED.ward_name,
					city = EXCLUDED.city,
					state = EXCLUDED.state,
					cleanliness_score = EXCLUDED.cleanliness_score,
					water_score = EXCLUDED.water_score,
					roads_score = EXCLUDED.roads_score,
					safety_score = EXCLUDED.safety_score,
					overall_score = EXCLUDED.overall_score,
					rank = EXCLUDED.rank,
					prev_rank = EXCLUDED.prev_rank,
					rank_change = EXCLUDED.rank_change,
					total_responses = EXCLUDED.total_responses,
					total_alerts = EXCLUDED.total_alerts,
					total_confirmations = EXCLUDED.total_confirmations,
					computed_at = EXCLUDED.computed_at
			`,
				string(s.Pincode), s.Ward, s.City, s.State, s.Week.Week, s.Week.Year,
				int(s.CleanlinessScore), int(s.WaterScore), int(s.RoadsScore), int(s.SafetyScore), int(s.OverallScore),
				int(s.Rank), int(s.PrevRank), int(s.RankChange),
				s.TotalResponses, s.TotalAlerts, s.TotalConfirmations, s.ComputedAt,
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range scores {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("ward scores: upsert: %w", err)
			}
		}
		return nil
	})
}

// RanksForWeek returns the persisted rank of every ward scored in the given
// week, keyed by pincode.
func (r *WardScoreRepo) RanksForWeek(ctx context.Context, week shared.WeekOfYear) (map[shared.Pincode]scoring.Rank, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT pincode, rank
		FROM ward_weekly_scores
		WHERE week_number = $1 AND year = $2
	`, week.Week, week.Year)
	if err != nil {
		return nil, fmt.Errorf("ward scores: ranks for %s: %w", week, err)
	}
	defer rows.Close()

	ranks := make(map[shared.Pincode]scoring.Rank)
	for rows.Next() {
		var pincode string
		var rank int
		if err := rows.Scan(&pincode, &rank); err != nil {
			return nil, fmt.Errorf("ward scores: scan rank: %w", err)
		}
		ranks[shared.Pincode(pincode)] = scoring.Rank(rank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ward scores: rows: %w", err)
	}
	return ranks, nil
}

// GetByPincodeWeek returns one ward's row for one week.
func (r *WardScoreRepo) GetByPincodeWeek(ctx context.Context, pincode shared.Pincode, week shared.WeekOfYear) (*scoring.WardWeeklyScore, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT `+wardScoreColumns+`
		FROM ward_weekly_scores
		WHERE pincode = $1 AND week_number = $2 AND year = $3
	`, string(pincode), week.Week, week.Year)

	s, err := scanWardScore(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, scoring.ErrScoreNotFound
		}
		return nil, fmt.Errorf("ward scores: get %s %s: %w", pincode, week, err)
	}
	return s, nil
}

// ListByWeek returns the week's rows in rank order. limit <= 0 means no limit.
func (r *WardScoreRepo) ListByWeek(ctx context.Context, week shared.WeekOfYear, limit, offset int) ([]*scoring.WardWeeklyScore, error) {
	query := `
		SELECT ` + wardScoreColumns + `
		FROM ward_weekly_scores
		WHERE week_number = $1 AND year = $2
		ORDER BY rank, pincode`
	args := []interface{}{week.Week, week.Year}
	if limit > 0 {
		query += ` LIMIT $3 OFFSET $4`
		args = append(args, limit, offset)
	} else if offset > 0 {
		query += ` OFFSET $3`
		args = append(args, offset)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ward scores: list %s: %w", week, err)
	}
	defer rows.Close()

	var scores []*scoring.WardWeeklyScore
	for rows.Next() {
		s, err := scanWardScore(rows)
		if err != nil {
			return nil, fmt.Errorf("ward scores: scan: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ward scores: rows: %w", err)
	}
	return scores, nil
}

// LatestWeek returns the most recent week that has persisted rows.
func (r *WardScoreRepo) LatestWeek(ctx context.Context) (shared.WeekOfYear, error) {
	var week shared.WeekOfYear
	err := r.conn.QueryRow(ctx, `
		SELECT week_number, year
		FROM ward_weekly_scores
		ORDER BY year DESC, week_number DESC
		LIMIT 1
	`).Scan(&week.Week, &week.Year)
	if err != nil {
		if IsNoRows(err) {
			return shared.WeekOfYear{}, scoring.ErrScoreNotFound
		}
		return shared.WeekOfYear{}, fmt.Errorf("ward scores: latest week: %w", err)
	}
	return week, nil
}

// HistoryByPincode returns a ward's most recent rows, newest first.
func (r *WardScoreRepo) HistoryByPincode(ctx context.Context, pincode shared.Pincode, limit int) ([]*scoring.WardWeeklyScore, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+wardScoreColumns+`
		FROM ward_weekly_scores
		WHERE pincode = $1
		ORDER BY year DESC, week_number DESC
		LIMIT $2
	`, string(pincode), limit)
	if err != nil {
		return nil, fmt.Errorf("ward scores: history %s: %w", pincode, err)
	}
	defer rows.Close()

	var scores []*scoring.WardWeeklyScore
	for rows.Next() {
		s, err := scanWardScore(rows)
		if err != nil {
			return nil, fmt.Errorf("ward scores: scan: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ward scores: rows: %w", err)
	}
	return scores, nil
}

// DeleteOlderThan removes rows computed before the cutoff.
func (r *WardScoreRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.conn.Exec(ctx, `
		DELETE FROM ward_weekly_scores WHERE computed_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ward scores: delete older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return int(tag.RowsAffected()), nil
}

// scanWardScore reads one ward score row. Works for both pgx.Row and pgx.Rows.
func scanWardScore(row pgx.Row) (*scoring.WardWeeklyScore, error) {
	var s scoring.WardWeeklyScore
	var pincode string
	var cleanliness, water, roads, safety, overall, rank, prevRank, rankChange int
	err := row.Scan(
		&pincode, &s.Ward, &s.City, &s.State, &s.Week.Week, &s.Week.Year,
		&cleanliness, &water, &roads, &safety, &overall,
		&rank, &prevRank, &rankChange,
		&s.TotalResponses, &s.TotalAlerts, &s.TotalConfirmations, &s.ComputedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Pincode = shared.Pincode(pincode)
	s.CleanlinessScore = scoring.Score(cleanliness)
	s.WaterScore = scoring.Score(water)
	s.RoadsScore = scoring.Score(roads)
	s.SafetyScore = scoring.Score(safety)
	s.OverallScore = scoring.Score(overall)
	s.Rank = scoring.Rank(rank)
	s.PrevRank = scoring.Rank(prevRank)
	s.RankChange = scoring.RankChange(rankChange)
	return &s, nil
}
