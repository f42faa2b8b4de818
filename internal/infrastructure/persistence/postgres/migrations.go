package postgres

import (
	"context"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEMA MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// migration is a single schema migration step.
type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_daily_polls",
		sql: `
			CREATE TABLE IF NOT EXISTS daily_polls (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				question TEXT NOT NULL,
				category TEXT NOT NULL,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_daily_polls_category ON daily_polls(category);
		`,
	},
	{
		version: 2,
		name:    "create_poll_responses",
		sql: `
			CREATE TABLE IF NOT EXISTS poll_responses (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				poll_id UUID NOT NULL REFERENCES daily_polls(id) ON DELETE CASCADE,
				pincode TEXT NOT NULL,
				ward TEXT,
				response BOOLEAN NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_poll_responses_created_at ON poll_responses(created_at);
			CREATE INDEX IF NOT EXISTS idx_poll_responses_pincode ON poll_responses(pincode);
			CREATE INDEX IF NOT EXISTS idx_poll_responses_poll_id ON poll_responses(poll_id);
		`,
	},
	{
		version: 3,
		name:    "create_area_alerts",
		sql: `
			CREATE TABLE IF NOT EXISTS area_alerts (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				pincode TEXT NOT NULL,
				category TEXT NOT NULL,
				title TEXT NOT NULL,
				upvote_count INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'active',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_area_alerts_status_created ON area_alerts(status, created_at);
			CREATE INDEX IF NOT EXISTS idx_area_alerts_pincode ON area_alerts(pincode);
		`,
	},
	{
		version: 4,
		name:    "create_pincode_constituency",
		sql: `
			CREATE TABLE IF NOT EXISTS pincode_constituency (
				pincode TEXT PRIMARY KEY,
				ward_name TEXT NOT NULL,
				city TEXT NOT NULL,
				state TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
	{
		version: 5,
		name:    "create_ward_weekly_scores",
		sql: `
			CREATE TABLE IF NOT EXISTS ward_weekly_scores (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				pincode TEXT NOT NULL,
				ward_name TEXT NOT NULL,
				city TEXT NOT NULL,
				state TEXT NOT NULL,
				week_number INTEGER NOT NULL,
				year INTEGER NOT NULL,
				cleanliness_score INTEGER NOT NULL,
				water_score INTEGER NOT NULL,
				roads_score INTEGER NOT NULL,
				safety_score INTEGER NOT NULL,
				overall_score INTEGER NOT NULL,
				rank INTEGER NOT NULL,
				prev_rank INTEGER NOT NULL,
				rank_change INTEGER NOT NULL DEFAULT 0,
				total_responses INTEGER NOT NULL DEFAULT 0,
				total_alerts INTEGER NOT NULL DEFAULT 0,
				total_confirmations INTEGER NOT NULL DEFAULT 0,
				computed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CONSTRAINT uq_ward_week UNIQUE (pincode, week_number, year)
			);

			CREATE INDEX IF NOT EXISTS idx_ward_scores_week ON ward_weekly_scores(year, week_number, rank);
			CREATE INDEX IF NOT EXISTS idx_ward_scores_pincode ON ward_weekly_scores(pincode, year, week_number);
		`,
	},
}

// RunMigrations applies all pending schema migrations in order.
// Applied versions are tracked in the schema_migrations table.
func RunMigrations(ctx context.Context, conn *Connection) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to create schema_migrations: %v", ErrMigrationFailed, err)
	}

	applied := make(map[int]bool)
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("%w: failed to read applied migrations: %v", ErrMigrationFailed, err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("%w: failed to scan migration version: %v", ErrMigrationFailed, err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if _, err := conn.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("%w: migration %d (%s): %v", ErrMigrationFailed, m.version, m.name, err)
		}
		if _, err := conn.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			m.version, m.name,
		); err != nil {
			return fmt.Errorf("%w: failed to record migration %d: %v", ErrMigrationFailed, m.version, err)
		}
	}
	return nil
}
