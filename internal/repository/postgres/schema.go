package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('ROLE_USER', 'ROLE_DRIVER')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS rides (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL REFERENCES users (id),
		driver_id       TEXT REFERENCES users (id),
		pickup_location TEXT NOT NULL,
		drop_location   TEXT NOT NULL,
		status          TEXT NOT NULL CHECK (status IN ('REQUESTED', 'ACCEPTED', 'COMPLETED')),
		created_at      TIMESTAMPTZ NOT NULL,
		accepted_at     TIMESTAMPTZ,
		completed_at    TIMESTAMPTZ,
		CHECK ((status = 'REQUESTED') = (driver_id IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rides_user_id ON rides (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_rides_driver_id ON rides (driver_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_rides_status ON rides (status, created_at)`,
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range schema {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
