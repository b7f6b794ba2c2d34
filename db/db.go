// Package db provides database connection helpers, schema migration, and the Postgres
// implementations of the invite ledger and room registry stores.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'

	"github.com/onnwee/invite-rooms/telemetry"
)

// Connect opens a Postgres connection pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	database.SetMaxOpenConns(10)
	database.SetMaxIdleConns(5)
	database.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return database, nil
}

// Migrate applies idempotent schema changes for all required tables and indices. It is
// the fallback when versioned migrations cannot be used.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS invite_records (
			guild_id TEXT NOT NULL,
			inviter_id TEXT NOT NULL,
			invite_count INTEGER NOT NULL DEFAULT 0 CHECK (invite_count >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (guild_id, inviter_id)
		)`,
		`CREATE TABLE IF NOT EXISTS invite_joins (
			guild_id TEXT NOT NULL,
			inviter_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			seq BIGSERIAL,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (guild_id, inviter_id, user_id),
			FOREIGN KEY (guild_id, inviter_id) REFERENCES invite_records(guild_id, inviter_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			room_id TEXT PRIMARY KEY,
			guild_id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			capacity INTEGER NOT NULL CHECK (capacity BETWEEN 1 AND 99),
			locked BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invite_joins_user ON invite_joins(guild_id, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_guild_owner ON rooms(guild_id, owner_id)`,
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("postgres migrate step %d failed: %w", i, err)
		}
	}
	return nil
}

// ReportPoolMetrics publishes connection pool usage to the db gauges.
func ReportPoolMetrics(db *sql.DB) {
	stats := db.Stats()
	telemetry.UpdateDatabasePoolMetrics(stats.OpenConnections, stats.InUse)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
