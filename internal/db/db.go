// Package db provides PostgreSQL-backed implementations of the store
// interfaces, plus the page cache and policy cache tables.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the schema when it does not exist yet. Statements are
// idempotent so repeated startup is safe.
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS candidates (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			normalized_name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			normalized_email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			linkedin_url TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			employers JSONB NOT NULL DEFAULT '[]',
			ledger_ref TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_normalized_email
			ON candidates (normalized_email) WHERE normalized_email <> ''`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_normalized_name
			ON candidates (normalized_name)`,

		`CREATE TABLE IF NOT EXISTS verification_attempts (
			id UUID PRIMARY KEY,
			candidate_id UUID NOT NULL,
			employer TEXT NOT NULL,
			stage TEXT NOT NULL DEFAULT '',
			stage_history JSONB NOT NULL DEFAULT '[]',
			status TEXT NOT NULL,
			outcome TEXT NOT NULL DEFAULT '',
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			artifacts JSONB NOT NULL DEFAULT '[]',
			next_steps JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_candidate
			ON verification_attempts (candidate_id)`,

		`CREATE TABLE IF NOT EXISTS workflow_runs (
			id UUID PRIMARY KEY,
			candidate_id UUID NOT NULL,
			employer TEXT NOT NULL,
			state TEXT NOT NULL,
			outcome TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			reply_token TEXT NOT NULL DEFAULT '',
			attempt_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS reply_tokens (
			token TEXT PRIMARY KEY,
			workflow_id UUID NOT NULL,
			consumed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS attestations (
			candidate_hash TEXT NOT NULL,
			employer TEXT NOT NULL,
			channel TEXT NOT NULL,
			outcome TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			ledger_ref TEXT NOT NULL DEFAULT '',
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (candidate_hash, employer, channel)
		)`,

		`CREATE TABLE IF NOT EXISTS cached_pages (
			id UUID PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			raw_html TEXT NOT NULL DEFAULT '',
			parsed_text TEXT NOT NULL DEFAULT '',
			http_status INT NOT NULL DEFAULT 0,
			fetch_status TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			is_permanent_failure BOOLEAN NOT NULL DEFAULT FALSE,
			retry_count INT NOT NULL DEFAULT 0,
			retry_after TIMESTAMPTZ,
			fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS employer_policies (
			domain TEXT PRIMARY KEY,
			policy JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
