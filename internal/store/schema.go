package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are stored as Unix milliseconds so the same DDL works on
// SQLite and PostgreSQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL,
		data TEXT NOT NULL,
		version BIGINT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_user_created ON sessions (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		role_block TEXT NOT NULL,
		creator_id TEXT NOT NULL,
		visibility TEXT NOT NULL,
		usage_count BIGINT NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS roles_creator ON roles (creator_id)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		sequence BIGINT PRIMARY KEY,
		created_at BIGINT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		session_id TEXT NOT NULL,
		input_tokens BIGINT NOT NULL,
		output_tokens BIGINT NOT NULL,
		latency_ms BIGINT NOT NULL,
		success BOOLEAN NOT NULL,
		error_message TEXT NOT NULL,
		request_body TEXT NOT NULL,
		response_body TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS llm_request_events_purpose ON llm_request_events (purpose)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
