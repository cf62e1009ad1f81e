// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
)

// schema creates the tables read and written by the event pipeline. In production the
// tables are owned by the web application; Migrate is used for local and test databases.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS "user" (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		image TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS agent (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		user_id TEXT NOT NULL REFERENCES "user"(id) ON DELETE CASCADE,
		instructions TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS meeting (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		user_id TEXT NOT NULL REFERENCES "user"(id) ON DELETE CASCADE,
		agent_id TEXT NOT NULL REFERENCES agent(id) ON DELETE CASCADE,
		meeting_status TEXT NOT NULL DEFAULT 'upcoming',
		transcript_url TEXT,
		recording_url TEXT,
		summary TEXT,
		started_at TIMESTAMP,
		ended_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Migrate creates the tables that do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement %d: %w", i+1, err)
		}
	}
	slog.DebugContext(ctx, "database schema is up to date", "driver", db.driver)
	return nil
}
