// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package sqlstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrations are idempotent")

	exec := func(query string, args ...any) {
		_, err := db.ExecContext(ctx, query, args...)
		require.NoError(t, err)
	}
	exec(`INSERT INTO "user" (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"u1", "Ada", "ada@example.com", epoch, epoch)
	exec(`INSERT INTO "user" (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"u2", "Grace", "grace@example.com", epoch, epoch)
	exec(`INSERT INTO agent (id, name, user_id, instructions, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		"a1", "Tutor", "u1", "Be helpful.", epoch, epoch)
	exec(`INSERT INTO meeting (id, name, user_id, agent_id, meeting_status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"m1", "Standup", "u1", "a1", "upcoming", epoch, epoch)

	return db
}
