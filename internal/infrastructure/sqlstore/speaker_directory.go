// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package sqlstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
)

// SpeakerDirectory implements domain.SpeakerDirectory over the user and agent tables.
type SpeakerDirectory struct {
	db *DB
}

// NewSpeakerDirectory creates a speaker directory on db.
func NewSpeakerDirectory(db *DB) *SpeakerDirectory {
	return &SpeakerDirectory{db: db}
}

// UserNames returns the display names of the users among ids.
func (d *SpeakerDirectory) UserNames(ctx context.Context, ids []string) (map[string]string, error) {
	return d.names(ctx, `"user"`, ids)
}

// AgentNames returns the names of the agents among ids.
func (d *SpeakerDirectory) AgentNames(ctx context.Context, ids []string) (map[string]string, error) {
	return d.names(ctx, "agent", ids)
}

// names looks ids up in table. table is never user input.
func (d *SpeakerDirectory) names(ctx context.Context, table string, ids []string) (out map[string]string, err error) {
	out = make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, span := d.db.startSpan(ctx, "select", table)
	defer func() { endSpan(span, err) }()

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := d.db.rebind(fmt.Sprintf(`SELECT id, name FROM %s WHERE id IN (%s)`, table, placeholders(len(ids))))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.ErrorContext(ctx, "error looking up speakers", logging.ErrKey, err, "table", table)
		return nil, domain.NewInternalError("failed to look up speakers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, domain.NewInternalError("failed to read speaker", err)
		}
		out[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewInternalError("failed to read speakers", err)
	}
	return out, nil
}
