// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
)

// AgentRepository implements domain.AgentRepository.
type AgentRepository struct {
	db *DB
}

// NewAgentRepository creates an agent repository on db.
func NewAgentRepository(db *DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// GetAgent returns the agent with the given id.
func (r *AgentRepository) GetAgent(ctx context.Context, agentID string) (a *models.Agent, err error) {
	ctx, span := r.db.startSpan(ctx, "select", "agent")
	defer func() { endSpan(span, ignoreNotFound(err)) }()

	query := r.db.rebind(`SELECT id, name, user_id, instructions, created_at, updated_at
		FROM agent WHERE id = ?`)

	var agent models.Agent
	err = r.db.QueryRowContext(ctx, query, agentID).Scan(
		&agent.ID, &agent.Name, &agent.UserID, &agent.Instructions, &agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(fmt.Sprintf("agent '%s' not found", agentID), domain.ErrAgentNotFound)
		}
		slog.ErrorContext(ctx, "error reading agent", logging.ErrKey, err, "agent_id", agentID)
		return nil, domain.NewInternalError("failed to read agent", err)
	}
	return &agent, nil
}
