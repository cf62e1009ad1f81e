// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
)

const meetingColumns = `m.id, m.name, m.user_id, m.agent_id, m.meeting_status, m.transcript_url,
	m.recording_url, m.summary, m.started_at, m.ended_at, m.created_at, m.updated_at`

// MeetingRepository implements domain.MeetingRepository.
type MeetingRepository struct {
	db  *DB
	now func() time.Time
}

// NewMeetingRepository creates a meeting repository on db.
func NewMeetingRepository(db *DB) *MeetingRepository {
	return &MeetingRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner, extra ...any) (*models.Meeting, error) {
	var (
		m                                    models.Meeting
		status                               string
		transcriptURL, recordingURL, summary sql.NullString
		startedAt, endedAt                   sql.NullTime
	)
	dest := []any{
		&m.ID, &m.Name, &m.UserID, &m.AgentID, &status, &transcriptURL,
		&recordingURL, &summary, &startedAt, &endedAt, &m.CreatedAt, &m.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	m.Status = models.MeetingStatus(status)
	m.TranscriptURL = nullString(transcriptURL)
	m.RecordingURL = nullString(recordingURL)
	m.Summary = nullString(summary)
	m.StartedAt = nullTime(startedAt)
	m.EndedAt = nullTime(endedAt)
	return &m, nil
}

// GetMeeting returns the meeting with the given id.
func (r *MeetingRepository) GetMeeting(ctx context.Context, meetingID string) (m *models.Meeting, err error) {
	ctx, span := r.db.startSpan(ctx, "select", "meeting")
	defer func() { endSpan(span, ignoreNotFound(err)) }()

	query := r.db.rebind(`SELECT ` + meetingColumns + ` FROM meeting m WHERE m.id = ?`)
	m, err = scanMeeting(r.db.QueryRowContext(ctx, query, meetingID))
	if err != nil {
		return nil, mapMeetingError(ctx, err, meetingID)
	}
	return m, nil
}

// GetMeetingWithAgent returns the meeting joined with its agent when it has the status.
func (r *MeetingRepository) GetMeetingWithAgent(ctx context.Context, meetingID string, status models.MeetingStatus) (mwa *models.MeetingWithAgent, err error) {
	ctx, span := r.db.startSpan(ctx, "select", "meeting")
	defer func() { endSpan(span, ignoreNotFound(err)) }()

	query := r.db.rebind(`SELECT ` + meetingColumns + `,
		a.id, a.name, a.user_id, a.instructions, a.created_at, a.updated_at
		FROM meeting m
		INNER JOIN agent a ON a.id = m.agent_id
		WHERE m.id = ? AND m.meeting_status = ?`)

	var a models.Agent
	m, err := scanMeeting(r.db.QueryRowContext(ctx, query, meetingID, string(status)),
		&a.ID, &a.Name, &a.UserID, &a.Instructions, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapMeetingError(ctx, err, meetingID)
	}
	return &models.MeetingWithAgent{Meeting: *m, Agent: a}, nil
}

// CompareAndSwapStatus moves the meeting to status to when it is in status from, writing
// the non-nil fields of patch in the same statement.
func (r *MeetingRepository) CompareAndSwapStatus(ctx context.Context, meetingID string, from, to models.MeetingStatus, patch models.MeetingPatch) (applied bool, err error) {
	ctx, span := r.db.startSpan(ctx, "update", "meeting")
	span.SetAttributes(
		attribute.String("meeting.status.from", string(from)),
		attribute.String("meeting.status.to", string(to)),
	)
	defer func() {
		span.SetAttributes(attribute.Bool("meeting.status.applied", applied))
		endSpan(span, err)
	}()

	query := r.db.rebind(`UPDATE meeting SET
		meeting_status = ?,
		started_at = COALESCE(?, started_at),
		ended_at = COALESCE(?, ended_at),
		summary = COALESCE(?, summary),
		updated_at = ?
		WHERE id = ? AND meeting_status = ?`)

	res, err := r.db.ExecContext(ctx, query,
		string(to),
		patch.StartedAt,
		patch.EndedAt,
		patch.Summary,
		r.now().UTC(),
		meetingID,
		string(from),
	)
	if err != nil {
		slog.ErrorContext(ctx, "error updating meeting status", logging.ErrKey, err,
			"from", from, "to", to)
		return false, domain.NewInternalError("failed to update meeting status", err)
	}

	return rowsApplied(res)
}

// SetTranscriptURL records the transcript location of the meeting.
func (r *MeetingRepository) SetTranscriptURL(ctx context.Context, meetingID, url string) (bool, error) {
	return r.setField(ctx, "transcript_url", meetingID, url)
}

// SetRecordingURL records the recording location of the meeting.
func (r *MeetingRepository) SetRecordingURL(ctx context.Context, meetingID, url string) (bool, error) {
	return r.setField(ctx, "recording_url", meetingID, url)
}

// setField updates a column whatever the meeting status. column is never user input.
func (r *MeetingRepository) setField(ctx context.Context, column, meetingID, value string) (applied bool, err error) {
	ctx, span := r.db.startSpan(ctx, "update", "meeting")
	span.SetAttributes(attribute.String("db.sql.column", column))
	defer func() { endSpan(span, err) }()

	query := r.db.rebind(fmt.Sprintf(`UPDATE meeting SET %s = ?, updated_at = ? WHERE id = ?`, column))
	res, err := r.db.ExecContext(ctx, query, value, r.now().UTC(), meetingID)
	if err != nil {
		slog.ErrorContext(ctx, "error updating meeting", logging.ErrKey, err, "column", column)
		return false, domain.NewInternalError("failed to update meeting", err)
	}
	return rowsApplied(res)
}

func rowsApplied(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.NewInternalError("failed to read affected rows", err)
	}
	return n > 0, nil
}

func mapMeetingError(ctx context.Context, err error, meetingID string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError(fmt.Sprintf("meeting '%s' not found", meetingID), domain.ErrMeetingNotFound)
	}
	slog.ErrorContext(ctx, "error reading meeting", logging.ErrKey, err)
	return domain.NewInternalError("failed to read meeting", err)
}

func ignoreNotFound(err error) error {
	if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
		return nil
	}
	return err
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
