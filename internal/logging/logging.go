// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package logging contains the logging functionality for the meeting events service.
package logging

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"

	slogotel "github.com/remychantenay/slog-otel"
)

type ctxKey string

// Public constants
const (
	ErrKey = "error"

	MeetingIDKey = "meeting_id"
	EventTypeKey = "event_type"
	JobKey       = "job"
	JobIDKey     = "job_id"
	AttemptKey   = "attempt"
	StepKey      = "step"
)

// Private constants
const (
	slogFields      ctxKey = "slog_fields"
	logLevelDefault        = slog.LevelDebug

	// Log levels
	debug = "debug"
	warn  = "warn"
	err   = "error"
	info  = "info"

	// Log field for failures an operator has to act on, such as dead-lettered jobs.
	priorityCritical = "critical"
)

type contextHandler struct {
	slog.Handler
}

// Handle adds contextual attributes to the Record before calling the underlying handler
func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		for _, v := range attrs {
			r.AddAttrs(v)
		}
	}

	return h.Handler.Handle(ctx, r)
}

// WithAttrs keeps the context handler in the chain when loggers are derived with slog.With.
func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

// WithGroup keeps the context handler in the chain when loggers are derived with slog.WithGroup.
func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// AppendCtx adds an slog attribute to the provided context so that it will be
// included in any Record created with such context
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	if v, ok := parent.Value(slogFields).([]slog.Attr); ok {
		// Copy so that sibling contexts derived from the same parent do not share a backing array.
		next := make([]slog.Attr, len(v), len(v)+1)
		copy(next, v)
		next = append(next, attr)
		return context.WithValue(parent, slogFields, next)
	}

	return context.WithValue(parent, slogFields, []slog.Attr{attr})
}

// WithMeeting tags every record logged with ctx with the meeting id.
func WithMeeting(ctx context.Context, meetingID string) context.Context {
	return AppendCtx(ctx, slog.String(MeetingIDKey, meetingID))
}

// WithJob tags every record logged with ctx with the job name, id and delivery attempt.
func WithJob(ctx context.Context, name, id string, attempt int) context.Context {
	ctx = AppendCtx(ctx, slog.String(JobKey, name))
	ctx = AppendCtx(ctx, slog.String(JobIDKey, id))
	return AppendCtx(ctx, slog.Int(AttemptKey, attempt))
}

// InitStructureLogConfig sets the structured log behavior
func InitStructureLogConfig() slog.Handler {
	return initStructureLogConfig(os.Stdout)
}

func initStructureLogConfig(w io.Writer) slog.Handler {
	logOptions := &slog.HandlerOptions{}
	var h slog.Handler

	// Configure log level
	logLevel := os.Getenv("LOG_LEVEL")
	switch logLevel {
	case debug:
		logOptions.Level = slog.LevelDebug
	case warn:
		logOptions.Level = slog.LevelWarn
	case err:
		logOptions.Level = slog.LevelError
	case info:
		logOptions.Level = slog.LevelInfo
	default:
		logOptions.Level = logLevelDefault
	}

	// Configure source information
	addSource := os.Getenv("LOG_ADD_SOURCE")
	logOptions.AddSource = addSource == "true" || addSource == "t" || addSource == "1"

	h = slog.NewJSONHandler(w, logOptions)
	log.SetFlags(log.Llongfile)
	// Trace and span ids of the active span are added to every record.
	logger := contextHandler{slogotel.OtelHandler{Next: h}}
	slog.SetDefault(slog.New(logger))

	slog.Info("log config",
		"logLevel", logOptions.Level,
		"addSource", logOptions.AddSource,
	)

	return h
}

// Priority creates a slog.Attr for error priority classification
func Priority(level string) slog.Attr {
	return slog.String("priority", level)
}

// PriorityCritical creates a slog.Attr for critical errors
// this is used to identify critical errors in the logs
// the ones that should be escalated to the team
func PriorityCritical() slog.Attr {
	return Priority(priorityCritical)
}
