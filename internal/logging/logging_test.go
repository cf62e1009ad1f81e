// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCtx(t *testing.T) {
	ctx := AppendCtx(context.TODO(), slog.String("key1", "value1"))
	require.NotNil(t, ctx)

	attrs, ok := ctx.Value(slogFields).([]slog.Attr)
	require.True(t, ok, "expected slog attributes in context")
	require.Len(t, attrs, 1)
	assert.Equal(t, "key1", attrs[0].Key)
	assert.Equal(t, "value1", attrs[0].Value.String())
}

func TestAppendCtx_WithParent(t *testing.T) {
	parentCtx := AppendCtx(context.Background(), slog.String("parent_key", "parent_value"))
	childCtx := AppendCtx(parentCtx, slog.String("child_key", "child_value"))

	attrs, ok := childCtx.Value(slogFields).([]slog.Attr)
	require.True(t, ok)
	require.Len(t, attrs, 2)
	assert.Equal(t, "parent_key", attrs[0].Key)
	assert.Equal(t, "child_key", attrs[1].Key)
}

func TestAppendCtx_SiblingsDoNotShareAttributes(t *testing.T) {
	parent := AppendCtx(context.Background(), slog.String("root", "r"))
	parent = AppendCtx(parent, slog.String("second", "s"))

	left := AppendCtx(parent, slog.String("side", "left"))
	right := AppendCtx(parent, slog.String("side", "right"))

	leftAttrs := left.Value(slogFields).([]slog.Attr)
	rightAttrs := right.Value(slogFields).([]slog.Attr)

	assert.Equal(t, "left", leftAttrs[2].Value.String())
	assert.Equal(t, "right", rightAttrs[2].Value.String())
}

func TestWithJob(t *testing.T) {
	ctx := WithJob(context.Background(), "meetings/processing", "job-1", 3)

	attrs := ctx.Value(slogFields).([]slog.Attr)
	require.Len(t, attrs, 3)
	assert.Equal(t, JobKey, attrs[0].Key)
	assert.Equal(t, "meetings/processing", attrs[0].Value.String())
	assert.Equal(t, JobIDKey, attrs[1].Key)
	assert.Equal(t, AttemptKey, attrs[2].Key)
	assert.Equal(t, int64(3), attrs[2].Value.Int64())
}

func TestContextHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	handler := contextHandler{Handler: slog.NewJSONHandler(&buf, nil)}

	ctx := WithMeeting(context.Background(), "m1")
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "test message", 0)
	record.AddAttrs(slog.String("record_key", "record_value"))

	require.NoError(t, handler.Handle(ctx, record))

	var logged map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logged))
	assert.Equal(t, "m1", logged[MeetingIDKey])
	assert.Equal(t, "record_value", logged["record_key"])
}

func TestContextHandler_WithAttrsKeepsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(contextHandler{Handler: slog.NewJSONHandler(&buf, nil)}).With("component", "test")

	logger.InfoContext(WithMeeting(context.Background(), "m2"), "hello")

	out := buf.String()
	assert.True(t, strings.Contains(out, `"component":"test"`), out)
	assert.True(t, strings.Contains(out, `"meeting_id":"m2"`), out)
}

func TestInitStructureLogConfig_WithLogLevel(t *testing.T) {
	testCases := []struct {
		name     string
		logLevel string
	}{
		{"debug level", "debug"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"info level", "info"},
		{"unknown level", "unknown"},
	}

	originalLogLevel := os.Getenv("LOG_LEVEL")
	defer func() {
		if originalLogLevel != "" {
			os.Setenv("LOG_LEVEL", originalLogLevel)
		} else {
			os.Unsetenv("LOG_LEVEL")
		}
	}()

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Setenv("LOG_LEVEL", tc.logLevel)
			var buf bytes.Buffer
			handler := initStructureLogConfig(&buf)
			assert.NotNil(t, handler)
		})
	}
}

func TestPriorityCritical(t *testing.T) {
	attr := PriorityCritical()
	assert.Equal(t, "priority", attr.Key)
	assert.Equal(t, "critical", attr.Value.String())
}
