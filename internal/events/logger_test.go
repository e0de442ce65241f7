package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(DebugLevel, "json", &buf)

	logger.WithField("note", "inbox/a.md").Info("Moved note")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "info", record["level"])
	assert.Equal(t, "Moved note", record["msg"])
	assert.Equal(t, "inbox/a.md", record["note"])
	assert.NotEmpty(t, record["time"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(WarnLevel, "json", &buf)

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerFieldsDoNotLeakBack(t *testing.T) {
	var buf bytes.Buffer
	base := NewTestLogger(DebugLevel, "json", &buf)

	derived := base.WithFields(map[string]interface{}{"component": "ledger"})
	derived.WithError(errors.New("boom")).Warn("derived message")

	buf.Reset()
	base.Info("base message")
	assert.NotContains(t, buf.String(), "component")
	assert.NotContains(t, buf.String(), "boom")
}

func TestLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(DebugLevel, "text", &buf)

	logger.WithField("count", 3).Info("Sweep complete")

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "Sweep complete")
	assert.Contains(t, out, "count=3")
}

func TestLoggerEscapesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(DebugLevel, "json", &buf)

	logger.WithField("path", `folder\sub`).Info("line\nbreak \"quoted\"")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "line\nbreak \"quoted\"", record["msg"])
	assert.Equal(t, `folder\sub`, record["path"])
}

func TestContextCarriers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(DebugLevel, "json", &buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithNotePath(ctx, "inbox/a.md")
	ctx = WithOperation(ctx, "op-1")

	FromContext(ctx).Info("from context")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "inbox/a.md", record["note"])
	assert.Equal(t, "op-1", record["operation_id"])

	assert.Equal(t, "inbox/a.md", GetNotePath(ctx))
	assert.Empty(t, GetNotePath(context.Background()))
}
