package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromVerbosity(t *testing.T) {
	assert.Equal(t, ErrorLevel, LevelFromVerbosity(0))
	assert.Equal(t, WarnLevel, LevelFromVerbosity(1))
	assert.Equal(t, InfoLevel, LevelFromVerbosity(2))
	assert.Equal(t, DebugLevel, LevelFromVerbosity(3))
	assert.Equal(t, WarnLevel, LevelFromVerbosity(7))
	assert.Equal(t, WarnLevel, LevelFromVerbosity(-1))
	assert.True(t, ValidVerbosity(0))
	assert.False(t, ValidVerbosity(4))
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: WarnLevel, Writer: &buf})
	require.NoError(t, err)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("shown warn")
	logger.Error("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, "shown error")
}

func TestLoggerJSONComponentAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: DebugLevel, Format: "json", Writer: &buf})
	require.NoError(t, err)

	logger.WithComponent("session").Info("sent", "payload", "secret keystrokes")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "session", entry["component"])
	assert.Equal(t, "[REDACTED]", entry["payload"])
}

func TestLogConnectionClosedLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: WarnLevel, Writer: &buf})
	require.NoError(t, err)

	logger.LogConnectionClosed("c1", 1000, "", true)
	assert.Empty(t, buf.String())

	logger.LogConnectionClosed("c1", 1006, "eof", false)
	assert.True(t, strings.Contains(buf.String(), "Connection lost"))
}

func TestLogOperationReturnsError(t *testing.T) {
	logger := NewDiscardLogger()
	err := logger.LogOperation("noop", func() error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)

	start := time.Now()
	require.NoError(t, logger.LogOperation("ok", func() error { return nil }))
	assert.WithinDuration(t, start, time.Now(), time.Second)
}
