package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_Enabled(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true, "info")

	l.Debug("hidden")
	l.Info("fetched badge list", "app_id", 440)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "fetched badge list", record["msg"])
	assert.Equal(t, float64(440), record["app_id"])
}

func TestNew_Disabled(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false, "debug")

	l.Error("should not appear")
	assert.Zero(t, buf.Len())
}
