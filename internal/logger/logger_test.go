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
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSONRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "info")

	log.Info("login", "user_id", 7, "refreshToken", "eyJhbGciOi", "password", "hunter22")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "login", line["msg"])
	assert.EqualValues(t, 7, line["user_id"])
	assert.Equal(t, redacted, line["refreshToken"])
	assert.Equal(t, redacted, line["password"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "warn")

	log.Info("quiet")
	assert.Zero(t, buf.Len())

	log.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "pretty", "debug").With("component", "auth").WithGroup("req")

	log.Debug("verified", "token", "secret-value", "status", 200)

	out := buf.String()
	assert.Contains(t, out, "verified")
	assert.Contains(t, out, "component")
	assert.Contains(t, out, "req.status")
	assert.Contains(t, out, redacted)
	assert.NotContains(t, out, "secret-value")
}

func TestPrettyHandler_NilOptions(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.False(t, h.Enabled(t.Context(), slog.LevelDebug))
	assert.True(t, h.Enabled(t.Context(), slog.LevelInfo))
}
