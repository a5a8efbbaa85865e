package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SlogJSON_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Backend: "slog", Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)

	l.Info(context.Background(), "hidden")
	l.Warn(context.Background(), "shown", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}

func TestNew_ZapJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Backend: "zap", Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	l.With("component", "session").Debug(context.Background(), "bootstrap", "user_id", "u1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "bootstrap", rec["msg"])
	assert.Equal(t, "session", rec["component"])
	assert.Equal(t, "u1", rec["user_id"])
	assert.Equal(t, "debug", rec["level"])
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(Options{Backend: "log4j"})
	require.Error(t, err)
}

func TestNop_DoesNotPanic(t *testing.T) {
	var l Logger = Nop{}
	l.With("a", 1).Error(context.Background(), "x")
}
