package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_RequestIDFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core)).With("component", "transport")

	log.Info(WithRequestID(context.Background(), "req-7"), "refreshing", "path", "/auth/me")
	log.Debug(context.Background(), "plain")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]any{"component": "transport", "path": "/auth/me", "request_id": "req-7"}, entries[0].ContextMap())
	assert.Equal(t, map[string]any{"component": "transport"}, entries[1].ContextMap())
}
