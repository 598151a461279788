package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactsSecretValues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.Info("connecting", "uri", "neo4j://localhost:7687", "NEO4J_PASSWORD", "hunter2", "llm_api_key", "sk-1")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "neo4j://localhost:7687", fields["uri"])
	assert.Equal(t, "[REDACTED]", fields["NEO4J_PASSWORD"])
	assert.Equal(t, "[REDACTED]", fields["llm_api_key"])
}

func TestWithKeepsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := (&Logger{SugaredLogger: zap.New(core).Sugar()}).With("instance", "development")

	l.Warn("diagnostic", "code", "unknown_target")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "development", fields["instance"])
	assert.Equal(t, "unknown_target", fields["code"])
}

func TestNewAndNop(t *testing.T) {
	for _, mode := range []string{"dev", "production"} {
		l, err := New(mode)
		require.NoError(t, err)
		assert.NotNil(t, l.SugaredLogger)
	}
	OrNop(nil).Info("discarded")
}
