package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger("error")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))

	console, err := New(Options{Level: "debug", Console: true})
	require.NoError(t, err)
	assert.True(t, console.Core().Enabled(zapcore.DebugLevel))
}

func TestWithComponent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := (&Logger{Logger: zap.New(core)}).WithComponent("transfer-decoder")

	log.Info("decoded")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "transfer-decoder", entries[0].ContextMap()["component"])
}

func TestWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := (&Logger{Logger: zap.New(core)}).WithFields(map[string]interface{}{
		"source":       "blocks.stream",
		"payload_size": 12,
	})

	log.Warn("faulted")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].Context
	require.Len(t, fields, 2)
	assert.Equal(t, "payload_size", fields[0].Key)
	assert.Equal(t, "source", fields[1].Key)
	assert.Equal(t, "blocks.stream", entries[0].ContextMap()["source"])
}
