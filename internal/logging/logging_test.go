package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithPath(t *testing.T) {
	t.Run("file output writes to the configured path", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "logs", "cratedocs.log")
		result := NewLoggerWithPath(Config{Level: "debug", Output: "file", File: logPath})
		defer func() { require.NoError(t, result.Close()) }()

		assert.True(t, result.UsingFile)
		assert.Equal(t, logPath, result.FilePath)
		assert.False(t, result.FallbackUsed)

		result.Logger.Info().Str("component", "test").Msg("hello")

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"component":"test"`)
	})

	t.Run("unpreparable file path falls back to stderr", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "occupied")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

		result := NewLoggerWithPath(Config{Output: "file", File: filepath.Join(blocker, "sub", "app.log")})
		assert.False(t, result.UsingFile)
		assert.True(t, result.FallbackUsed)
		assert.NotEmpty(t, result.FallbackReason)
	})

	t.Run("empty file path falls back to stderr", func(t *testing.T) {
		result := NewLoggerWithPath(Config{Output: "file"})
		assert.True(t, result.FallbackUsed)
	})

	t.Run("invalid level defaults to info", func(t *testing.T) {
		result := NewLoggerWithPath(Config{Level: "shouting"})
		assert.Equal(t, zerolog.InfoLevel, result.Logger.GetLevel())
	})

	t.Run("close without file is a no-op", func(t *testing.T) {
		result := NewLoggerWithPath(Config{})
		assert.NoError(t, result.Close())
		assert.NoError(t, result.Close())
	})
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := ComponentLogger(zerolog.New(&buf), "storage")
	logger.Info().Msg("ready")

	assert.Contains(t, buf.String(), `"component":"storage"`)
}

func TestContextPlumbing(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)

		ctx := WithContext(context.Background(), logger)
		log := FromContext(ctx)
		log.Info().Msg("from context")

		assert.Contains(t, buf.String(), "from context")
	})

	t.Run("missing logger is silent", func(t *testing.T) {
		log := FromContext(context.Background())
		// Must not panic; the default context logger discards events.
		log.Info().Msg("dropped")
	})
}

func TestTraceID(t *testing.T) {
	t.Run("generates when absent", func(t *testing.T) {
		id := GetOrGenerateTraceID(context.Background())
		assert.Len(t, id, 26)
	})

	t.Run("preserves attached value", func(t *testing.T) {
		ctx := ContextWithTraceID(context.Background(), "trace-123")
		assert.Equal(t, "trace-123", GetOrGenerateTraceID(ctx))
		assert.Equal(t, "trace-123", TraceIDFromContext(ctx))
	})

	t.Run("distinct across calls", func(t *testing.T) {
		a := GetOrGenerateTraceID(context.Background())
		b := GetOrGenerateTraceID(context.Background())
		assert.NotEqual(t, a, b)
	})
}
