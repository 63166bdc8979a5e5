package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Defaults(t *testing.T) {
	logger, err := NewLogger(nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.NotNil(t, logger.Zap())
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	_, err := NewLogger(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Caller.Skip = -1
	require.Error(t, cfg.Validate())
}

func TestContextFields_Session(t *testing.T) {
	ctx := WithSessionID(context.Background(), "sess-1")
	ctx = WithRequestID(ctx, "req-1")

	fields := ContextFields(ctx)
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Contains(t, keys, "session.id")
	assert.Contains(t, keys, "request.id")
}

func TestContextFields_Empty(t *testing.T) {
	fields := ContextFields(context.Background())
	assert.Empty(t, fields)
}

func TestSessionIDFromContext(t *testing.T) {
	assert.Equal(t, "", SessionIDFromContext(context.Background()))

	ctx := WithSessionID(context.Background(), "sess-2")
	assert.Equal(t, "sess-2", SessionIDFromContext(ctx))

	// Empty session ID is not stored.
	ctx = WithSessionID(context.Background(), "")
	assert.Equal(t, "", SessionIDFromContext(ctx))
}

func TestLogger_ChildLoggers(t *testing.T) {
	logger, err := NewLogger(&Config{
		Level:  zapcore.DebugLevel,
		Format: "console",
	})
	require.NoError(t, err)

	named := logger.Named("orchestrator")
	require.NotNil(t, named)
	assert.NotSame(t, logger, named)

	child := logger.With()
	require.NotNil(t, child)
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	// Must not panic on any method.
	logger.Debug(context.Background(), "debug")
	logger.Info(context.Background(), "info")
	logger.Warn(context.Background(), "warn")
	logger.Error(context.Background(), "error")
	require.NoError(t, logger.Sync())
}
