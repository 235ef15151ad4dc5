package logger_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
)

func TestSetupReturnsLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "bogus"} {
		log, err := logger.Setup(config.ServerConfig{LogLevel: level})
		require.NoError(t, err, "level %q", level)
		require.NotNil(t, log, "level %q", level)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), logger.FromContext(context.Background()))
}

func TestWithLoggerRoundTrip(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := logger.WithLogger(context.Background(), custom)

	assert.Equal(t, custom, logger.FromContext(ctx))
	assert.Equal(t, custom, logger.FromContextOrDefault(ctx, nil))
}

func TestFromContextOrDefault(t *testing.T) {
	def := slog.New(slog.NewTextHandler(os.Stderr, nil))

	assert.Equal(t, def, logger.FromContextOrDefault(context.Background(), def))
	assert.Equal(t, slog.Default(), logger.FromContextOrDefault(context.Background(), nil))
}

func TestWithLoggerIgnoresNil(t *testing.T) {
	ctx := logger.WithLogger(context.Background(), nil)
	assert.Equal(t, slog.Default(), logger.FromContext(ctx))
}
