package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, ok := ParseLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	got, ok := ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, got)
}

func TestNewZapHonoursLevel(t *testing.T) {
	z, err := NewZap("warn", false)
	require.NoError(t, err)
	assert.False(t, z.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, z.Core().Enabled(zapcore.WarnLevel))

	InitSlog(z, "warn")
	NewSlogAdapter().Info("dropped below warn")
}
