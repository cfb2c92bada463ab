package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name          string
		setupContext  func() context.Context
		expectDefault bool
	}{
		{
			name: "context with logger",
			setupContext: func() context.Context {
				return New(context.Background(), NewText(&bytes.Buffer{}))
			},
			expectDefault: false,
		},
		{
			name:          "context without logger",
			setupContext:  context.Background,
			expectDefault: true,
		},
		{
			name: "context with nil logger value",
			setupContext: func() context.Context {
				return context.WithValue(context.Background(), loggerKey{}, nil)
			},
			expectDefault: true,
		},
		{
			name: "context with wrong type value",
			setupContext: func() context.Context {
				return context.WithValue(context.Background(), loggerKey{}, "not a logger")
			},
			expectDefault: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := Logger(tt.setupContext())
			if tt.expectDefault {
				assert.Same(t, DefaultLogger, logger)
			} else {
				assert.NotSame(t, DefaultLogger, logger)
			}
		})
	}
}

func TestNewNilUsesDefault(t *testing.T) {
	ctx := New(context.Background(), nil)
	assert.Same(t, DefaultLogger, Logger(ctx))
}

func TestWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	ctx := New(context.Background(), NewText(&buf))
	ctx = With(ctx, "command_id", "0x10")

	Error(ctx, "send failed")

	assert.Contains(t, buf.String(), "command_id=0x10")
	assert.Contains(t, buf.String(), "send failed")
}

func TestSetLevel(t *testing.T) {
	prev := LevelVar.Level()
	t.Cleanup(func() { LevelVar.Set(prev) })

	var buf bytes.Buffer
	ctx := New(context.Background(), NewText(&buf))

	require.NoError(t, SetLevel("warn"))
	Info(ctx, "hidden")
	Warn(ctx, "shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	require.NoError(t, SetLevel("TRACE"))
	Debug(ctx, "debug line")
	assert.Contains(t, buf.String(), "debug line")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"Info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
