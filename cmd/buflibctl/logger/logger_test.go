package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabled(t *testing.T) {
	require.NoError(t, Init(Options{}))
	assert.False(t, L.Enabled(t.Context(), slog.LevelError))
	assert.False(t, Enabled())
}

func TestEnabledFollowsInit(t *testing.T) {
	require.NoError(t, Init(Options{Enabled: true, Level: slog.LevelInfo}))
	t.Cleanup(func() { _ = Init(Options{}) })
	assert.True(t, Enabled())

	path := filepath.Join(t.TempDir(), "x.log")
	require.NoError(t, Init(Options{Enabled: true, File: path}))
	assert.True(t, Enabled())
	Close()
	assert.False(t, Enabled())
}

func TestInitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "buflibctl.log")
	require.NoError(t, Init(Options{Enabled: true, File: path, Level: slog.LevelDebug}))
	t.Cleanup(Close)

	Debug("hello", "k", 1)
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":1`)
}

func TestInitStderrLevel(t *testing.T) {
	require.NoError(t, Init(Options{Enabled: true, Level: slog.LevelInfo}))
	t.Cleanup(func() { _ = Init(Options{}) })

	assert.True(t, L.Enabled(t.Context(), slog.LevelInfo))
	assert.False(t, L.Enabled(t.Context(), slog.LevelDebug))
}
