package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestInitAndWithContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brainless.log")
	require.NoError(t, Init(Config{Level: "debug", OutputPaths: []string{path}}))
	t.Cleanup(func() {
		mu.Lock()
		globalLogger = nil
		mu.Unlock()
	})

	ctx := context.WithValue(context.Background(), RunIDKey, "run-1")
	ctx = context.WithValue(ctx, KindKey, "classifier")
	WithContext(ctx).Info("candidate evaluated")
	Get().Debug("debug line")
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"run_id":"run-1"`)
	assert.Contains(t, lines[0], `"kind":"classifier"`)
	assert.Contains(t, lines[0], `"message":"candidate evaluated"`)
	assert.NotContains(t, lines[0], `"family"`)
	assert.Contains(t, lines[1], `"level":"debug"`)
}

func TestGetDefaultsToWarn(t *testing.T) {
	mu.Lock()
	globalLogger = nil
	mu.Unlock()

	l := Get()
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestForTagsComponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "component.log")
	require.NoError(t, Init(Config{Level: "info", OutputPaths: []string{path}}))
	t.Cleanup(func() {
		mu.Lock()
		globalLogger = nil
		mu.Unlock()
	})

	For("search", zap.Int("folds", 5)).Info("search started")
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"search"`)
	assert.Contains(t, string(data), `"folds":5`)
}
