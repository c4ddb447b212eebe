// Package testutil provides test helpers shared by the brainless packages.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

// TestContext returns a context with a 30-second timeout that is cancelled
// when the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// WriteFile writes content to name under dir and returns the path. An empty
// dir means a fresh t.TempDir().
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// SizesJSON returns a JSON array whose first element is the role header
// {"label": "output", "colour": "categorical"} followed by n rows in which
// label is "small" for red rows with a small size and "large" otherwise.
func SizesJSON(n int) string {
	var b strings.Builder
	b.WriteString(`[{"label": "output", "colour": "categorical"}`)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			fmt.Fprintf(&b, `,{"label": "small", "colour": "red", "size": %d}`, i)
		} else {
			fmt.Fprintf(&b, `,{"label": "large", "colour": "green", "size": %d}`, 100+i)
		}
	}
	b.WriteString("]")
	return b.String()
}
