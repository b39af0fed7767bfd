package testutil

import (
	"path/filepath"
	"testing"
)

func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "runs.db")
}

func TempWorkRoot(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}
