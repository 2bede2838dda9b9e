// Package testutil provides utilities for testing cellarman in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv creates isolated test directories for each test.
// This ensures cellarman tests never interfere with:
// - The user's actual cellarman state and version store
// - The user's installed binaries under ~/.local/bin
// - Real GitHub credentials in the caller's environment
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	// Create temp directory (auto-cleaned by testing framework)
	tmpDir := t.TempDir()

	// Point all cellarman paths at the temp location
	t.Setenv("CELLARMAN_DIR", filepath.Join(tmpDir, "state"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))

	// Never let a developer's real token leak into test requests
	t.Setenv("CELLARMAN_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")

	// Keep log output deterministic across environments
	t.Setenv("CELLARMAN_UNSTRUCTURED_LOGS", "true")

	// Create the directories
	dirs := []string{
		filepath.Join(tmpDir, "state"),
		filepath.Join(tmpDir, "state", "cache"),
		filepath.Join(tmpDir, "home"),
		filepath.Join(tmpDir, "home", ".local", "bin"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return tmpDir
}
