package drift

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{"plain tag", "v1.2.3", "1.2.3", false},
		{"tool banner", "omni version 2025.12.0", "2025.12.0", false},
		{"no v prefix", "1.2.3", "1.2.3", false},
		{"with prefix", "version: 2.5.3", "2.5.3", false},
		{"multiline", "omni info\nv1.2.3\nmore info", "1.2.3", false},
		{"no version", "usage: omni [options]", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVersion(tt.output)
			if (err != nil) != tt.wantErr {
				t.Errorf("ExtractVersion() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ExtractVersion() = %v, want %v", got, tt.want)
			}
		})
	}
}

// writeVersionScript creates a fake tool binary that prints the given
// line for any invocation.
func writeVersionScript(t *testing.T, dir, name, output string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := fmt.Sprintf("#!/bin/sh\necho '%s'\n", output)
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write fake %s: %v", name, err)
	}
	return path
}

func TestDetectVersion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake binaries need a POSIX shell")
	}

	path := writeVersionScript(t, t.TempDir(), "omni", "omni version 1.2.3")

	got, err := DetectVersion(context.Background(), path)
	if err != nil {
		t.Fatalf("DetectVersion() error = %v", err)
	}
	if got != "1.2.3" {
		t.Errorf("DetectVersion() = %s, want 1.2.3", got)
	}
}

func TestDetectVersion_ShortFlagFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake binaries need a POSIX shell")
	}

	// Rejects --version, answers only to -v
	dir := t.TempDir()
	path := filepath.Join(dir, "omni")
	script := "#!/bin/sh\nif [ \"$1\" = \"-v\" ]; then echo '2.0.1'; else exit 1; fi\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := DetectVersion(context.Background(), path)
	if err != nil {
		t.Fatalf("DetectVersion() error = %v", err)
	}
	if got != "2.0.1" {
		t.Errorf("DetectVersion() = %s, want 2.0.1", got)
	}
}

func TestDetectVersion_NoVersionInOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake binaries need a POSIX shell")
	}

	path := writeVersionScript(t, t.TempDir(), "omni", "usage: omni [options]")

	if _, err := DetectVersion(context.Background(), path); err == nil {
		t.Error("DetectVersion() expected error for versionless output")
	}
}
