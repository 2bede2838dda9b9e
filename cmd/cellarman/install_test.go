package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cellarman/cellarman/internal/install"
	"github.com/cellarman/cellarman/internal/platform"
	"github.com/cellarman/cellarman/internal/release"
	"github.com/cellarman/cellarman/internal/store"
	"github.com/cellarman/cellarman/internal/testutil"
)

func TestRunInstall_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown option", []string{"--bogus"}},
		{"bin-dir without value", []string{"--bin-dir"}},
		{"config without value", []string{"--config"}},
		{"second version argument", []string{"1.2.3", "4.5.6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := runInstall(tt.args)
			if err == nil {
				t.Error("expected a usage error")
			}
			if code != 2 {
				t.Errorf("exit code = %d, want 2", code)
			}
		})
	}
}

func TestRunInstall_Help(t *testing.T) {
	code, err := runInstall([]string{"--help"})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestRunInstall_EmptyStore(t *testing.T) {
	testutil.SetupTestEnv(t)

	code, err := runInstall(nil)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if err == nil || !strings.Contains(err.Error(), "cellarman sync") {
		t.Errorf("error = %v, want a hint to run sync", err)
	}
}

func TestRunInstall_UnknownVersion(t *testing.T) {
	testutil.SetupTestEnv(t)

	seedStore(t, release.VersionRecord{
		Version: "3.0.0",
		Build:   release.Build{Tag: "v3.0.0", Revision: "abcdef12"},
	})

	code, err := runInstall([]string{"9.9.9"})
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if err == nil || !strings.Contains(err.Error(), "not in the store") {
		t.Errorf("error = %v, want a not-in-store message", err)
	}
}

func TestRunInstall_EndToEnd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions required")
	}
	testutil.SetupTestEnv(t)
	// An empty PATH means no verification backend: the install proceeds
	// unverified without fetching any signature.
	t.Setenv("PATH", t.TempDir())

	artOS, artArch := hostArtifactLabels(t)
	content := "#!/bin/sh\necho omni\n"
	archive := buildReleaseArchive(t, "omni", content)
	sum := sha256.Sum256(archive)

	stem := fmt.Sprintf("omni-3.0.0-%s-%s", artArch, artOS)
	server := serveArchive(t, "/dl/"+stem+".tar.gz", archive)

	seedStore(t, release.VersionRecord{
		Version: "3.0.0",
		Build:   release.Build{Tag: "v3.0.0", Revision: "abcdef12"},
		Binaries: []release.BinaryAsset{{
			OS:       artOS,
			Arch:     artArch,
			URL:      server.URL + "/dl/" + stem + ".tar.gz",
			Checksum: hex.EncodeToString(sum[:]),
		}},
	})

	binDir := t.TempDir()
	code, err := runInstall([]string{"--bin-dir", binDir})
	if err != nil {
		t.Fatalf("runInstall() error = %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	installed, err := os.ReadFile(filepath.Join(binDir, "omni"))
	if err != nil {
		t.Fatalf("installed binary missing: %v", err)
	}
	if string(installed) != content {
		t.Errorf("installed content = %q, want %q", installed, content)
	}
	fi, err := os.Stat(filepath.Join(binDir, "omni"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm()&0111 == 0 {
		t.Errorf("installed binary not executable: %v", fi.Mode())
	}

	// The archive lands in the download cache under the state directory
	cached := filepath.Join(os.Getenv("CELLARMAN_DIR"),
		"cache", "downloads", "omni", "3.0.0", stem+".tar.gz")
	if _, err := os.Stat(cached); err != nil {
		t.Errorf("cached archive missing: %v", err)
	}
}

func TestRunInstall_ChecksumMismatch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions required")
	}
	testutil.SetupTestEnv(t)
	t.Setenv("PATH", t.TempDir())

	artOS, artArch := hostArtifactLabels(t)
	archive := buildReleaseArchive(t, "omni", "#!/bin/sh\nexit 0\n")

	stem := fmt.Sprintf("omni-3.0.0-%s-%s", artArch, artOS)
	server := serveArchive(t, "/dl/"+stem+".tar.gz", archive)

	seedStore(t, release.VersionRecord{
		Version: "3.0.0",
		Build:   release.Build{Tag: "v3.0.0", Revision: "abcdef12"},
		Binaries: []release.BinaryAsset{{
			OS:       artOS,
			Arch:     artArch,
			URL:      server.URL + "/dl/" + stem + ".tar.gz",
			Checksum: strings.Repeat("0", 64),
		}},
	})

	binDir := t.TempDir()
	code, err := runInstall([]string{"--bin-dir", binDir})
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !errors.Is(err, install.ErrChecksumMismatch) {
		t.Fatalf("error = %v, want ErrChecksumMismatch", err)
	}
	if _, err := os.Stat(filepath.Join(binDir, "omni")); !os.IsNotExist(err) {
		t.Error("binary was installed despite checksum mismatch")
	}
}

// seedStore persists records at the default store location inside the
// test state directory.
func seedStore(t *testing.T, records ...release.VersionRecord) {
	t.Helper()
	path := filepath.Join(os.Getenv("CELLARMAN_DIR"), "versions.json")
	if err := store.Persist(path, records); err != nil {
		t.Fatal(err)
	}
}

// hostArtifactLabels returns the artifact naming for the host platform,
// skipping the test when there is none.
func hostArtifactLabels(t *testing.T) (string, string) {
	t.Helper()
	info := &platform.Info{OS: runtime.GOOS, Arch: runtime.GOARCH}
	artOS, err := info.ArtifactOS()
	if err != nil {
		t.Skipf("no artifact naming for %s", runtime.GOOS)
	}
	artArch, err := info.ArtifactArch()
	if err != nil {
		t.Skipf("no artifact naming for %s", runtime.GOARCH)
	}
	return artOS, artArch
}

// buildReleaseArchive returns a gzipped tarball holding one executable
// file named tool.
func buildReleaseArchive(t *testing.T, tool, content string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	if err := tw.WriteHeader(&tar.Header{
		Name: tool,
		Mode: 0755,
		Size: int64(len(content)),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func serveArchive(t *testing.T, path string, body []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}
