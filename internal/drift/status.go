package drift

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/mod/semver"
)

// Verdict classifies the installed binary against the version store.
type Verdict int

const (
	VerdictUpToDate Verdict = iota
	VerdictUpdateAvailable
	VerdictNotInstalled
	VerdictVersionUnknown
	VerdictStoreEmpty
	VerdictStoreBehind
)

// String returns a human-readable verdict name
func (v Verdict) String() string {
	switch v {
	case VerdictUpToDate:
		return "UP_TO_DATE"
	case VerdictUpdateAvailable:
		return "UPDATE_AVAILABLE"
	case VerdictNotInstalled:
		return "NOT_INSTALLED"
	case VerdictVersionUnknown:
		return "VERSION_UNKNOWN"
	case VerdictStoreEmpty:
		return "STORE_EMPTY"
	case VerdictStoreBehind:
		return "STORE_BEHIND"
	default:
		return "UNKNOWN"
	}
}

// Report is the outcome of comparing the installed tool binary against
// the newest stored version.
type Report struct {
	Tool             string
	Path             string
	Managed          bool
	InstalledVersion string
	NewestVersion    string
	Verdict          Verdict
}

// Check locates the tool binary, probes its version and classifies it
// against the newest stored version. newestVersion is empty when the
// store has no records. Check never fails; every outcome is a verdict.
//
// The decision tree (first match wins):
//  1. NotInstalled: no binary in the bin directory or on PATH
//  2. VersionUnknown: binary found but the version probe failed
//  3. StoreEmpty: nothing recorded to compare against
//  4. UpToDate / UpdateAvailable / StoreBehind: semver comparison
func Check(ctx context.Context, tool, binDir, newestVersion string) Report {
	report := Report{Tool: tool, NewestVersion: newestVersion}

	path, managed := locateBinary(tool, binDir)
	if path == "" {
		report.Verdict = VerdictNotInstalled
		return report
	}
	report.Path = path
	report.Managed = managed

	version, err := DetectVersion(ctx, path)
	if err != nil {
		report.Verdict = VerdictVersionUnknown
		return report
	}
	report.InstalledVersion = version

	if newestVersion == "" {
		report.Verdict = VerdictStoreEmpty
		return report
	}

	switch semver.Compare("v"+version, "v"+newestVersion) {
	case 0:
		report.Verdict = VerdictUpToDate
	case -1:
		report.Verdict = VerdictUpdateAvailable
	default:
		report.Verdict = VerdictStoreBehind
	}
	return report
}

// locateBinary finds the tool binary: the managed bin directory first,
// then PATH. The boolean reports whether the managed copy was the one
// found, so external installations can be called out.
func locateBinary(tool, binDir string) (string, bool) {
	managed := filepath.Join(binDir, tool)
	if info, err := os.Stat(managed); err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0 {
		return managed, true
	}
	if path, err := exec.LookPath(tool); err == nil {
		return path, false
	}
	return "", false
}
