// Package drift compares the installed tool binary against the version
// store: which binary is active, what version it reports, and whether
// the store holds something newer.
package drift

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
)

var versionRegex = regexp.MustCompile(`\d+\.\d+\.\d+`)

// ExtractVersion extracts a semantic version from command output
func ExtractVersion(output string) (string, error) {
	match := versionRegex.FindString(output)
	if match == "" {
		return "", fmt.Errorf("no version found in output")
	}
	return match, nil
}

// DetectVersion detects the version of a binary by executing it.
// Tries the --version flag first, then -v as fallback.
func DetectVersion(ctx context.Context, binaryPath string) (string, error) {
	for _, flag := range []string{"--version", "-v"} {
		output, err := exec.CommandContext(ctx, binaryPath, flag).Output()
		if err != nil {
			continue
		}
		if version, err := ExtractVersion(string(output)); err == nil {
			return version, nil
		}
	}
	return "", fmt.Errorf("failed to detect version for %s", binaryPath)
}
