package platform

import (
	"fmt"
	"strings"
)

// familyMap maps distribution names to their canonical family names.
// This is used to normalize variations of family strings from gopsutil.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian, // gopsutil might return ubuntu as family
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// artifactArchMap maps normalized Go architectures to the labels upstream
// uses in artifact file names (omni-1.2.3-x86_64-linux.tar.gz).
var artifactArchMap = map[string]string{
	"amd64": "x86_64",
	"arm64": "aarch64",
	"386":   "i686",
}

// normalizeArch converts GOARCH values to normalized architecture names.
// Only amd64 and arm64 are supported; upstream ships no other binaries.
func normalizeArch(arch string) (string, error) {
	switch arch {
	case "amd64", "x86_64":
		return "amd64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s (prebuilt binaries exist for amd64 and arm64 only)", arch)
	}
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
// Uses a package-level lookup table for explicit mapping.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}

	// Return "unknown" for unrecognized families
	return FamilyUnknown
}

// artifactOS maps a Go operating system name to the label used in artifact
// file names. Upstream publishes binaries for Linux and macOS only.
func artifactOS(goos string) (string, error) {
	switch goos {
	case "linux", "darwin":
		return goos, nil
	default:
		return "", fmt.Errorf("no prebuilt binaries published for %s", goos)
	}
}

// artifactArch maps a normalized architecture to the label used in artifact
// file names.
func artifactArch(arch string) (string, error) {
	if label, ok := artifactArchMap[arch]; ok {
		return label, nil
	}
	return "", fmt.Errorf("no prebuilt binaries published for architecture %s", arch)
}
