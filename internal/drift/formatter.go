package drift

import (
	"fmt"
	"strings"
)

// FormatReport formats a status report for user display
func FormatReport(r Report) string {
	var sb strings.Builder
	sb.Grow(512)

	sb.WriteString("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	sb.WriteString(fmt.Sprintf("STATUS: %s\n", r.Tool))
	sb.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	switch r.Verdict {
	case VerdictUpToDate:
		sb.WriteString(fmt.Sprintf("  Installed:  %s%s\n", r.InstalledVersion, locationSuffix(r)))
		sb.WriteString(fmt.Sprintf("  Newest:     %s\n", r.NewestVersion))
		sb.WriteString("\n  Up to date ✓\n")

	case VerdictUpdateAvailable:
		sb.WriteString(fmt.Sprintf("  Installed:  %s%s\n", r.InstalledVersion, locationSuffix(r)))
		sb.WriteString(fmt.Sprintf("  Newest:     %s\n", r.NewestVersion))
		sb.WriteString("\n  → Update available: run 'cellarman install' to upgrade\n")

	case VerdictNotInstalled:
		sb.WriteString("  Installed:  (not installed)\n")
		if r.NewestVersion != "" {
			sb.WriteString(fmt.Sprintf("  Newest:     %s\n", r.NewestVersion))
		}
		sb.WriteString("\n  → Run 'cellarman install' to install\n")

	case VerdictVersionUnknown:
		sb.WriteString(fmt.Sprintf("  Installed:  (version unknown) at %s\n", r.Path))
		if r.NewestVersion != "" {
			sb.WriteString(fmt.Sprintf("  Newest:     %s\n", r.NewestVersion))
		}
		sb.WriteString("\n  → The binary did not report a recognizable version\n")

	case VerdictStoreEmpty:
		sb.WriteString(fmt.Sprintf("  Installed:  %s%s\n", r.InstalledVersion, locationSuffix(r)))
		sb.WriteString("  Newest:     (no versions recorded)\n")
		sb.WriteString("\n  → Run 'cellarman sync' to fetch release metadata\n")

	case VerdictStoreBehind:
		sb.WriteString(fmt.Sprintf("  Installed:  %s%s\n", r.InstalledVersion, locationSuffix(r)))
		sb.WriteString(fmt.Sprintf("  Newest:     %s\n", r.NewestVersion))
		sb.WriteString("\n  → Installed version is newer than the store: run 'cellarman sync'\n")
	}

	return sb.String()
}

// locationSuffix annotates where the probed binary came from
func locationSuffix(r Report) string {
	if r.Path == "" {
		return ""
	}
	if r.Managed {
		return fmt.Sprintf(" at %s (managed by cellarman)", r.Path)
	}
	return fmt.Sprintf(" at %s (external installation)", r.Path)
}
