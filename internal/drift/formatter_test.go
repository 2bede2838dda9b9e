package drift

import (
	"strings"
	"testing"
)

func TestFormatReport(t *testing.T) {
	tests := []struct {
		name     string
		report   Report
		contains []string
	}{
		{
			name: "up to date managed",
			report: Report{
				Tool: "omni", Path: "/home/u/.local/bin/omni", Managed: true,
				InstalledVersion: "1.2.3", NewestVersion: "1.2.3",
				Verdict: VerdictUpToDate,
			},
			contains: []string{"STATUS: omni", "Up to date", "managed by cellarman", "1.2.3"},
		},
		{
			name: "update available",
			report: Report{
				Tool: "omni", Path: "/home/u/.local/bin/omni", Managed: true,
				InstalledVersion: "1.2.3", NewestVersion: "1.3.0",
				Verdict: VerdictUpdateAvailable,
			},
			contains: []string{"Installed:  1.2.3", "Newest:     1.3.0", "cellarman install"},
		},
		{
			name: "not installed",
			report: Report{
				Tool: "omni", NewestVersion: "1.3.0",
				Verdict: VerdictNotInstalled,
			},
			contains: []string{"(not installed)", "1.3.0", "cellarman install"},
		},
		{
			name: "external installation",
			report: Report{
				Tool: "omni", Path: "/usr/bin/omni", Managed: false,
				InstalledVersion: "1.2.3", NewestVersion: "1.3.0",
				Verdict: VerdictUpdateAvailable,
			},
			contains: []string{"external installation", "/usr/bin/omni"},
		},
		{
			name: "version unknown",
			report: Report{
				Tool: "omni", Path: "/usr/bin/omni",
				NewestVersion: "1.3.0",
				Verdict:       VerdictVersionUnknown,
			},
			contains: []string{"version unknown", "/usr/bin/omni"},
		},
		{
			name: "store empty",
			report: Report{
				Tool: "omni", Path: "/home/u/.local/bin/omni", Managed: true,
				InstalledVersion: "1.2.3",
				Verdict:          VerdictStoreEmpty,
			},
			contains: []string{"no versions recorded", "cellarman sync"},
		},
		{
			name: "store behind",
			report: Report{
				Tool: "omni", Path: "/home/u/.local/bin/omni", Managed: true,
				InstalledVersion: "2.0.0", NewestVersion: "1.3.0",
				Verdict: VerdictStoreBehind,
			},
			contains: []string{"newer than the store", "cellarman sync"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := FormatReport(tt.report)
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("report missing %q:\n%s", want, out)
				}
			}
		})
	}
}
