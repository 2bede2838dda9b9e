package install

import (
	"fmt"
	"time"

	"github.com/cellarman/cellarman/internal/release"
)

// Options configures a single install run.
type Options struct {
	// Force re-downloads the artifact even when a cached copy exists.
	Force bool
	// SkipVerify disables signature verification. The checksum check
	// still runs.
	SkipVerify bool
}

// VerificationMethod indicates how an artifact's signature was checked.
type VerificationMethod int

const (
	// VerificationNone indicates the install proceeded without
	// signature verification.
	VerificationNone VerificationMethod = iota
	// VerificationCosign indicates cosign verified the signature.
	VerificationCosign
	// VerificationOpenSSL indicates in-process claim checks plus an
	// openssl signature check were used.
	VerificationOpenSSL
)

// String returns the name of the verification method.
func (v VerificationMethod) String() string {
	switch v {
	case VerificationCosign:
		return "cosign"
	case VerificationOpenSSL:
		return "openssl"
	case VerificationNone:
		return "none"
	default:
		return "unknown"
	}
}

// Result contains information about a completed install.
type Result struct {
	Version  string
	Path     string
	Verified VerificationMethod
	Duration time.Duration
}

// NoBinaryError reports a version with no prebuilt binary for the
// host, along with what building it from source would take.
type NoBinaryError struct {
	Tool    string
	Version string
	OS      string
	Arch    string
	Build   release.Build
	// CargoPath is where cargo was found on PATH, empty when absent.
	CargoPath string
}

func (e *NoBinaryError) Error() string {
	msg := fmt.Sprintf("no prebuilt %s binary for %s/%s in version %s", e.Tool, e.OS, e.Arch, e.Version)
	if e.Build.Tag == "" && e.Build.Revision == "" {
		return msg
	}

	msg += fmt.Sprintf("; building from source needs tag %s (revision %s)", e.Build.Tag, e.Build.Revision)
	if e.CargoPath != "" {
		msg += fmt.Sprintf(" and cargo is available at %s", e.CargoPath)
	} else {
		msg += " and a Rust toolchain (cargo is not on PATH)"
	}
	return msg
}
