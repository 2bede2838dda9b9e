// Package install turns a stored version record into an installed
// binary: download, signature verification, checksum verification,
// extraction, and atomic placement into the bin directory.
//
// # Security Model
//
// Artifacts are downloaded only from the release URLs captured at sync
// time and are never installed without an integrity check:
//
//  1. Keyless signature verification (preferred). The detached
//     signature and signing certificate published next to the artifact
//     are checked against the release workflow's identity, with cosign
//     when available and openssl otherwise. A missing backend or
//     missing signature assets downgrades the install to unverified
//     with a warning; a verification that runs and fails aborts it.
//  2. SHA-256 checksum (always). The downloaded artifact must match
//     the checksum recorded in the version store. A mismatch aborts
//     the install.
//
// # Usage
//
//	mgr, err := install.NewManager(install.Config{
//	    Tool:         "omni",
//	    Owner:        "XaF",
//	    Repo:         "omni",
//	    Workflow:     ".github/workflows/build.yaml",
//	    BinDir:       "/home/user/.local/bin",
//	    CacheDir:     "/home/user/.config/cellarman/cache/downloads",
//	    PlatformInfo: info,
//	})
//	if err != nil {
//	    return err
//	}
//
//	result, err := mgr.Install(ctx, record, install.Options{})
//
// # Architecture
//
// The package is organized into several components:
//   - Manager: high-level orchestration of download, verify, install
//   - Downloader: HTTP download with retry logic and caching
//   - Extractor: binary extraction from tar.gz archives
package install
