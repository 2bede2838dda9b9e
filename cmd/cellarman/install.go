package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cellarman/cellarman/internal/config"
	"github.com/cellarman/cellarman/internal/install"
	"github.com/cellarman/cellarman/internal/logger"
	"github.com/cellarman/cellarman/internal/platform"
	"github.com/cellarman/cellarman/internal/release"
	"github.com/cellarman/cellarman/internal/store"
)

// runInstall handles the `cellarman install` subcommand.
// Returns the process exit code and the fatal error, if any.
func runInstall(args []string) (int, error) {
	showHelp := false
	force := false
	skipVerify := false
	verbose := false
	var binDir, configPath, version string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--help", "-h":
			showHelp = true
		case "--force":
			force = true
		case "--skip-verify":
			skipVerify = true
		case "--verbose", "-v":
			verbose = true
		case "--bin-dir":
			i++
			if i >= len(args) {
				return 2, fmt.Errorf("--bin-dir requires a value\nRun 'cellarman install --help' for usage")
			}
			binDir = args[i]
		case "--config":
			i++
			if i >= len(args) {
				return 2, fmt.Errorf("--config requires a value\nRun 'cellarman install --help' for usage")
			}
			configPath = args[i]
		default:
			// Anything not starting with - is the version argument
			if len(arg) > 0 && arg[0] != '-' && version == "" {
				version = strings.TrimPrefix(arg, "v")
			} else {
				return 2, fmt.Errorf("unknown option: %s\nRun 'cellarman install --help' for usage", arg)
			}
		}
	}

	if showHelp {
		printInstallHelp()
		return 0, nil
	}

	logger.Initialize(verbose)

	// Create context with timeout (downloads of large artifacts included)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	cfg, err := loadTapConfig(ctx, configPath, verbose)
	if err != nil {
		return 1, err
	}
	if binDir != "" {
		cfg.Install.BinDir = binDir
	}

	records := store.Load(cfg.Store.Path)
	if len(records) == 0 {
		return 1, fmt.Errorf("version store at %s is empty\nRun 'cellarman sync' first", cfg.Store.Path)
	}

	var record release.VersionRecord
	if version != "" {
		var ok bool
		record, ok = store.Find(records, version)
		if !ok {
			return 1, fmt.Errorf("version %s is not in the store\nRun 'cellarman sync' to refresh it", version)
		}
	} else {
		var ok bool
		record, ok = store.Newest(records)
		if !ok {
			return 1, fmt.Errorf("version store at %s holds no usable versions", cfg.Store.Path)
		}
	}

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return 1, fmt.Errorf("detect platform: %w", err)
	}

	manager, err := install.NewManager(install.Config{
		Tool:         cfg.Upstream.Tool,
		Owner:        cfg.Upstream.Owner,
		Repo:         cfg.Upstream.Repo,
		Workflow:     cfg.Build.Workflow,
		BinDir:       cfg.Install.BinDir,
		CacheDir:     filepath.Join(config.BaseDir(), "cache", "downloads"),
		PlatformInfo: info,
	})
	if err != nil {
		return 1, err
	}

	result, err := manager.Install(ctx, record, install.Options{
		Force:      force,
		SkipVerify: skipVerify,
	})
	if err != nil {
		return 1, err
	}

	fmt.Printf("Installed %s %s to %s\n", cfg.Upstream.Tool, result.Version, result.Path)
	if result.Verified == install.VerificationNone {
		fmt.Println("Signature: not verified")
	} else {
		fmt.Printf("Signature: verified (%s)\n", result.Verified)
	}
	return 0, nil
}

// printInstallHelp prints help for the install command
func printInstallHelp() {
	fmt.Println("Usage: cellarman install [options] [version]")
	fmt.Println()
	fmt.Println("Install a version recorded in the store: download the artifact for this")
	fmt.Println("platform, verify its keyless signature and checksum, and place the binary")
	fmt.Println("in the bin directory. Without a version argument the newest one is used.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help        Show this help message")
	fmt.Println("  -v, --verbose     Enable debug logging")
	fmt.Println("  --bin-dir <path>  Install into this directory instead of the configured one")
	fmt.Println("  --force           Redownload even when the artifact is cached")
	fmt.Println("  --skip-verify     Skip signature verification (checksum still applies)")
	fmt.Println("  --config <path>   Use this tap.lua instead of the default location")
	fmt.Println()
	fmt.Println("Verification needs cosign or openssl on PATH; with neither present the")
	fmt.Println("install proceeds unverified with a warning.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  cellarman install             Install the newest recorded version")
	fmt.Println("  cellarman install 1.2.3       Install a specific version")
	fmt.Println("  cellarman install --force     Reinstall, bypassing the download cache")
	fmt.Println()
	fmt.Println("Exit codes:")
	fmt.Println("  0  Installed")
	fmt.Println("  1  Install failure (download, verification, checksum, extract)")
	fmt.Println("  2  Usage error")
	fmt.Println()
}
