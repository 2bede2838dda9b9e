package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cellarman/cellarman/internal/drift"
	"github.com/cellarman/cellarman/internal/logger"
	"github.com/cellarman/cellarman/internal/store"
)

// runStatus handles the `cellarman status` subcommand.
// Returns the process exit code and the fatal error, if any.
func runStatus(args []string) (int, error) {
	showHelp := false
	verbose := false
	var configPath string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--help", "-h":
			showHelp = true
		case "--verbose", "-v":
			verbose = true
		case "--config":
			i++
			if i >= len(args) {
				return 2, fmt.Errorf("--config requires a value\nRun 'cellarman status --help' for usage")
			}
			configPath = args[i]
		default:
			return 2, fmt.Errorf("unknown option: %s\nRun 'cellarman status --help' for usage", arg)
		}
	}

	if showHelp {
		printStatusHelp()
		return 0, nil
	}

	logger.Initialize(verbose)

	// Create context with timeout (the version probe runs the binary)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := loadTapConfig(ctx, configPath, verbose)
	if err != nil {
		return 1, err
	}

	records := store.Load(cfg.Store.Path)
	newestVersion := ""
	if newest, ok := store.Newest(records); ok {
		newestVersion = newest.Version
	}

	report := drift.Check(ctx, cfg.Upstream.Tool, cfg.Install.BinDir, newestVersion)
	fmt.Print(drift.FormatReport(report))

	// Non-zero exit code when anything needs doing (for scripting)
	if report.Verdict == drift.VerdictUpToDate {
		return 0, nil
	}
	return 1, nil
}

// printStatusHelp prints help for the status command
func printStatusHelp() {
	fmt.Println("Usage: cellarman status [options]")
	fmt.Println()
	fmt.Println("Compare the installed tool's reported version against the newest version")
	fmt.Println("in the store and say whether an update exists.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help       Show this help message")
	fmt.Println("  -v, --verbose    Enable debug logging")
	fmt.Println("  --config <path>  Use this tap.lua instead of the default location")
	fmt.Println()
	fmt.Println("Verdicts:")
	fmt.Println("  UP_TO_DATE        Installed version equals the newest stored one")
	fmt.Println("  UPDATE_AVAILABLE  The store holds a newer version")
	fmt.Println("  NOT_INSTALLED     Tool not found in the bin directory or on PATH")
	fmt.Println("  VERSION_UNKNOWN   The binary did not report a recognizable version")
	fmt.Println("  STORE_EMPTY       No versions recorded yet")
	fmt.Println("  STORE_BEHIND      Installed version is newer than anything recorded")
	fmt.Println()
	fmt.Println("Exit codes:")
	fmt.Println("  0  Up to date")
	fmt.Println("  1  Anything else (update available, not installed, store stale)")
	fmt.Println("  2  Usage error")
	fmt.Println()
}
