package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cellarman/cellarman/internal/config"
	"github.com/cellarman/cellarman/internal/logger"
	"github.com/cellarman/cellarman/internal/platform"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	// Handle subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version":
			fmt.Printf("cellarman %s\n", Version)
			return
		case "sync":
			exit(runSync(os.Args[2:]))
		case "install":
			exit(runInstall(os.Args[2:]))
		case "status":
			exit(runStatus(os.Args[2:]))
		case "changelog":
			exit(runChangelog(os.Args[2:]))
		case "help", "--help", "-h":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "cellarman: unknown command: %s\n\n", os.Args[1])
			printUsage()
			os.Exit(2)
		}
	}

	// Default: show help
	printUsage()
}

// exit prints the error chain to stderr, flushes the logger and
// terminates with the subcommand's exit code.
func exit(code int, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "cellarman: %v\n", err)
	}
	logger.Sync()
	os.Exit(code)
}

// loadTapConfig loads the tap configuration: an explicit --config path
// when given, otherwise tap.lua in the cellarman directory, otherwise
// compiled defaults.
func loadTapConfig(ctx context.Context, configPath string, verbose bool) (*config.Config, error) {
	detector := platform.NewDetector()
	if configPath != "" {
		cfg, err := config.NewParser(detector).ParseFile(ctx, configPath)
		if err != nil {
			return nil, fmt.Errorf("%s", config.FormatError(err, verbose))
		}
		return cfg, nil
	}
	cfg, err := config.Load(ctx, detector, config.BaseDir())
	if err != nil {
		return nil, fmt.Errorf("%s", config.FormatError(err, verbose))
	}
	return cfg, nil
}

// printUsage prints the top-level help
func printUsage() {
	fmt.Println("cellarman - keeps a tap's release metadata in sync and installs releases")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  cellarman sync [options]        Fetch new releases and update the version store")
	fmt.Println("  cellarman install [version]     Install a recorded version (newest by default)")
	fmt.Println("  cellarman status                Compare the installed tool against the store")
	fmt.Println("  cellarman changelog [version]   Print the release notes of a stored version")
	fmt.Println("  cellarman version               Show version information")
	fmt.Println("  cellarman help                  Show this help")
	fmt.Println()
	fmt.Println("Run 'cellarman <command> --help' for command-specific options.")
}
