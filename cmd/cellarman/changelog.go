package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cellarman/cellarman/internal/logger"
	"github.com/cellarman/cellarman/internal/release"
	"github.com/cellarman/cellarman/internal/store"
)

// runChangelog handles the `cellarman changelog` subcommand.
// Returns the process exit code and the fatal error, if any.
func runChangelog(args []string) (int, error) {
	showHelp := false
	verbose := false
	var configPath, version string

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
				return 2, fmt.Errorf("--config requires a value\nRun 'cellarman changelog --help' for usage")
			}
			configPath = args[i]
		default:
			// Anything not starting with - is the version argument
			if len(arg) > 0 && arg[0] != '-' && version == "" {
				version = strings.TrimPrefix(arg, "v")
			} else {
				return 2, fmt.Errorf("unknown option: %s\nRun 'cellarman changelog --help' for usage", arg)
			}
		}
	}

	if showHelp {
		printChangelogHelp()
		return 0, nil
	}

	logger.Initialize(verbose)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	cfg, err := loadTapConfig(ctx, configPath, verbose)
	if err != nil {
		return 1, err
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
			return 1, fmt.Errorf("version %s is not in the store", version)
		}
	} else {
		record, _ = store.Newest(records)
	}

	fmt.Print(formatChangelog(record))
	return 0, nil
}

// formatChangelog renders a stored version's release notes for display.
func formatChangelog(record release.VersionRecord) string {
	var sb strings.Builder
	sb.Grow(1024)

	sb.WriteString(fmt.Sprintf("%s (%s)\n", record.Version, record.PublishedAt.Format("2006-01-02")))

	if len(record.Notes) == 0 {
		sb.WriteString("\nNo structured release notes recorded for this version.\n")
		return sb.String()
	}

	sections := []struct {
		category string
		title    string
	}{
		{release.CategoryBreaking, "Breaking changes"},
		{release.CategoryFeatures, "Features"},
		{release.CategoryFixes, "Fixes"},
	}

	for _, section := range sections {
		entries := record.Notes[section.category]
		if len(entries) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%s:\n", section.title))
		for _, entry := range entries {
			sb.WriteString(formatChangeEntry(entry))
		}
	}
	return sb.String()
}

// formatChangeEntry renders one bullet with its attribution and
// continuation data.
func formatChangeEntry(entry release.ChangeEntry) string {
	var sb strings.Builder

	sb.WriteString("  - ")
	if entry.Scope != "" {
		sb.WriteString(entry.Scope + ": ")
	}
	sb.WriteString(entry.Summary)

	var attrs []string
	if entry.PR != 0 {
		attrs = append(attrs, fmt.Sprintf("#%d", entry.PR))
	} else if entry.Commit != "" {
		attrs = append(attrs, entry.Commit)
	}
	if entry.Author != "" {
		attrs = append(attrs, "@"+entry.Author)
	}
	if len(attrs) > 0 {
		sb.WriteString(" (" + strings.Join(attrs, ", ") + ")")
	}
	sb.WriteString("\n")

	if entry.Cause != "" {
		sb.WriteString("      " + entry.Cause + "\n")
	}
	if len(entry.Issues) > 0 {
		refs := make([]string, len(entry.Issues))
		for i, n := range entry.Issues {
			refs[i] = fmt.Sprintf("#%d", n)
		}
		sb.WriteString("      addresses " + strings.Join(refs, ", ") + "\n")
	}
	return sb.String()
}

// printChangelogHelp prints help for the changelog command
func printChangelogHelp() {
	fmt.Println("Usage: cellarman changelog [options] [version]")
	fmt.Println()
	fmt.Println("Print the structured release notes of a stored version. Without a version")
	fmt.Println("argument the newest one is used.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help       Show this help message")
	fmt.Println("  -v, --verbose    Enable debug logging")
	fmt.Println("  --config <path>  Use this tap.lua instead of the default location")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  cellarman changelog          Notes of the newest recorded version")
	fmt.Println("  cellarman changelog 1.2.3    Notes of a specific version")
	fmt.Println()
	fmt.Println("Exit codes:")
	fmt.Println("  0  Notes printed (possibly none recorded)")
	fmt.Println("  1  Store empty or version not recorded")
	fmt.Println("  2  Usage error")
	fmt.Println()
}
