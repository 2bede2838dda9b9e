package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cellarman/cellarman/internal/config"
	"github.com/cellarman/cellarman/internal/github"
	"github.com/cellarman/cellarman/internal/logger"
	"github.com/cellarman/cellarman/internal/registry"
	"github.com/cellarman/cellarman/internal/release"
	"github.com/cellarman/cellarman/internal/store"
)

// runSync handles the `cellarman sync` subcommand.
// Returns the process exit code and the fatal error, if any.
func runSync(args []string) (int, error) {
	showHelp := false
	fromScratch := false
	verbose := false
	var owner, repo, tool, crate, output, latestOutput, configPath string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--help", "-h":
			showHelp = true
		case "--from-scratch":
			fromScratch = true
		case "--verbose", "-v":
			verbose = true
		case "--owner":
			i++
			if i >= len(args) {
				return 2, fmt.Errorf("--owner requires a value\nRun 'cellarman sync --help' for usage")
			}
			owner = args[i]
		case "--repo":
			i++
			if i >= len(args) {
				return 2, fmt.Errorf("--repo requires a value\nRun 'cellarman sync --help' for usage")
			}
			repo = args[i]
		case "--tool":
			i++
			if i >= len(args) {
				return 2, fmt.Errorf("--tool requires a value\nRun 'cellarman sync --help' for usage")
			}
			tool = args[i]
		case "--crate":
			i++
			if i >= len(args) {
				return 2, fmt.Errorf("--crate requires a value\nRun 'cellarman sync --help' for usage")
			}
			crate = args[i]
		case "--output":
			i++
			if i >= len(args) {
				return 2, fmt.Errorf("--output requires a value\nRun 'cellarman sync --help' for usage")
			}
			output = args[i]
		case "--latest-output":
			i++
			if i >= len(args) {
				return 2, fmt.Errorf("--latest-output requires a value\nRun 'cellarman sync --help' for usage")
			}
			latestOutput = args[i]
		case "--config":
			i++
			if i >= len(args) {
				return 2, fmt.Errorf("--config requires a value\nRun 'cellarman sync --help' for usage")
			}
			configPath = args[i]
		default:
			return 2, fmt.Errorf("unknown option: %s\nRun 'cellarman sync --help' for usage", arg)
		}
	}

	if showHelp {
		printSyncHelp()
		return 0, nil
	}

	logger.Initialize(verbose)

	// Create context with timeout (generous: a from-scratch sync pages
	// through the whole release history)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := loadTapConfig(ctx, configPath, verbose)
	if err != nil {
		return 1, err
	}

	// CLI flags win over the tap file
	if owner != "" {
		cfg.Upstream.Owner = owner
	}
	if repo != "" {
		cfg.Upstream.Repo = repo
	}
	if tool != "" {
		cfg.Upstream.Tool = tool
	}
	if crate != "" {
		cfg.Registry.Crate = crate
	}
	if output != "" {
		cfg.Store.Path = output
	}
	if latestOutput != "" {
		cfg.Store.LatestPath = latestOutput
	}

	deps := syncDeps{
		github: github.NewClient(cfg.Upstream.Owner, cfg.Upstream.Repo,
			github.WithToken(github.TokenFromEnv())),
		registry: registry.NewClient(),
	}

	if err := syncStore(ctx, cfg, deps, fromScratch); err != nil {
		return 1, err
	}
	return 0, nil
}

// syncDeps carries the remote clients the pipeline talks to.
type syncDeps struct {
	github   *github.Client
	registry *registry.Client
}

// syncStore runs the metadata pipeline: fetch the releases the store
// does not know yet, resolve their artifacts and notes, drop yanked
// versions and persist the merged result.
func syncStore(ctx context.Context, cfg *config.Config, deps syncDeps, fromScratch bool) error {
	lock, err := store.AcquireLock(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warnw("releasing store lock", "error", err)
		}
	}()

	existing := store.Load(cfg.Store.Path)
	known := store.KnownVersions(existing)
	logger.Infow("syncing release metadata",
		"repository", cfg.Upstream.Owner+"/"+cfg.Upstream.Repo,
		"known_versions", len(known),
		"from_scratch", fromScratch)

	releases, err := deps.github.ListReleasesSince(ctx, known, fromScratch)
	if err != nil {
		return err
	}

	incoming := make([]release.VersionRecord, 0, len(releases))
	for i := range releases {
		record, ok, err := buildRecord(ctx, deps.github, cfg.Upstream.Tool, &releases[i])
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		incoming = append(incoming, record)
	}

	yanked, err := deps.registry.YankedVersions(ctx, cfg.Registry.Crate)
	if err != nil {
		return fmt.Errorf("fetching yanked versions: %w", err)
	}

	merged := store.Merge(store.FilterYanked(existing, yanked), incoming)
	if err := store.Persist(cfg.Store.Path, merged); err != nil {
		return err
	}

	if cfg.Store.LatestPath != "" {
		if newest, ok := store.Newest(merged); ok {
			if err := store.WriteLatest(cfg.Store.LatestPath, newest); err != nil {
				return err
			}
			logger.Infow("latest projection written",
				"path", cfg.Store.LatestPath, "version", newest.Version)
		}
	}

	fmt.Printf("Synced %s/%s: %d new versions, %d total\n",
		cfg.Upstream.Owner, cfg.Upstream.Repo, len(incoming), len(merged))
	fmt.Printf("Store: %s\n", cfg.Store.Path)
	return nil
}

// buildRecord turns one fetched release into a store record. The
// boolean is false when the release should be skipped.
func buildRecord(ctx context.Context, client *github.Client, tool string, rel *github.Release) (release.VersionRecord, bool, error) {
	version := rel.Version()

	assets := make([]release.Asset, 0, len(rel.Assets))
	for _, a := range rel.Assets {
		assets = append(assets, release.Asset{Name: a.Name, URL: a.BrowserDownloadURL})
	}

	binaries, err := release.ResolveBinaries(ctx, tool, assets, client)
	if err != nil {
		return release.VersionRecord{}, false, err
	}

	revision, err := client.TagCommit(ctx, rel.TagName)
	if err != nil {
		if !errors.Is(err, github.ErrTagNotFound) {
			return release.VersionRecord{}, false, err
		}
		revision = ""
	}

	// A release without prebuilt artifacts is still worth recording as
	// long as its source revision resolved: that is the build-from-source
	// path. With neither, the record would be useless.
	if len(binaries) == 0 && revision == "" {
		logger.Warnw("skipping release with no artifacts and no build provenance",
			"version", version)
		return release.VersionRecord{}, false, nil
	}

	record := release.VersionRecord{
		Version:     version,
		PublishedAt: rel.PublishedAt,
		Build:       release.Build{Tag: rel.TagName, Revision: revision},
		Binaries:    sortedBinaries(binaries),
		Notes:       release.ParseNotes(rel.Body),
	}
	return record, true, nil
}

// sortedBinaries flattens the resolved artifact map into a stable,
// name-ordered slice for the record.
func sortedBinaries(binaries map[string]release.BinaryAsset) []release.BinaryAsset {
	keys := make([]string, 0, len(binaries))
	for key := range binaries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]release.BinaryAsset, 0, len(keys))
	for _, key := range keys {
		out = append(out, binaries[key])
	}
	return out
}

// printSyncHelp prints help for the sync command
func printSyncHelp() {
	fmt.Println("Usage: cellarman sync [options]")
	fmt.Println()
	fmt.Println("Fetch new upstream releases, resolve their binary artifacts and release")
	fmt.Println("notes, drop yanked versions and merge everything into the version store.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help            Show this help message")
	fmt.Println("  -v, --verbose         Enable debug logging")
	fmt.Println("  --owner <name>        Override the upstream repository owner")
	fmt.Println("  --repo <name>         Override the upstream repository name")
	fmt.Println("  --tool <name>         Override the tool/artifact base name")
	fmt.Println("  --crate <name>        Override the registry crate checked for yanks")
	fmt.Println("  --output <path>       Override the version store path")
	fmt.Println("  --latest-output <path> Also write a latest-version projection here")
	fmt.Println("  --from-scratch        Ignore known versions and refetch the full history")
	fmt.Println("  --config <path>       Use this tap.lua instead of the default location")
	fmt.Println()
	fmt.Println("The GitHub token is read from CELLARMAN_GITHUB_TOKEN, then GITHUB_TOKEN.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  cellarman sync                      Incremental sync of the default tap")
	fmt.Println("  cellarman sync --from-scratch       Rebuild the store from the full history")
	fmt.Println("  cellarman sync --output ./v.json    Sync into a local file")
	fmt.Println()
	fmt.Println("Exit codes:")
	fmt.Println("  0  Store synced")
	fmt.Println("  1  Pipeline failure (network, decode, persist)")
	fmt.Println("  2  Usage error")
	fmt.Println()
}
