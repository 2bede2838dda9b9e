package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config represents the complete tap configuration.
// Every field has a default; tap.lua only needs to name what it changes.
type Config struct {
	// Upstream GitHub project whose releases are tracked
	Upstream Upstream `json:"upstream"`

	// Registry settings for yank checks
	Registry Registry `json:"registry"`

	// Build provenance expected from release signatures
	Build Build `json:"build"`

	// Version store locations
	Store Store `json:"store"`

	// Install destination
	Install Install `json:"install"`
}

// Upstream identifies the GitHub project whose releases are synced.
type Upstream struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`

	// Tool is the binary name and the base name of release artifacts
	// (e.g. "omni" in omni-1.2.3-x86_64-linux.tar.gz).
	Tool string `json:"tool"`
}

// Registry holds the crates.io crate checked for yanked versions.
type Registry struct {
	Crate string `json:"crate"`
}

// Build holds the GitHub workflow path expected in signing certificates.
type Build struct {
	Workflow string `json:"workflow"`
}

// Store holds the version store locations.
type Store struct {
	// Path to the JSON version store
	Path string `json:"path"`

	// LatestPath, when set, receives a single-record projection of the
	// newest version for consumers of the older single-version layout.
	LatestPath string `json:"latest_path,omitempty"`
}

// Install holds the binary install destination.
type Install struct {
	BinDir string `json:"bin_dir"`
}

// Default returns the configuration used when no tap.lua exists.
// It tracks the omni CLI from XaF/omni.
func Default() *Config {
	return &Config{
		Upstream: Upstream{
			Owner: "XaF",
			Repo:  "omni",
			Tool:  "omni",
		},
		Registry: Registry{
			Crate: "omnicli",
		},
		Build: Build{
			Workflow: ".github/workflows/build.yaml",
		},
		Store: Store{
			Path: filepath.Join(BaseDir(), "versions.json"),
		},
		Install: Install{
			BinDir: defaultBinDir(),
		},
	}
}

// BaseDir returns the cellarman state directory: $CELLARMAN_DIR when set,
// otherwise ~/.config/cellarman.
func BaseDir() string {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cellarman"
	}
	return filepath.Join(home, ".config", "cellarman")
}

// defaultBinDir returns the default install destination.
func defaultBinDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bin"
	}
	return filepath.Join(home, ".local", "bin")
}

// ExpandPath expands a leading ~ or ~/ to the user home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// Validate performs basic validation on a Config.
func (c *Config) Validate() error {
	if err := validateOwner(c.Upstream.Owner); err != nil {
		return &ValidationError{Field: "upstream.owner", Message: err.Error()}
	}
	if err := validateRepo(c.Upstream.Repo); err != nil {
		return &ValidationError{Field: "upstream.repo", Message: err.Error()}
	}
	if err := validateTool(c.Upstream.Tool); err != nil {
		return &ValidationError{Field: "upstream.tool", Message: err.Error()}
	}
	if err := validateCrate(c.Registry.Crate); err != nil {
		return &ValidationError{Field: "registry.crate", Message: err.Error()}
	}
	if err := validateWorkflowPath(c.Build.Workflow); err != nil {
		return &ValidationError{Field: "build.workflow", Message: err.Error()}
	}
	if err := validatePath(c.Store.Path); err != nil {
		return &ValidationError{Field: "store.path", Message: err.Error()}
	}
	if c.Store.LatestPath != "" {
		if err := validatePath(c.Store.LatestPath); err != nil {
			return &ValidationError{Field: "store.latest_path", Message: err.Error()}
		}
	}
	if err := validatePath(c.Install.BinDir); err != nil {
		return &ValidationError{Field: "install.bin_dir", Message: err.Error()}
	}
	return nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

var (
	// GitHub usernames: alphanumeric with inner hyphens, at most 39 chars
	ownerPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{0,38}$`)

	repoPattern  = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
	toolPattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
	cratePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
)

func validateOwner(owner string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if !ownerPattern.MatchString(owner) {
		return fmt.Errorf("invalid GitHub owner: %q", owner)
	}
	return nil
}

func validateRepo(repo string) error {
	if repo == "" {
		return fmt.Errorf("repo cannot be empty")
	}
	if !repoPattern.MatchString(repo) {
		return fmt.Errorf("invalid GitHub repository name: %q", repo)
	}
	return nil
}

func validateTool(tool string) error {
	if tool == "" {
		return fmt.Errorf("tool cannot be empty")
	}
	if !toolPattern.MatchString(tool) {
		return fmt.Errorf("invalid tool name: %q", tool)
	}
	return nil
}

func validateCrate(crate string) error {
	if crate == "" {
		return fmt.Errorf("crate cannot be empty")
	}
	if !cratePattern.MatchString(crate) {
		return fmt.Errorf("invalid crate name: %q", crate)
	}
	return nil
}

// validateWorkflowPath validates the repository-relative workflow path that
// signing certificates are matched against.
func validateWorkflowPath(workflow string) error {
	if workflow == "" {
		return fmt.Errorf("workflow cannot be empty")
	}
	if strings.HasPrefix(workflow, "/") {
		return fmt.Errorf("workflow must be a repository-relative path: %s", workflow)
	}
	if strings.Contains(filepath.ToSlash(filepath.Clean(workflow)), "..") {
		return fmt.Errorf("path traversal not allowed: %s", workflow)
	}
	return nil
}

// validatePath validates a filesystem path from the tap configuration.
// Absolute and ~-prefixed paths are allowed; traversal is not.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if strings.Contains(filepath.Clean(expanded), "..") {
		return fmt.Errorf("path traversal not allowed: %s", path)
	}
	return nil
}
