package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Setenv(EnvDir, "/tmp/cellarman-test")

	cfg := Default()

	if cfg.Upstream.Owner != "XaF" {
		t.Errorf("Upstream.Owner = %s, want XaF", cfg.Upstream.Owner)
	}
	if cfg.Upstream.Repo != "omni" {
		t.Errorf("Upstream.Repo = %s, want omni", cfg.Upstream.Repo)
	}
	if cfg.Upstream.Tool != "omni" {
		t.Errorf("Upstream.Tool = %s, want omni", cfg.Upstream.Tool)
	}
	if cfg.Registry.Crate != "omnicli" {
		t.Errorf("Registry.Crate = %s, want omnicli", cfg.Registry.Crate)
	}
	if cfg.Build.Workflow != ".github/workflows/build.yaml" {
		t.Errorf("Build.Workflow = %s, want .github/workflows/build.yaml", cfg.Build.Workflow)
	}
	if want := filepath.Join("/tmp/cellarman-test", "versions.json"); cfg.Store.Path != want {
		t.Errorf("Store.Path = %s, want %s", cfg.Store.Path, want)
	}
	if cfg.Store.LatestPath != "" {
		t.Errorf("Store.LatestPath = %s, want empty", cfg.Store.LatestPath)
	}
	if cfg.Install.BinDir == "" {
		t.Error("Install.BinDir should not be empty")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestBaseDir(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv(EnvDir, "/custom/dir")
		if got := BaseDir(); got != "/custom/dir" {
			t.Errorf("BaseDir() = %s, want /custom/dir", got)
		}
	})

	t.Run("default under home", func(t *testing.T) {
		t.Setenv(EnvDir, "")
		t.Setenv("HOME", "/home/tester")
		want := filepath.Join("/home/tester", ".config", "cellarman")
		if got := BaseDir(); got != want {
			t.Errorf("BaseDir() = %s, want %s", got, want)
		}
	})
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tilde slash", "~/state/versions.json", "/home/tester/state/versions.json"},
		{"bare tilde", "~", "/home/tester"},
		{"absolute unchanged", "/var/lib/cellarman", "/var/lib/cellarman"},
		{"relative unchanged", "state/versions.json", "state/versions.json"},
		{"tilde in middle unchanged", "/data/~/x", "/data/~/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			if err != nil {
				t.Fatalf("ExpandPath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExpandPath() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Upstream: Upstream{Owner: "XaF", Repo: "omni", Tool: "omni"},
			Registry: Registry{Crate: "omnicli"},
			Build:    Build{Workflow: ".github/workflows/build.yaml"},
			Store:    Store{Path: "/var/lib/cellarman/versions.json"},
			Install:  Install{BinDir: "/usr/local/bin"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:   "hyphenated owner",
			mutate: func(c *Config) { c.Upstream.Owner = "some-org" },
		},
		{
			name:   "dotted repo",
			mutate: func(c *Config) { c.Upstream.Repo = "omni.rs" },
		},
		{
			name:    "empty owner",
			mutate:  func(c *Config) { c.Upstream.Owner = "" },
			wantErr: "upstream.owner",
		},
		{
			name:    "owner with slash",
			mutate:  func(c *Config) { c.Upstream.Owner = "a/b" },
			wantErr: "upstream.owner",
		},
		{
			name:    "owner too long",
			mutate:  func(c *Config) { c.Upstream.Owner = strings.Repeat("a", 40) },
			wantErr: "upstream.owner",
		},
		{
			name:    "empty repo",
			mutate:  func(c *Config) { c.Upstream.Repo = "" },
			wantErr: "upstream.repo",
		},
		{
			name:    "uppercase tool",
			mutate:  func(c *Config) { c.Upstream.Tool = "Omni" },
			wantErr: "upstream.tool",
		},
		{
			name:    "empty crate",
			mutate:  func(c *Config) { c.Registry.Crate = "" },
			wantErr: "registry.crate",
		},
		{
			name:    "absolute workflow",
			mutate:  func(c *Config) { c.Build.Workflow = "/etc/workflow.yaml" },
			wantErr: "build.workflow",
		},
		{
			name:    "workflow traversal",
			mutate:  func(c *Config) { c.Build.Workflow = "../../evil.yaml" },
			wantErr: "build.workflow",
		},
		{
			name:    "empty store path",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantErr: "store.path",
		},
		{
			name:    "store path traversal",
			mutate:  func(c *Config) { c.Store.Path = "../../../etc/versions.json" },
			wantErr: "store.path",
		},
		{
			name:    "latest path traversal",
			mutate:  func(c *Config) { c.Store.LatestPath = "a/../../b.json" },
			wantErr: "store.latest_path",
		},
		{
			name:    "empty bin dir",
			mutate:  func(c *Config) { c.Install.BinDir = "" },
			wantErr: "install.bin_dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "upstream.owner", Message: "cannot be empty"}
	want := "config validation failed for upstream.owner: cannot be empty"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = &ValidationError{Message: "broken"}
	want = "config validation failed: broken"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
