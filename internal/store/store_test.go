package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/cellarman/cellarman/internal/release"
)

func record(version string) release.VersionRecord {
	return release.VersionRecord{
		Version:     version,
		PublishedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Build:       release.Build{Tag: "v" + version, Revision: "rev-" + version},
		Binaries: []release.BinaryAsset{
			{OS: "linux", Arch: "x86_64", URL: "https://dl/" + version, Checksum: "sum-" + version},
		},
	}
}

func versions(records []release.VersionRecord) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Version
	}
	return out
}

func TestLoad(t *testing.T) {
	t.Run("missing_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "versions.json")
		if got := Load(path); got != nil {
			t.Errorf("expected nil for missing file, got %v", got)
		}
	})

	t.Run("malformed_json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "versions.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
		if got := Load(path); got != nil {
			t.Errorf("expected nil for malformed file, got %v", got)
		}
	})

	t.Run("roundtrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "versions.json")
		want := []release.VersionRecord{record("1.2.0"), record("1.1.0")}
		if err := Persist(path, want); err != nil {
			t.Fatalf("persist: %v", err)
		}
		got := Load(path)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("roundtrip mismatch:\ngot:  %#v\nwant: %#v", got, want)
		}
	})
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		incoming []string
		want     []string
	}{
		{
			name:     "prepends_block",
			existing: []string{"1.1.0", "1.0.0"},
			incoming: []string{"1.3.0", "1.2.0"},
			want:     []string{"1.3.0", "1.2.0", "1.1.0", "1.0.0"},
		},
		{
			name:     "empty_incoming_keeps_existing",
			existing: []string{"1.1.0", "1.0.0"},
			incoming: nil,
			want:     []string{"1.1.0", "1.0.0"},
		},
		{
			name:     "empty_existing",
			existing: nil,
			incoming: []string{"1.0.0"},
			want:     []string{"1.0.0"},
		},
		{
			name:     "incoming_replaces_duplicate",
			existing: []string{"1.2.0", "1.1.0", "1.0.0"},
			incoming: []string{"1.3.0", "1.2.0"},
			want:     []string{"1.3.0", "1.2.0", "1.1.0", "1.0.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := make([]release.VersionRecord, 0, len(tt.existing))
			for _, v := range tt.existing {
				existing = append(existing, record(v))
			}
			incoming := make([]release.VersionRecord, 0, len(tt.incoming))
			for _, v := range tt.incoming {
				incoming = append(incoming, record(v))
			}

			merged := Merge(existing, incoming)

			if got := versions(merged); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("merge order mismatch:\ngot:  %v\nwant: %v", got, tt.want)
			}

			seen := make(map[string]bool)
			for _, rec := range merged {
				if seen[rec.Version] {
					t.Errorf("duplicate version after merge: %s", rec.Version)
				}
				seen[rec.Version] = true
			}
		})
	}
}

func TestFilterYanked(t *testing.T) {
	records := []release.VersionRecord{record("1.2.0"), record("1.1.0"), record("1.0.0")}

	t.Run("drops_yanked", func(t *testing.T) {
		got := FilterYanked(records, map[string]bool{"1.1.0": true})
		if want := []string{"1.2.0", "1.0.0"}; !reflect.DeepEqual(versions(got), want) {
			t.Errorf("got %v, want %v", versions(got), want)
		}
	})

	t.Run("empty_set_keeps_all", func(t *testing.T) {
		got := FilterYanked(records, nil)
		if len(got) != len(records) {
			t.Errorf("expected all records kept, got %d", len(got))
		}
	})
}

func TestKnownVersions(t *testing.T) {
	known := KnownVersions([]release.VersionRecord{record("1.1.0"), record("1.0.0")})
	if !known["1.1.0"] || !known["1.0.0"] {
		t.Errorf("missing versions in set: %v", known)
	}
	if known["2.0.0"] {
		t.Error("unexpected version in set")
	}
}

func TestNewest(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if _, ok := Newest(nil); ok {
			t.Error("expected ok=false for empty store")
		}
	})

	t.Run("semver_ordering", func(t *testing.T) {
		records := []release.VersionRecord{record("1.9.0"), record("1.10.0"), record("1.2.3")}
		newest, ok := Newest(records)
		if !ok {
			t.Fatal("expected a newest record")
		}
		if newest.Version != "1.10.0" {
			t.Errorf("newest = %s, want 1.10.0", newest.Version)
		}
	})

	t.Run("invalid_semver_sorts_low", func(t *testing.T) {
		records := []release.VersionRecord{record("not-a-version"), record("0.1.0")}
		newest, _ := Newest(records)
		if newest.Version != "0.1.0" {
			t.Errorf("newest = %s, want 0.1.0", newest.Version)
		}
	})
}

func TestFind(t *testing.T) {
	records := []release.VersionRecord{record("1.1.0"), record("1.0.0")}
	if rec, ok := Find(records, "1.0.0"); !ok || rec.Version != "1.0.0" {
		t.Errorf("Find(1.0.0) = %v, %v", rec.Version, ok)
	}
	if _, ok := Find(records, "9.9.9"); ok {
		t.Error("expected ok=false for unknown version")
	}
}

func TestPersist(t *testing.T) {
	t.Run("refuses_empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "versions.json")
		err := Persist(path, nil)
		if !errors.Is(err, ErrEmptyStore) {
			t.Errorf("expected ErrEmptyStore, got: %v", err)
		}
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Error("empty persist must not create the file")
		}
	})

	t.Run("pretty_printed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "versions.json")
		if err := Persist(path, []release.VersionRecord{record("1.0.0")}); err != nil {
			t.Fatalf("persist: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading store: %v", err)
		}
		if !strings.HasPrefix(string(data), "[\n  {") {
			t.Errorf("expected pretty-printed array, got prefix %q", string(data[:10]))
		}
		if !bytes.HasSuffix(data, []byte("\n")) {
			t.Error("expected trailing newline")
		}
	})

	t.Run("rewrite_is_byte_identical", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "versions.json")
		records := []release.VersionRecord{record("1.1.0"), record("1.0.0")}
		if err := Persist(path, records); err != nil {
			t.Fatalf("first persist: %v", err)
		}
		first, _ := os.ReadFile(path)

		reloaded := Load(path)
		if err := Persist(path, reloaded); err != nil {
			t.Fatalf("second persist: %v", err)
		}
		second, _ := os.ReadFile(path)

		if !bytes.Equal(first, second) {
			t.Error("persist of reloaded store is not byte-identical")
		}
	})

	t.Run("no_leftover_temp_file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "versions.json")
		if err := Persist(path, []release.VersionRecord{record("1.0.0")}); err != nil {
			t.Fatalf("persist: %v", err)
		}
		if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
			t.Error("temporary file left behind")
		}
	})
}

func TestWriteLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.json")
	rec := record("1.2.3")
	if err := WriteLatest(path, rec); err != nil {
		t.Fatalf("write latest: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading latest file: %v", err)
	}
	if !strings.HasPrefix(string(data), "{") {
		t.Error("expected a JSON object")
	}
	if !strings.Contains(string(data), `"version": "1.2.3"`) {
		t.Errorf("expected explicit version key, got:\n%s", data)
	}
}
