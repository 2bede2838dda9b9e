// Package store persists the accumulated version records of the
// upstream tool as pretty-printed JSON, newest first. Loading is
// tolerant (a broken store is refetchable state, not a failure) while
// persisting is strict.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/semver"

	"github.com/cellarman/cellarman/internal/logger"
	"github.com/cellarman/cellarman/internal/release"
)

// ErrEmptyStore is returned when a persist would write zero records.
// An empty result means the pipeline produced nothing; clobbering the
// previous store with it is never right.
var ErrEmptyStore = errors.New("refusing to persist an empty version store")

// Load reads the persisted store. A missing file yields an empty store;
// an unreadable or malformed one yields an empty store and a logged
// warning. Load never fails: everything a broken store lost can be
// refetched.
func Load(path string) []release.VersionRecord {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("version store %s unreadable, starting empty: %v", path, err)
		}
		return nil
	}

	var records []release.VersionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warnf("version store %s malformed, starting empty: %v", path, err)
		return nil
	}
	return records
}

// Merge prepends incoming records, already ordered newest first, as a
// block ahead of the existing ones. Existing records whose version
// reappears in the incoming block are dropped so versions stay unique;
// the relative order of everything kept is preserved.
func Merge(existing, incoming []release.VersionRecord) []release.VersionRecord {
	if len(incoming) == 0 {
		return existing
	}

	replaced := make(map[string]bool, len(incoming))
	for _, rec := range incoming {
		replaced[rec.Version] = true
	}

	merged := make([]release.VersionRecord, 0, len(existing)+len(incoming))
	merged = append(merged, incoming...)
	for _, rec := range existing {
		if replaced[rec.Version] {
			continue
		}
		merged = append(merged, rec)
	}
	return merged
}

// FilterYanked drops records whose version the registry has yanked.
func FilterYanked(records []release.VersionRecord, yanked map[string]bool) []release.VersionRecord {
	if len(yanked) == 0 {
		return records
	}

	kept := make([]release.VersionRecord, 0, len(records))
	for _, rec := range records {
		if yanked[rec.Version] {
			logger.Infof("dropping yanked version %s", rec.Version)
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// KnownVersions returns the set of versions already in the store, used
// as the fetch cutoff.
func KnownVersions(records []release.VersionRecord) map[string]bool {
	known := make(map[string]bool, len(records))
	for _, rec := range records {
		known[rec.Version] = true
	}
	return known
}

// Newest returns the record with the highest version. Versions that do
// not parse as semantic versions sort below all that do. The second
// return is false for an empty store.
func Newest(records []release.VersionRecord) (release.VersionRecord, bool) {
	if len(records) == 0 {
		return release.VersionRecord{}, false
	}

	best := records[0]
	for _, rec := range records[1:] {
		if semver.Compare("v"+rec.Version, "v"+best.Version) > 0 {
			best = rec
		}
	}
	return best, true
}

// Find returns the record for an exact version.
func Find(records []release.VersionRecord, version string) (release.VersionRecord, bool) {
	for _, rec := range records {
		if rec.Version == version {
			return rec, true
		}
	}
	return release.VersionRecord{}, false
}

// Persist writes the records as pretty-printed JSON via a temporary
// file and an atomic rename. Writing zero records is refused with
// ErrEmptyStore; any I/O failure is returned.
func Persist(path string, records []release.VersionRecord) error {
	if len(records) == 0 {
		return ErrEmptyStore
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal version store: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// WriteLatest writes the legacy single-version projection: the newest
// record as one JSON object, version key included.
func WriteLatest(path string, record release.VersionRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal latest version: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// writeFileAtomic writes data through a temporary file in the target
// directory followed by a rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
