// Package release holds the version-record model persisted by the store
// and the translation of raw GitHub release data into it: pairing
// binary artifacts with their checksums and parsing release-notes
// bodies into structured entries.
package release

import (
	"time"
)

// Release-notes categories. Map keys in ReleaseNotes are always one of
// these.
const (
	CategoryFeatures = "features"
	CategoryFixes    = "fixes"
	CategoryBreaking = "breaking"
)

// VersionRecord is one released version of the upstream tool as stored
// in the version store. Version never carries a leading "v".
type VersionRecord struct {
	Version     string        `json:"version"`
	PublishedAt time.Time     `json:"published_at"`
	Build       Build         `json:"build"`
	Binaries    []BinaryAsset `json:"binaries"`
	Notes       ReleaseNotes  `json:"notes,omitempty"`
}

// Build identifies the source revision a version was built from. It is
// the fallback path for platforms without a prebuilt binary.
type Build struct {
	Tag      string `json:"tag"`
	Revision string `json:"revision"`
}

// BinaryAsset is one prebuilt artifact of a version: the platform it
// targets, where to download it, and its SHA-256 checksum.
type BinaryAsset struct {
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	URL      string `json:"url"`
	Checksum string `json:"checksum"`
}

// ReleaseNotes groups parsed change entries by category. Categories
// with no entries are absent from the map; notes that parsed to nothing
// are represented by a nil map.
type ReleaseNotes map[string][]ChangeEntry

// ChangeEntry is a single parsed release-notes bullet. Every field
// except Summary is optional; absent fields stay out of the JSON.
type ChangeEntry struct {
	Commit  string `json:"commit,omitempty"`
	Link    string `json:"link,omitempty"`
	Scope   string `json:"scope,omitempty"`
	Author  string `json:"author,omitempty"`
	Emoji   string `json:"emoji,omitempty"`
	PR      int    `json:"pr,omitempty"`
	Summary string `json:"summary"`
	Issues  []int  `json:"issues,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

// Asset is one downloadable file attached to an upstream release, as
// seen by the artifact resolver.
type Asset struct {
	Name string
	URL  string
}
