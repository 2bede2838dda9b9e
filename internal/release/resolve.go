package release

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// TextFetcher fetches the body of a small remote text file, such as a
// published checksum. Implemented by the GitHub client.
type TextFetcher interface {
	FetchAssetText(ctx context.Context, url string) (string, error)
}

// artifactPattern matches release asset names following the
// <tool>-<version>-<arch>-<os>.<ext> convention, where ext is either
// the archive or its checksum. The part before the extension is the
// pairing key.
func artifactPattern(tool string) *regexp.Regexp {
	return regexp.MustCompile(`^(?P<asset>` + regexp.QuoteMeta(tool) +
		`-(?P<version>.+?)-(?P<arch>[A-Za-z0-9_]+)-(?P<os>[A-Za-z0-9]+))` +
		`\.(?P<type>tar\.gz|sha256)$`)
}

// ResolveBinaries pairs a release's archive assets with their checksum
// assets and returns the installable artifacts keyed by asset name
// (without extension). Assets that do not follow the naming convention
// are ignored, as are archives without a checksum counterpart and the
// reverse. Checksum bodies are fetched through the fetcher; a fetch
// failure aborts the resolution.
func ResolveBinaries(ctx context.Context, tool string, assets []Asset, fetcher TextFetcher) (map[string]BinaryAsset, error) {
	pattern := artifactPattern(tool)
	assetIdx := pattern.SubexpIndex("asset")
	archIdx := pattern.SubexpIndex("arch")
	osIdx := pattern.SubexpIndex("os")
	typeIdx := pattern.SubexpIndex("type")

	type platform struct {
		os   string
		arch string
	}
	archives := make(map[string]Asset)
	checksums := make(map[string]Asset)
	platforms := make(map[string]platform)

	for _, asset := range assets {
		m := pattern.FindStringSubmatch(asset.Name)
		if m == nil {
			continue
		}
		key := m[assetIdx]
		switch m[typeIdx] {
		case "tar.gz":
			archives[key] = asset
			platforms[key] = platform{os: m[osIdx], arch: m[archIdx]}
		case "sha256":
			checksums[key] = asset
		}
	}

	keys := make([]string, 0, len(archives))
	for key := range archives {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	binaries := make(map[string]BinaryAsset)
	for _, key := range keys {
		checksum, ok := checksums[key]
		if !ok {
			continue
		}
		body, err := fetcher.FetchAssetText(ctx, checksum.URL)
		if err != nil {
			return nil, fmt.Errorf("fetching checksum %s: %w", checksum.Name, err)
		}
		token := checksumFirstToken(body)
		if token == "" {
			continue
		}
		binaries[key] = BinaryAsset{
			OS:       platforms[key].os,
			Arch:     platforms[key].arch,
			URL:      archives[key].URL,
			Checksum: token,
		}
	}
	return binaries, nil
}

// checksumFirstToken extracts the checksum from a published checksum
// file body: the first whitespace-delimited token of the first line.
func checksumFirstToken(body string) string {
	line, _, _ := strings.Cut(body, "\n")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
