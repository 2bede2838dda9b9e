package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrTagNotFound is returned when a tag has no ref on the remote.
var ErrTagNotFound = errors.New("tag not found")

// Release is a published upstream release with its downloadable assets.
type Release struct {
	TagName     string
	Name        string
	Draft       bool
	Prerelease  bool
	PublishedAt time.Time
	Body        string
	Assets      []Asset
}

// Asset is a single downloadable file attached to a release.
type Asset struct {
	Name               string
	BrowserDownloadURL string
	Size               int64
}

// Version returns the release's version: the tag with a leading "v"
// stripped.
func (r *Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// githubRelease is the JSON wire format of a release API entry.
type githubRelease struct {
	TagName     string        `json:"tag_name"`
	Name        string        `json:"name"`
	Draft       bool          `json:"draft"`
	Prerelease  bool          `json:"prerelease"`
	PublishedAt time.Time     `json:"published_at"`
	Body        string        `json:"body"`
	Assets      []githubAsset `json:"assets"`
}

// githubAsset is the JSON wire format of a release asset.
type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// githubRef is the JSON wire format of a git ref lookup.
type githubRef struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA  string `json:"sha"`
		Type string `json:"type"`
	} `json:"object"`
}

// ListReleasesSince pages through the repository's releases, newest
// first, and returns the ones not yet known. Draft releases are
// discarded before anything else. Unless fromScratch is set, the first
// release whose version is in known halts pagination; only the releases
// strictly newer than it are returned. A page shorter than the page
// size is always the last one.
func (c *Client) ListReleasesSince(ctx context.Context, known map[string]bool, fromScratch bool) ([]Release, error) {
	var collected []Release

	for page := 1; ; page++ {
		pageURL := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d&page=%d",
			c.baseURL, c.owner, c.repo, perPage, page)

		raw, err := c.fetchReleasePage(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		for i := range raw {
			if raw[i].Draft {
				continue
			}
			release := toRelease(raw[i])
			if !fromScratch && known[release.Version()] {
				return collected, nil
			}
			collected = append(collected, release)
		}

		if len(raw) < perPage {
			return collected, nil
		}
	}
}

// fetchReleasePage fetches and decodes one page of the release listing.
func (c *Client) fetchReleasePage(ctx context.Context, pageURL string) ([]githubRelease, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, pageURL)
	if err != nil {
		return nil, fmt.Errorf("listing releases: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkRateLimit(resp); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Method: http.MethodGet, URL: pageURL, Status: resp.StatusCode}
	}

	var raw []githubRelease
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("listing releases: decoding response: %w", err)
	}
	return raw, nil
}

// TagCommit resolves a tag to the commit identifier its ref points at.
func (c *Client) TagCommit(ctx context.Context, tag string) (string, error) {
	refURL := fmt.Sprintf("%s/repos/%s/%s/git/refs/tags/%s",
		c.baseURL, c.owner, c.repo, url.PathEscape(tag))

	resp, err := c.doRequest(ctx, http.MethodGet, refURL)
	if err != nil {
		return "", fmt.Errorf("resolving tag %s: %w", tag, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkRateLimit(resp); err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("resolving tag %s: %w", tag, ErrTagNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Method: http.MethodGet, URL: refURL, Status: resp.StatusCode}
	}

	var ref githubRef
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&ref); err != nil {
		return "", fmt.Errorf("resolving tag %s: decoding response: %w", tag, err)
	}
	if ref.Object.SHA == "" {
		return "", fmt.Errorf("resolving tag %s: ref carries no object", tag)
	}
	return ref.Object.SHA, nil
}

// FetchAssetText downloads a small text asset (a checksum file, a
// detached signature, a certificate) and returns its body.
func (c *Client) FetchAssetText(ctx context.Context, assetURL string) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, assetURL)
	if err != nil {
		return "", fmt.Errorf("fetching asset %s: %w", redactURL(assetURL), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Method: http.MethodGet, URL: assetURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTextAssetBytes))
	if err != nil {
		return "", fmt.Errorf("fetching asset %s: %w", redactURL(assetURL), err)
	}
	return string(body), nil
}

// toRelease converts the wire type to the exported Release type.
func toRelease(gr githubRelease) Release {
	assets := make([]Asset, 0, len(gr.Assets))
	for _, ga := range gr.Assets {
		assets = append(assets, Asset(ga))
	}
	return Release{
		TagName:     gr.TagName,
		Name:        gr.Name,
		Draft:       gr.Draft,
		Prerelease:  gr.Prerelease,
		PublishedAt: gr.PublishedAt,
		Body:        gr.Body,
		Assets:      assets,
	}
}
