// Package registry queries the package registry the upstream tool is
// published to. The sync pipeline only needs one answer from it: which
// published versions have been yanked.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://crates.io"
	defaultUserAgent = "cellarman"

	// maxResponseBytes caps the versions listing body.
	maxResponseBytes = 10 << 20
)

// Client fetches crate metadata from a crates.io-compatible registry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// ClientOption configures a Client during construction.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client, useful for tests.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(r *Client) {
		r.httpClient = c
	}
}

// WithBaseURL overrides the registry base URL, primarily for test
// servers.
func WithBaseURL(base string) ClientOption {
	return func(r *Client) {
		r.baseURL = strings.TrimRight(base, "/")
	}
}

// WithUserAgent sets the User-Agent header. The public registry
// rejects requests without one.
func WithUserAgent(ua string) ClientOption {
	return func(r *Client) {
		r.userAgent = ua
	}
}

// NewClient creates a registry client with the public registry as its
// default endpoint.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// crateVersions is the JSON wire format of the versions listing.
type crateVersions struct {
	Versions []struct {
		Num    string `json:"num"`
		Yanked bool   `json:"yanked"`
	} `json:"versions"`
}

// YankedVersions returns the set of versions of the crate that the
// registry has marked yanked. Any transport or decode failure is
// returned as-is; stale yanked data must not survive silently.
func (c *Client) YankedVersions(ctx context.Context, crate string) (map[string]bool, error) {
	reqURL := fmt.Sprintf("%s/api/v1/crates/%s/versions", c.baseURL, crate)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing crate versions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing crate versions: unexpected status %d from %s", resp.StatusCode, reqURL)
	}

	var payload crateVersions
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("listing crate versions: decoding response: %w", err)
	}

	yanked := make(map[string]bool)
	for _, v := range payload.Versions {
		if v.Yanked {
			yanked[v.Num] = true
		}
	}
	return yanked, nil
}
