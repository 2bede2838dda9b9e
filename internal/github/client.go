// Package github is a minimal client for the pieces of the GitHub REST
// API the sync pipeline needs: paginated release listings, tag
// references, and asset contents. It speaks plain net/http and knows
// nothing about the version store.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// perPage is the page size requested from the releases endpoint. A
	// page shorter than this marks the end of pagination.
	perPage = 100

	// maxRedirects bounds redirect chains; beyond it the request is a
	// fatal transport error.
	maxRedirects = 5

	// maxTextAssetBytes caps small text-asset bodies (checksums,
	// signatures, certificates).
	maxTextAssetBytes = 1 << 20

	// maxJSONResponseBytes caps JSON API response bodies.
	maxJSONResponseBytes = 10 << 20

	apiVersion       = "2022-11-28"
	defaultBaseURL   = "https://api.github.com"
	defaultUserAgent = "cellarman"
)

// Token environment variables, checked in order.
const (
	tokenEnv         = "CELLARMAN_GITHUB_TOKEN"
	fallbackTokenEnv = "GITHUB_TOKEN"
)

// StatusError is a non-success response from the API. Every StatusError
// is fatal to the running operation.
type StatusError struct {
	Method string
	URL    string
	Status int
}

// Error formats the failed request with its status code.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, redactURL(e.URL), e.Status)
}

// RateLimitError is returned when the API rate limit is exhausted.
type RateLimitError struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Error formats the rate limit details as a human-readable message.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit exceeded (%d remaining, resets at %s)",
		e.Remaining, e.ResetAt.UTC().Format("15:04 UTC"))
}

// Client queries the GitHub REST API for one repository.
type Client struct {
	httpClient *http.Client
	owner      string
	repo       string
	baseURL    string
	token      string
	userAgent  string
}

// ClientOption configures a Client during construction.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client, useful for tests.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *Client) {
		g.httpClient = c
	}
}

// WithBaseURL overrides the API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(g *Client) {
		g.baseURL = strings.TrimRight(base, "/")
	}
}

// WithToken sets a bearer token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(g *Client) {
		g.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(g *Client) {
		g.userAgent = ua
	}
}

// NewClient creates a Client for the given repository. The default HTTP
// client follows at most maxRedirects redirects and times out whole
// requests after five minutes.
func NewClient(owner, repo string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (max %d)", maxRedirects)
				}
				return nil
			},
		},
		owner:     owner,
		repo:      repo,
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TokenFromEnv returns the API token from the environment: first
// CELLARMAN_GITHUB_TOKEN, then GITHUB_TOKEN. Empty when neither is set.
func TokenFromEnv() string {
	if token := os.Getenv(tokenEnv); token != "" {
		return token
	}
	return os.Getenv(fallbackTokenEnv)
}

// doRequest creates and executes a request with the common API headers.
func (c *Client) doRequest(ctx context.Context, method, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)

	// Only attach the token when the request targets a known GitHub
	// host, so it cannot leak to a third-party CDN through a download
	// URL.
	if c.token != "" && isGitHubHost(req.URL, c.baseURL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// checkRateLimit inspects the X-RateLimit-* response headers and
// returns a RateLimitError when the remaining quota is zero.
func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}

	rem, err := strconv.Atoi(remaining)
	if err != nil || rem > 0 {
		return nil
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
	resetUnix, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)

	return &RateLimitError{
		Limit:     limit,
		Remaining: 0,
		ResetAt:   time.Unix(resetUnix, 0),
	}
}

// isGitHubHost reports whether reqURL targets the configured API host
// or, when the base is api.github.com, the github.com download host.
func isGitHubHost(reqURL *url.URL, baseURL string) bool {
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	if strings.EqualFold(reqURL.Host, base.Host) {
		return true
	}
	if strings.EqualFold(base.Host, "api.github.com") && strings.EqualFold(reqURL.Host, "github.com") {
		return true
	}
	return false
}

// redactURL strips query parameters and fragments from a URL for safe
// inclusion in error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
