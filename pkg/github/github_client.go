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

	"github.com/tidwall/gjson"

	"github.com/dikkadev/launchhub/pkg/apperr"
)

const (
	// DefaultBaseURL is the public GitHub API
	DefaultBaseURL = "https://api.github.com"
	// UserAgent identifies the launcher to GitHub
	UserAgent = "launchhub"
)

// client implements the Client interface
type client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

// Option configures a client
type Option func(*client)

// WithBaseURL points the client at another API root (GitHub Enterprise, tests)
func WithBaseURL(u string) Option {
	return func(c *client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *client) {
		c.userAgent = ua
	}
}

// NewClient creates a new GitHub client
func NewClient(token string, opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   DefaultBaseURL,
		token:     token,
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsNotFound reports whether err is a 404 answer from the feed
func IsNotFound(err error) bool {
	var e *apperr.Error
	return errors.As(err, &e) && e.Kind == apperr.Upstream && e.StatusCode == http.StatusNotFound
}

// GetLatestRelease gets the latest release for a repository
func (c *client) GetLatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, url.PathEscape(owner), url.PathEscape(repo))

	var release Release
	if _, err := c.get(ctx, u, &release); err != nil {
		return nil, err
	}

	return &release, nil
}

// GetReleases gets all releases for a repository
func (c *client) GetReleases(ctx context.Context, owner, repo string) ([]*Release, error) {
	var allReleases []*Release
	page := 1

	for {
		u := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=100&page=%d", c.baseURL, url.PathEscape(owner), url.PathEscape(repo), page)

		var releases []*Release
		header, err := c.get(ctx, u, &releases)
		if err != nil {
			return nil, err
		}

		allReleases = append(allReleases, releases...)

		// Check if there are more pages
		if !strings.Contains(header.Get("Link"), `rel="next"`) {
			break
		}
		page++
	}

	return allReleases, nil
}

// get performs one GET and decodes a 200 body into out
func (c *client) get(ctx context.Context, u string, out interface{}) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Network, err, "failed to create request")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Network, err, "failed to reach GitHub API")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.Network, err, "failed to read GitHub API response")
	}

	if resp.StatusCode != http.StatusOK {
		if msg := gjson.GetBytes(body, "message").String(); msg != "" {
			return nil, apperr.UpstreamStatus(resp.StatusCode, "GitHub API error: %d (%s)", resp.StatusCode, msg)
		}
		return nil, apperr.UpstreamStatus(resp.StatusCode, "GitHub API error: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return nil, apperr.Wrap(apperr.Parse, err, "failed to decode GitHub API response")
	}

	return resp.Header, nil
}
