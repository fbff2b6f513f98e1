// Package github exposes GitHub repository search as a tool.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// ErrMissingToken is returned when no access token is configured.
var ErrMissingToken = errors.New("github: access token is required")

// SearchQuery is a fully resolved repository search.
type SearchQuery struct {
	Query   string
	Page    int
	PerPage int
}

// Searcher runs repository searches.
type Searcher interface {
	SearchRepositories(ctx context.Context, q SearchQuery) (*SearchResult, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, q SearchQuery) (*SearchResult, error)

// SearchRepositories calls f.
func (f SearcherFunc) SearchRepositories(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	return f(ctx, q)
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// WithBaseURL points the client at a different API root, such as a GitHub
// Enterprise server or a test server.
func WithBaseURL(u string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = u
	}
}

// WithHTTPClient sets the transport used underneath the OAuth2 token source.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent sent with each request.
func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// Client searches repositories through the GitHub REST API.
type Client struct {
	gh *gh.Client
}

var _ Searcher = (*Client)(nil)

// NewClient creates an authenticated client. The token is sent as a bearer
// token on every request.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx := context.Background()
	if cfg.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.httpClient)
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	client := gh.NewClient(httpClient)
	if cfg.baseURL != "" {
		base, err := url.Parse(cfg.baseURL)
		if err != nil {
			return nil, fmt.Errorf("github: invalid base URL %q: %w", cfg.baseURL, err)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		client.BaseURL = base
	}
	if cfg.userAgent != "" {
		client.UserAgent = cfg.userAgent
	}

	return &Client{gh: client}, nil
}

// SearchRepositories runs one page of a repository search.
func (c *Client) SearchRepositories(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	res, _, err := c.gh.Search.Repositories(ctx, q.Query, &gh.SearchOptions{
		ListOptions: gh.ListOptions{Page: q.Page, PerPage: q.PerPage},
	})
	if err != nil {
		return nil, fmt.Errorf("search repositories: %w", describeError(err))
	}

	items := make([]Repository, 0, len(res.Repositories))
	for _, r := range res.Repositories {
		items = append(items, Repository{
			Name:        r.GetName(),
			FullName:    r.GetFullName(),
			Description: r.Description,
			URL:         r.GetHTMLURL(),
			StarCount:   r.GetStargazersCount(),
		})
	}

	return &SearchResult{
		TotalCount: res.GetTotal(),
		Items:      items,
	}, nil
}

// describeError shortens the API errors that carry a request dump in their
// default message.
func describeError(err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("rate limit exceeded, resets at %s: %w", rateErr.Rate.Reset.Format("15:04:05 MST"), err)
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("secondary rate limit exceeded: %w", err)
	}
	return err
}
