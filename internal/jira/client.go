// Package jira provides the minimal issue-tracker surface the collector
// needs: a JQL search used to resolve test names to issue keys.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a thin client for the Jira search API, authenticated with an
// email + API token pair sent as a basic-auth header.
type Client struct {
	baseURL    string
	email      string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the Client during construction.
type Option func(*clientConfig) error

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
}

// New creates a Client for the given Jira instance.
func New(baseURL, email, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("jira: baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	cfg := &clientConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    baseURL,
		email:      email,
		token:      token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		cfg.timeout = d
		return nil
	}
}

// Issue is one search result.
type Issue struct {
	Key    string `json:"key"`
	Fields Fields `json:"fields"`
}

// Fields carries the subset of issue fields the collector requests.
type Fields struct {
	Summary string `json:"summary,omitempty"`
}

// SearchResult is the search endpoint's response shape.
type SearchResult struct {
	Issues        []Issue `json:"issues"`
	IsLast        bool    `json:"isLast,omitempty"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// Search runs a JQL query and returns the first page of matches.
func (c *Client) Search(ctx context.Context, jql string, maxResults int) (*SearchResult, error) {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("fields", "summary")

	u := fmt.Sprintf("%s/rest/api/3/search/jql?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("search: create request: %w", err)
	}
	req.SetBasicAuth(c.email, c.token)

	c.logger.DebugContext(ctx, "Jira search", "jql", jql)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		msg := string(body)
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("search: HTTP %d: %s", resp.StatusCode, msg)
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	return &result, nil
}

// EscapeJQL escapes a value for embedding inside a double-quoted JQL
// string literal: backslashes first, then quotes.
func EscapeJQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// IssueFinder resolves test names to issue keys within one project. It
// satisfies the lookup cache's Searcher contract.
type IssueFinder struct {
	Client  *Client
	Project string
}

// FindIssueKey searches the project for an issue whose summary matches the
// test name and returns the first match's key. found is false when the
// search succeeded but matched nothing.
func (f *IssueFinder) FindIssueKey(ctx context.Context, testName string) (key string, found bool, err error) {
	jql := fmt.Sprintf(`project = %s AND summary ~ "%s"`, f.Project, EscapeJQL(testName))
	result, err := f.Client.Search(ctx, jql, 1)
	if err != nil {
		return "", false, err
	}
	if len(result.Issues) == 0 {
		return "", false, nil
	}
	return result.Issues[0].Key, true, nil
}
