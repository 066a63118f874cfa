package pinboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.pinboard.in/v1"

	// defaultInterval spaces requests out per the service's rate guidance.
	defaultInterval = 3 * time.Second

	userAgent = "pinbook/1.0"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadResponse  = errors.New("unexpected response from service")
	ErrNoToken      = errors.New("no API token configured")
)

// Client talks to a Pinboard-compatible service. Safe for concurrent use;
// requests are spaced out by an internal rate limiter.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	baseURL    string

	mu    sync.Mutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithRequestInterval overrides the spacing between requests.
func WithRequestInterval(d time.Duration) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithToken sets the initial auth token ("user:HEX").
func WithToken(tok string) Option {
	return func(c *Client) { c.token = tok }
}

// NewClient builds a client around the given HTTP client and logger.
func NewClient(httpClient *http.Client, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: httpClient,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Every(defaultInterval), 1),
		baseURL:    DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetToken replaces the auth token used for subsequent calls.
func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = tok
}

// Token returns the current auth token, empty when logged out.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.token
}

// LastUpdate returns the time of the most recent change on the service.
// This is the cheap staleness probe used to skip full pulls.
func (c *Client) LastUpdate(ctx context.Context) (time.Time, error) {
	var out struct {
		UpdateTime string `json:"update_time"`
	}
	if err := c.get(ctx, "/posts/update", nil, &out); err != nil {
		return time.Time{}, err
	}

	t, err := time.Parse(time.RFC3339, out.UpdateTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad update_time %q: %w", ErrBadResponse, out.UpdateTime, err)
	}

	return t, nil
}

// AllPosts fetches the complete post list.
func (c *Client) AllPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.get(ctx, "/posts/all", nil, &posts); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched all posts", "count", len(posts))

	return posts, nil
}

// AddPost adds or replaces a post on the service, keyed by URL.
func (c *Client) AddPost(ctx context.Context, p Post) error {
	params := url.Values{}
	params.Set("url", p.Href)
	params.Set("description", p.Description)
	params.Set("extended", p.Extended)
	params.Set("tags", p.Tags)
	params.Set("shared", p.Shared)
	params.Set("toread", p.ToRead)
	params.Set("replace", "yes")
	if p.Time != "" {
		params.Set("dt", p.Time)
	}

	return c.getResult(ctx, "/posts/add", params)
}

// DeletePost removes the post with the given URL from the service.
func (c *Client) DeletePost(ctx context.Context, postURL string) error {
	params := url.Values{}
	params.Set("url", postURL)

	return c.getResult(ctx, "/posts/delete", params)
}

// RenameTag renames a tag across all posts on the service.
func (c *Client) RenameTag(ctx context.Context, old, newName string) error {
	params := url.Values{}
	params.Set("old", old)
	params.Set("new", newName)

	return c.getResult(ctx, "/tags/rename", params)
}

// DeleteTag removes a tag from all posts on the service.
func (c *Client) DeleteTag(ctx context.Context, name string) error {
	params := url.Values{}
	params.Set("tag", name)

	return c.getResult(ctx, "/tags/delete", params)
}

// APIToken exchanges username and password for a full "user:HEX" API token.
func (c *Client) APIToken(ctx context.Context, username, password string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/user/api_token?format=json", nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(username, password)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return "", err
	}

	var out struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decoding token: %w", ErrBadResponse, err)
	}
	if out.Result == "" {
		return "", fmt.Errorf("%w: empty token", ErrBadResponse)
	}

	return username + ":" + out.Result, nil
}

// get performs an authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	tok := c.Token()
	if tok == "" {
		return ErrNoToken
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("auth_token", tok)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		c.logger.Debug("request failed", "path", path, "status", resp.StatusCode)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrBadResponse, path, err)
	}

	return nil
}

// getResult performs a call whose body is a {"result_code": ...} envelope.
func (c *Client) getResult(ctx context.Context, path string, params url.Values) error {
	var out struct {
		ResultCode string `json:"result_code"`
	}
	if err := c.get(ctx, path, params, &out); err != nil {
		return err
	}

	if out.ResultCode != "done" {
		return fmt.Errorf("%w: %s: %q", ErrBadResponse, path, out.ResultCode)
	}

	return nil
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthorized
	case code != http.StatusOK:
		return fmt.Errorf("%w: status %d", ErrBadResponse, code)
	}

	return nil
}
