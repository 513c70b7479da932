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

	"github.com/gromit-app/gromit/config"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
)

var (
	// ErrUserNotFound is returned when GitHub has no user with the login
	ErrUserNotFound = errors.New("github user not found")

	// ErrUnavailable is returned when GitHub cannot answer the request
	ErrUnavailable = errors.New("github unavailable")
)

// User is the subset of a GitHub user profile gromit exposes
type User struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

type commitSearchResult struct {
	TotalCount int `json:"total_count"`
}

// Client is a minimal GitHub REST API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	users      *expirable.LRU[string, *User]
	logger     *zap.Logger
}

// NewClient creates a new GitHub client
func NewClient(cfg config.GitHubConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserCacheSize <= 0 {
		cfg.UserCacheSize = 1024
	}
	if cfg.UserCacheTTL <= 0 {
		cfg.UserCacheTTL = 10 * time.Minute
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		users:  expirable.NewLRU[string, *User](cfg.UserCacheSize, nil, cfg.UserCacheTTL),
		logger: logger,
	}
}

// GetUser looks up a user by login. Found users are cached; misses are not.
func (c *Client) GetUser(ctx context.Context, login string) (*User, error) {
	key := strings.ToLower(login)
	if user, ok := c.users.Get(key); ok {
		return user, nil
	}

	var user User
	status, err := c.get(ctx, "/users/"+url.PathEscape(login), nil, &user)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, login)
	}

	c.users.Add(key, &user)
	return &user, nil
}

// CountCommits returns how many commits login authored on the calendar day of day
func (c *Client) CountCommits(ctx context.Context, login string, day time.Time) (int, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("author:%s committer-date:%s", login, day.Format("2006-01-02")))
	query.Set("per_page", "1")

	var result commitSearchResult
	status, err := c.get(ctx, "/search/commits", query, &result)
	if err != nil {
		return 0, err
	}
	// Search answers 422 when the author qualifier names no user
	if status == http.StatusNotFound || status == http.StatusUnprocessableEntity {
		return 0, fmt.Errorf("%w: %s", ErrUserNotFound, login)
	}

	c.logger.Debug("commits counted",
		zap.String("login", login),
		zap.String("day", day.Format("2006-01-02")),
		zap.Int("count", result.TotalCount))
	return result.TotalCount, nil
}

// get performs a GET and decodes a 200 body into dst. 404 and 422 are
// returned as statuses for the caller to interpret; other failures are
// wrapped in ErrUnavailable.
func (c *Client) get(ctx context.Context, path string, query url.Values, dst interface{}) (int, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("github request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return resp.StatusCode, fmt.Errorf("%w: status code %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return resp.StatusCode, nil
}
