// Package github is the adapter for the GitHub REST and GraphQL APIs: it
// fetches change metadata and existing comments, posts reviews, dismisses
// stale ones, and resolves conversation threads. The engine itself never
// touches this package.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/rest"
)

const (
	defaultBaseURL    = "https://api.github.com"
	defaultGraphQLURL = "https://api.github.com/graphql"
	defaultTimeout    = 30 * time.Second

	// maxPages caps list pagination, mirroring the API's 3000-item window.
	maxPages = 100

	serviceName = "github"
)

// Client is an HTTP client for the GitHub APIs used by the reviewer.
type Client struct {
	token      string
	baseURL    string
	graphqlURL string
	httpClient *http.Client
	retryConf  rest.RetryConfig
}

// NewClient creates a client authenticated with the given token (a personal
// access token or GITHUB_TOKEN from Actions).
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		graphqlURL: defaultGraphQLURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf:  rest.DefaultRetryConfig(),
	}
}

// SetBaseURL sets a custom REST base URL (for testing and GHE).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimSuffix(url, "/")
}

// SetGraphQLURL sets a custom GraphQL endpoint.
func (c *Client) SetGraphQLURL(url string) {
	c.graphqlURL = url
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetRetryConfig overrides the retry behavior.
func (c *Client) SetRetryConfig(conf rest.RetryConfig) {
	c.retryConf = conf
}

// ListPullRequestFiles returns the metadata of every file modified by the
// pull request, following pagination until an empty page.
func (c *Client) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]PullRequestFile, error) {
	var files []PullRequestFile

	for page := 1; page <= maxPages; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?page=%d", c.baseURL, owner, repo, number, page)

		var chunk []PullRequestFile
		if err := c.do(ctx, http.MethodGet, url, nil, &chunk); err != nil {
			return nil, fmt.Errorf("list pull request files: %w", err)
		}
		if len(chunk) == 0 {
			break
		}
		files = append(files, chunk...)
	}

	return files, nil
}

// ListPullRequestComments returns every review comment on the pull request,
// following pagination until an empty page.
func (c *Client) ListPullRequestComments(ctx context.Context, owner, repo string, number int) ([]PullRequestComment, error) {
	var comments []PullRequestComment

	for page := 1; page <= maxPages; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/comments?page=%d", c.baseURL, owner, repo, number, page)

		var chunk []PullRequestComment
		if err := c.do(ctx, http.MethodGet, url, nil, &chunk); err != nil {
			return nil, fmt.Errorf("list pull request comments: %w", err)
		}
		if len(chunk) == 0 {
			break
		}
		comments = append(comments, chunk...)
	}

	return comments, nil
}

// CreateReview posts a pull request review with inline comments. A bad
// gateway response is tolerated: large reviews occasionally report 502 even
// though GitHub accepted them.
func (c *Client) CreateReview(ctx context.Context, owner, repo string, number int, review CreateReviewRequest) (*CreateReviewResponse, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.baseURL, owner, repo, number)

	var resp CreateReviewResponse
	err := c.do(ctx, http.MethodPost, url, review, &resp, http.StatusBadGateway)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	return &resp, nil
}

// ListReviews returns the reviews already submitted on the pull request.
func (c *Client) ListReviews(ctx context.Context, owner, repo string, number int) ([]ReviewSummary, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.baseURL, owner, repo, number)

	var reviews []ReviewSummary
	if err := c.do(ctx, http.MethodGet, url, nil, &reviews); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, nil
}

// DismissReview dismisses a previously submitted review.
func (c *Client) DismissReview(ctx context.Context, owner, repo string, number int, reviewID int64, message string) error {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews/%d/dismissals", c.baseURL, owner, repo, number, reviewID)

	body := map[string]string{
		"message": message,
		"event":   string(EventDismiss),
	}
	if err := c.do(ctx, http.MethodPut, url, body, nil); err != nil {
		return fmt.Errorf("dismiss review %d: %w", reviewID, err)
	}

	return nil
}

// do executes one JSON request with retry. Statuses in tolerated are
// accepted without decoding a response body.
func (c *Client) do(ctx context.Context, method, url string, body, out any, tolerated ...int) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	return rest.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return &rest.Error{Type: rest.ErrTypeUnknown, Message: err.Error(), Service: serviceName}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &rest.Error{Type: rest.ErrTypeTimeout, Message: err.Error(), Retryable: true, Service: serviceName}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &rest.Error{Type: rest.ErrTypeUnknown, Message: err.Error(), StatusCode: resp.StatusCode, Service: serviceName}
		}

		if resp.StatusCode >= 400 {
			for _, ok := range tolerated {
				if resp.StatusCode == ok {
					return nil
				}
			}
			return MapHTTPError(resp.StatusCode, data)
		}

		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return &rest.Error{Type: rest.ErrTypeUnknown, Message: fmt.Sprintf("decode response: %v", err), StatusCode: resp.StatusCode, Service: serviceName}
			}
		}

		return nil
	}, c.retryConf)
}
