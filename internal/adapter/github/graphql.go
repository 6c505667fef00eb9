package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/rest"
)

// ReviewThread is one conversation thread on a pull request, trimmed to the
// first comment, which is the one carrying the severity markers for
// engine-authored threads.
type ReviewThread struct {
	ID          string
	IsResolved  bool
	CommentBody string
	AuthorLogin string
}

const reviewThreadsQuery = `
query {
  repository(owner: %q, name: %q) {
    pullRequest(number: %d) {
      id
      reviewThreads(last: 100) {
        nodes {
          id
          isResolved
          comments(first: 1) {
            nodes {
              id
              body
              author {
                login
              }
            }
          }
        }
      }
    }
  }
}`

// threadsResponse mirrors the GraphQL response shape for reviewThreadsQuery.
type threadsResponse struct {
	Data struct {
		Repository struct {
			PullRequest struct {
				ReviewThreads struct {
					Nodes []struct {
						ID         string `json:"id"`
						IsResolved bool   `json:"isResolved"`
						Comments   struct {
							Nodes []struct {
								ID     string `json:"id"`
								Body   string `json:"body"`
								Author struct {
									Login string `json:"login"`
								} `json:"author"`
							} `json:"nodes"`
						} `json:"comments"`
					} `json:"nodes"`
				} `json:"reviewThreads"`
			} `json:"pullRequest"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ListReviewThreads fetches the pull request's conversation threads via the
// GraphQL API.
func (c *Client) ListReviewThreads(ctx context.Context, owner, repo string, number int) ([]ReviewThread, error) {
	query := fmt.Sprintf(reviewThreadsQuery, owner, repo, number)

	var resp threadsResponse
	if err := c.graphql(ctx, query, &resp); err != nil {
		return nil, fmt.Errorf("list review threads: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("list review threads: %s", resp.Errors[0].Message)
	}

	var threads []ReviewThread
	for _, node := range resp.Data.Repository.PullRequest.ReviewThreads.Nodes {
		thread := ReviewThread{ID: node.ID, IsResolved: node.IsResolved}
		if len(node.Comments.Nodes) > 0 {
			thread.CommentBody = node.Comments.Nodes[0].Body
			thread.AuthorLogin = node.Comments.Nodes[0].Author.Login
		}
		threads = append(threads, thread)
	}

	return threads, nil
}

const resolveThreadMutation = `
mutation {
  resolveReviewThread(input: {threadId: %q, clientMutationId: "clang-tidy-reviewer"}) {
    thread {
      id
    }
  }
}`

// ResolveReviewThread closes one conversation thread. Resolving requires
// `contents: write` permission; GitHub reports the lack of it as a GraphQL
// error, not an HTTP one.
func (c *Client) ResolveReviewThread(ctx context.Context, threadID string) error {
	mutation := fmt.Sprintf(resolveThreadMutation, threadID)

	var resp struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := c.graphql(ctx, mutation, &resp); err != nil {
		return fmt.Errorf("resolve thread %s: %w", threadID, err)
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("resolve thread %s: %s", threadID, resp.Errors[0].Message)
	}

	return nil
}

// graphql posts one query to the GraphQL endpoint.
func (c *Client) graphql(ctx context.Context, query string, out any) error {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	return rest.RetryWithBackoff(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
		if err != nil {
			return &rest.Error{Type: rest.ErrTypeUnknown, Message: err.Error(), Service: serviceName}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &rest.Error{Type: rest.ErrTypeTimeout, Message: err.Error(), Retryable: true, Service: serviceName}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &rest.Error{Type: rest.ErrTypeUnknown, Message: err.Error(), StatusCode: resp.StatusCode, Service: serviceName}
		}

		if resp.StatusCode != http.StatusOK {
			return MapHTTPError(resp.StatusCode, data)
		}

		if err := json.Unmarshal(data, out); err != nil {
			return &rest.Error{Type: rest.ErrTypeUnknown, Message: fmt.Sprintf("decode response: %v", err), StatusCode: resp.StatusCode, Service: serviceName}
		}

		return nil
	}, c.retryConf)
}
