package github

import "github.com/bkyoung/clang-tidy-reviewer/internal/domain"

// GitHub Pull Request Reviews API types.
// See: https://docs.github.com/en/rest/pulls/reviews

// ReviewEvent represents the action to take when submitting a review.
type ReviewEvent string

const (
	// EventComment submits the review without approval.
	EventComment ReviewEvent = "COMMENT"

	// EventRequestChanges requests changes to the pull request.
	EventRequestChanges ReviewEvent = "REQUEST_CHANGES"

	// EventDismiss dismisses an existing review.
	EventDismiss ReviewEvent = "DISMISS"
)

// PullRequestFile is one entry of GET /repos/{owner}/{repo}/pulls/{n}/files.
// Patch is absent for entries without hunk text, removed binaries for
// example.
type PullRequestFile struct {
	Filename string  `json:"filename"`
	Status   string  `json:"status"`
	Patch    *string `json:"patch,omitempty"`
}

// ChangedFile converts the API entry to the engine's input shape.
func (f PullRequestFile) ChangedFile() domain.ChangedFile {
	cf := domain.ChangedFile{Path: f.Filename}
	if f.Patch != nil {
		cf.Patch = *f.Patch
		cf.HasPatch = true
	}
	return cf
}

// PullRequestComment is one entry of GET /repos/{owner}/{repo}/pulls/{n}/comments.
type PullRequestComment struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`
	Line int    `json:"line"`
	Side string `json:"side"`
	Body string `json:"body"`
}

// CreateReviewRequest is the body of POST /repos/{owner}/{repo}/pulls/{n}/reviews.
type CreateReviewRequest struct {
	Body     string                 `json:"body"`
	Event    ReviewEvent            `json:"event"`
	Comments []domain.ReviewComment `json:"comments,omitempty"`
}

// CreateReviewResponse is the response to a created review.
type CreateReviewResponse struct {
	ID      int64  `json:"id"`
	State   string `json:"state"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
	User    User   `json:"user"`
}

// ReviewSummary is one entry of GET /repos/{owner}/{repo}/pulls/{n}/reviews.
type ReviewSummary struct {
	ID    int64  `json:"id"`
	State string `json:"state"`
	Body  string `json:"body"`
	User  User   `json:"user"`
}

// User is a GitHub account reference in API responses.
type User struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

// ErrorResponse is GitHub's error body shape.
type ErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
	Errors           []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors,omitempty"`
}
