// Package resolve cleans up after previous runs: it dismisses stale
// change-requesting reviews and resolves conversation threads the engine
// opened, so a pull request that no longer triggers diagnostics comes back
// clean.
package resolve

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/github"
	"github.com/bkyoung/clang-tidy-reviewer/internal/engine"
)

// Client is the slice of the GitHub adapter the resolver needs.
type Client interface {
	ListReviews(ctx context.Context, owner, repo string, number int) ([]github.ReviewSummary, error)
	DismissReview(ctx context.Context, owner, repo string, number int, reviewID int64, message string) error
	ListReviewThreads(ctx context.Context, owner, repo string, number int) ([]github.ReviewThread, error)
	ResolveReviewThread(ctx context.Context, threadID string) error
}

// Resolver dismisses and resolves engine-authored review state.
type Resolver struct {
	client  Client
	logger  engine.Logger
	markers engine.Markers

	// botUsername is the author login engine comments appear under. The
	// REST reviews API reports it with a "[bot]" suffix, GraphQL without.
	botUsername string
}

// NewResolver creates a resolver. logger may be nil.
func NewResolver(client Client, markers engine.Markers, botUsername string, logger engine.Logger) *Resolver {
	return &Resolver{
		client:      client,
		logger:      logger,
		markers:     markers,
		botUsername: botUsername,
	}
}

// DismissStaleReviews dismisses change-requesting reviews from earlier runs,
// identified by the summary prefix in the review body and the bot author.
// Returns how many reviews were dismissed.
func (r *Resolver) DismissStaleReviews(ctx context.Context, owner, repo string, number int, summaryPrefix string) (int, error) {
	reviews, err := r.client.ListReviews(ctx, owner, repo, number)
	if err != nil {
		return 0, fmt.Errorf("list reviews: %w", err)
	}

	dismissed := 0
	for _, review := range reviews {
		if review.State != "CHANGES_REQUESTED" {
			continue
		}
		if !strings.HasPrefix(review.Body, summaryPrefix) {
			continue
		}
		if review.User.Login != r.botUsername+"[bot]" {
			continue
		}

		message := "All issues addressed."
		if err := r.client.DismissReview(ctx, owner, repo, number, review.ID, message); err != nil {
			return dismissed, fmt.Errorf("dismiss review %d: %w", review.ID, err)
		}
		dismissed++

		if r.logger != nil {
			r.logger.LogInfo(ctx, "dismissed stale review", map[string]interface{}{
				"review_id": review.ID,
			})
		}
	}

	return dismissed, nil
}

// ResolveConversations resolves every unresolved conversation thread whose
// first comment was authored by the bot and carries the doubled severity
// marker signature. Returns how many threads were resolved.
func (r *Resolver) ResolveConversations(ctx context.Context, owner, repo string, number int) (int, error) {
	threads, err := r.client.ListReviewThreads(ctx, owner, repo, number)
	if err != nil {
		return 0, fmt.Errorf("list review threads: %w", err)
	}

	signature := signaturePattern(r.markers)

	resolved := 0
	for _, thread := range threads {
		if thread.IsResolved {
			continue
		}
		if thread.AuthorLogin != r.botUsername {
			continue
		}
		if !signature.MatchString(thread.CommentBody) {
			continue
		}

		if err := r.client.ResolveReviewThread(ctx, thread.ID); err != nil {
			return resolved, fmt.Errorf("resolve thread %s: %w", thread.ID, err)
		}
		resolved++

		if r.logger != nil {
			r.logger.LogInfo(ctx, "resolved conversation", map[string]interface{}{
				"thread_id": thread.ID,
			})
		}
	}

	return resolved, nil
}

// signaturePattern matches comment bodies that open with one of the severity
// markers and repeat it on the same heading line, the shape the renderer
// produces around the diagnostic name.
func signaturePattern(markers engine.Markers) *regexp.Regexp {
	var alternatives []string
	for _, marker := range markers.All() {
		m := regexp.QuoteMeta(marker)
		alternatives = append(alternatives, fmt.Sprintf(`%s.*%s.*`, m, m))
	}
	return regexp.MustCompile(`(?s)\A(?:` + strings.Join(alternatives, "|") + `)`)
}
