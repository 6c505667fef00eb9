// Package post batches engine comments into pull request reviews and sends
// them through the GitHub adapter, skipping anything already posted.
package post

import (
	"context"
	"fmt"
	"time"

	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/github"
	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
	"github.com/bkyoung/clang-tidy-reviewer/internal/engine"
)

// defaultPace is the pause between review submissions, to stay clear of
// GitHub's abuse detection.
const defaultPace = 10 * time.Second

// ReviewClient is the slice of the GitHub adapter the poster needs.
type ReviewClient interface {
	ListPullRequestComments(ctx context.Context, owner, repo string, number int) ([]github.PullRequestComment, error)
	CreateReview(ctx context.Context, owner, repo string, number int, review github.CreateReviewRequest) (*github.CreateReviewResponse, error)
}

// HistoryStore records what was posted; optional.
type HistoryStore interface {
	SaveRun(ctx context.Context, run RunRecord) error
}

// RunRecord is one posting run for the history store.
type RunRecord struct {
	Repository string
	PullNumber int
	StartedAt  time.Time
	Comments   []domain.ReviewComment
}

// Poster submits review comments in chunks.
type Poster struct {
	client ReviewClient
	store  HistoryStore
	logger engine.Logger
	sleep  func(time.Duration)
	pace   time.Duration
}

// NewPoster creates a poster. store and logger may be nil.
func NewPoster(client ReviewClient, store HistoryStore, logger engine.Logger) *Poster {
	return &Poster{
		client: client,
		store:  store,
		logger: logger,
		sleep:  time.Sleep,
		pace:   defaultPace,
	}
}

// SetPace overrides the pause between review submissions (used in tests).
func (p *Poster) SetPace(pace time.Duration, sleep func(time.Duration)) {
	p.pace = pace
	if sleep != nil {
		p.sleep = sleep
	}
}

// Request carries everything needed to post one batch of comments.
type Request struct {
	Owner      string
	Repo       string
	PullNumber int

	Comments []domain.ReviewComment

	// SummaryPrefix opens each review body; a "(i/total)" suffix is added
	// per chunk. The prefix also identifies engine-authored reviews for
	// later dismissal.
	SummaryPrefix string

	// RequestChanges selects REQUEST_CHANGES over COMMENT.
	RequestChanges bool

	// SuggestionsPerComment caps inline comments per review; splitting
	// avoids server errors on large reviews.
	SuggestionsPerComment int
}

// Result summarizes a posting run.
type Result struct {
	CommentsPosted    int
	DuplicatesSkipped int
	ReviewsCreated    int
}

// Post deduplicates the comments against those already on the pull request
// and submits the remainder in chunks.
func (p *Poster) Post(ctx context.Context, req Request) (*Result, error) {
	existing, err := p.client.ListPullRequestComments(ctx, req.Owner, req.Repo, req.PullNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch existing comments: %w", err)
	}

	fresh := excludePosted(req.Comments, existing)
	result := &Result{DuplicatesSkipped: len(req.Comments) - len(fresh)}
	if len(fresh) == 0 {
		return result, nil
	}

	event := github.EventComment
	if req.RequestChanges {
		event = github.EventRequestChanges
	}

	perReview := req.SuggestionsPerComment
	if perReview <= 0 {
		perReview = len(fresh)
	}
	chunks := chunkComments(fresh, perReview)

	for i, chunk := range chunks {
		review := github.CreateReviewRequest{
			Body:     fmt.Sprintf("%s (%d/%d)", req.SummaryPrefix, i+1, len(chunks)),
			Event:    event,
			Comments: chunk,
		}

		if _, err := p.client.CreateReview(ctx, req.Owner, req.Repo, req.PullNumber, review); err != nil {
			return nil, fmt.Errorf("post review %d/%d: %w", i+1, len(chunks), err)
		}

		result.ReviewsCreated++
		result.CommentsPosted += len(chunk)

		if i < len(chunks)-1 {
			p.sleep(p.pace)
		}
	}

	if p.store != nil {
		record := RunRecord{
			Repository: req.Owner + "/" + req.Repo,
			PullNumber: req.PullNumber,
			StartedAt:  time.Now().UTC(),
			Comments:   fresh,
		}
		if err := p.store.SaveRun(ctx, record); err != nil && p.logger != nil {
			p.logger.LogWarning(ctx, "failed to record run", map[string]interface{}{"error": err.Error()})
		}
	}

	return result, nil
}

// excludePosted drops comments that already exist on the pull request,
// matching on path, line, side, and body.
func excludePosted(comments []domain.ReviewComment, existing []github.PullRequestComment) []domain.ReviewComment {
	var fresh []domain.ReviewComment

	for _, c := range comments {
		duplicate := false
		for _, e := range existing {
			if c.Path == e.Path && c.Line == e.Line && c.Side == e.Side && c.Body == e.Body {
				duplicate = true
				break
			}
		}
		if !duplicate {
			fresh = append(fresh, c)
		}
	}

	return fresh
}

// chunkComments splits comments into runs of at most size.
func chunkComments(comments []domain.ReviewComment, size int) [][]domain.ReviewComment {
	var chunks [][]domain.ReviewComment
	for start := 0; start < len(comments); start += size {
		end := start + size
		if end > len(comments) {
			end = len(comments)
		}
		chunks = append(chunks, comments[start:end])
	}
	return chunks
}
