package post_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/github"
	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
	"github.com/bkyoung/clang-tidy-reviewer/internal/usecase/post"
)

type fakeReviewClient struct {
	existing []github.PullRequestComment
	reviews  []github.CreateReviewRequest
}

func (f *fakeReviewClient) ListPullRequestComments(_ context.Context, _, _ string, _ int) ([]github.PullRequestComment, error) {
	return f.existing, nil
}

func (f *fakeReviewClient) CreateReview(_ context.Context, _, _ string, _ int, review github.CreateReviewRequest) (*github.CreateReviewResponse, error) {
	f.reviews = append(f.reviews, review)
	return &github.CreateReviewResponse{ID: int64(len(f.reviews))}, nil
}

type fakeStore struct {
	runs []post.RunRecord
}

func (f *fakeStore) SaveRun(_ context.Context, run post.RunRecord) error {
	f.runs = append(f.runs, run)
	return nil
}

func comment(path string, line int, body string) domain.ReviewComment {
	return domain.ReviewComment{Path: path, Line: line, Side: "RIGHT", Body: body}
}

func newPoster(client post.ReviewClient, store post.HistoryStore) *post.Poster {
	p := post.NewPoster(client, store, nil)
	p.SetPace(0, func(time.Duration) {})
	return p
}

func TestPost_ChunksReviews(t *testing.T) {
	client := &fakeReviewClient{}
	p := newPoster(client, nil)

	comments := []domain.ReviewComment{
		comment("a.cc", 1, "one"),
		comment("a.cc", 2, "two"),
		comment("a.cc", 3, "three"),
	}

	result, err := p.Post(context.Background(), post.Request{
		Owner: "acme", Repo: "widget", PullNumber: 7,
		Comments:              comments,
		SummaryPrefix:         ":warning: `clang-tidy` found issue(s) with the introduced code",
		SuggestionsPerComment: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.CommentsPosted)
	assert.Equal(t, 2, result.ReviewsCreated)
	require.Len(t, client.reviews, 2)
	assert.Len(t, client.reviews[0].Comments, 2)
	assert.Len(t, client.reviews[1].Comments, 1)
	assert.Contains(t, client.reviews[0].Body, "(1/2)")
	assert.Contains(t, client.reviews[1].Body, "(2/2)")
	assert.Equal(t, github.EventComment, client.reviews[0].Event)
}

func TestPost_RequestChangesEvent(t *testing.T) {
	client := &fakeReviewClient{}
	p := newPoster(client, nil)

	_, err := p.Post(context.Background(), post.Request{
		Owner: "acme", Repo: "widget", PullNumber: 7,
		Comments:       []domain.ReviewComment{comment("a.cc", 1, "one")},
		SummaryPrefix:  "prefix",
		RequestChanges: true,
	})
	require.NoError(t, err)
	require.Len(t, client.reviews, 1)
	assert.Equal(t, github.EventRequestChanges, client.reviews[0].Event)
}

func TestPost_SkipsAlreadyPostedComments(t *testing.T) {
	client := &fakeReviewClient{
		existing: []github.PullRequestComment{
			{Path: "a.cc", Line: 1, Side: "RIGHT", Body: "one"},
		},
	}
	p := newPoster(client, nil)

	result, err := p.Post(context.Background(), post.Request{
		Owner: "acme", Repo: "widget", PullNumber: 7,
		Comments: []domain.ReviewComment{
			comment("a.cc", 1, "one"),
			comment("a.cc", 2, "two"),
		},
		SummaryPrefix: "prefix",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.DuplicatesSkipped)
	assert.Equal(t, 1, result.CommentsPosted)
	require.Len(t, client.reviews, 1)
	require.Len(t, client.reviews[0].Comments, 1)
	assert.Equal(t, "two", client.reviews[0].Comments[0].Body)
}

func TestPost_AllDuplicatesCreatesNoReview(t *testing.T) {
	client := &fakeReviewClient{
		existing: []github.PullRequestComment{
			{Path: "a.cc", Line: 1, Side: "RIGHT", Body: "one"},
		},
	}
	p := newPoster(client, nil)

	result, err := p.Post(context.Background(), post.Request{
		Owner: "acme", Repo: "widget", PullNumber: 7,
		Comments:      []domain.ReviewComment{comment("a.cc", 1, "one")},
		SummaryPrefix: "prefix",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.ReviewsCreated)
	assert.Equal(t, 1, result.DuplicatesSkipped)
	assert.Empty(t, client.reviews)
}

func TestPost_RecordsRunInStore(t *testing.T) {
	client := &fakeReviewClient{}
	store := &fakeStore{}
	p := newPoster(client, store)

	_, err := p.Post(context.Background(), post.Request{
		Owner: "acme", Repo: "widget", PullNumber: 7,
		Comments:      []domain.ReviewComment{comment("a.cc", 1, "one")},
		SummaryPrefix: "prefix",
	})
	require.NoError(t, err)

	require.Len(t, store.runs, 1)
	assert.Equal(t, "acme/widget", store.runs[0].Repository)
	assert.Equal(t, 7, store.runs[0].PullNumber)
	assert.Len(t, store.runs[0].Comments, 1)
}
