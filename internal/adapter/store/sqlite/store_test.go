package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/store/sqlite"
	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
	"github.com/bkyoung/clang-tidy-reviewer/internal/usecase/post"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	startLine := 40
	err := store.SaveRun(ctx, post.RunRecord{
		Repository: "acme/widget",
		PullNumber: 7,
		StartedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Comments: []domain.ReviewComment{
			{Path: "src/a.cc", Line: 42, Side: "RIGHT", StartLine: &startLine, Body: "multi-line"},
			{Path: "src/b.cc", Line: 5, Side: "RIGHT", Body: "single-line"},
		},
	})
	require.NoError(t, err)

	err = store.SaveRun(ctx, post.RunRecord{
		Repository: "acme/widget",
		PullNumber: 7,
		StartedAt:  time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
	assert.Equal(t, 0, runs[0].Comments)
	assert.Equal(t, 2, runs[1].Comments)
	assert.Equal(t, "acme/widget", runs[1].Repository)
	assert.Equal(t, 7, runs[1].PullNumber)
}

func TestGetRunComments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	startLine := 40
	require.NoError(t, store.SaveRun(ctx, post.RunRecord{
		Repository: "acme/widget",
		PullNumber: 7,
		StartedAt:  time.Now(),
		Comments: []domain.ReviewComment{
			{Path: "src/a.cc", Line: 42, Side: "RIGHT", StartLine: &startLine, Body: "first"},
			{Path: "src/b.cc", Line: 5, Side: "RIGHT", Body: "second"},
		},
	}))

	runs, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	comments, err := store.GetRunComments(ctx, runs[0].RunID)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, "first", comments[0].Body)
	require.NotNil(t, comments[0].StartLine)
	assert.Equal(t, 40, *comments[0].StartLine)
	assert.Nil(t, comments[1].StartLine)
}

func TestListRunsHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveRun(ctx, post.RunRecord{
			Repository: "acme/widget",
			PullNumber: i,
			StartedAt:  time.Now().Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := store.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	assert.Equal(t, 4, runs[0].PullNumber)
}
