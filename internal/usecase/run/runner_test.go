package run_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/output/markdown"
	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
	"github.com/bkyoung/clang-tidy-reviewer/internal/engine"
	"github.com/bkyoung/clang-tidy-reviewer/internal/usecase/post"
	"github.com/bkyoung/clang-tidy-reviewer/internal/usecase/run"
)

type fakePoster struct {
	requests []post.Request
	result   *post.Result
}

func (f *fakePoster) Post(_ context.Context, req post.Request) (*post.Result, error) {
	f.requests = append(f.requests, req)
	if f.result != nil {
		return f.result, nil
	}
	return &post.Result{CommentsPosted: len(req.Comments), ReviewsCreated: 1}, nil
}

type fakeResolver struct {
	dismissCalls int
	resolveCalls int
}

func (f *fakeResolver) DismissStaleReviews(_ context.Context, _, _ string, _ int, _ string) (int, error) {
	f.dismissCalls++
	return 1, nil
}

func (f *fakeResolver) ResolveConversations(_ context.Context, _, _ string, _ int) (int, error) {
	f.resolveCalls++
	return 2, nil
}

type fakeReporter struct {
	artifacts []markdown.Artifact
}

func (f *fakeReporter) Write(artifact markdown.Artifact) (string, error) {
	f.artifacts = append(f.artifacts, artifact)
	return "report.md", nil
}

func staticFiles(files []domain.ChangedFile) run.FileSource {
	return func(context.Context, run.Request) ([]domain.ChangedFile, error) {
		return files, nil
	}
}

// fixesFor writes a fixes file with one warning carrying a replacement on
// line 3 of main.cc.
func fixesFor(t *testing.T, dir string) string {
	t.Helper()

	// main.cc is ten two-byte lines, so line k starts at offset 2*(k-1).
	source := "x\nx\nx\nx\nx\nx\nx\nx\nx\nx\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.cc"), []byte(source), 0o600))

	fixes := `
MainSourceFile: main.cc
Diagnostics:
  - DiagnosticName: modernize-use-nullptr
    Level: Warning
    DiagnosticMessage:
      Message: use nullptr
      FilePath: main.cc
      FileOffset: 4
      Replacements:
        - FilePath: main.cc
          Offset: 4
          Length: 2
          ReplacementText: "y\n"
`
	path := filepath.Join(dir, "fixes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixes), 0o600))
	return path
}

// patchCovering returns hunk text marking lines 1-10 of a file as changed.
func patchCovering() string {
	return "@@ -1,10 +1,10 @@"
}

func baseRequest(dir, fixesPath string) run.Request {
	return run.Request{
		Owner:          "acme",
		Repo:           "widget",
		PullNumber:     7,
		FixesPath:      fixesPath,
		RepositoryDir:  dir,
		SummaryPrefix:  "prefix",
		AutoResolve:    true,
		RequestChanges: true,
	}
}

func TestRunPostsApplicableComments(t *testing.T) {
	dir := t.TempDir()
	fixesPath := fixesFor(t, dir)

	poster := &fakePoster{}
	resolver := &fakeResolver{}
	reporter := &fakeReporter{}
	runner := run.NewRunner(
		staticFiles([]domain.ChangedFile{{Path: "main.cc", Patch: patchCovering(), HasPatch: true}}),
		poster, resolver, reporter, engine.DefaultMarkers(), nil,
	)

	result, err := runner.Run(context.Background(), baseRequest(dir, fixesPath))
	require.NoError(t, err)

	assert.Equal(t, 1, result.CommentsGenerated)
	assert.Equal(t, 1, result.CommentsPosted)
	assert.Equal(t, 1, result.ReviewsCreated)
	assert.False(t, result.Clean)
	assert.Equal(t, "report.md", result.ArtifactPath)

	require.Len(t, poster.requests, 1)
	req := poster.requests[0]
	assert.Equal(t, "acme", req.Owner)
	assert.True(t, req.RequestChanges)
	require.Len(t, req.Comments, 1)
	assert.Equal(t, "main.cc", req.Comments[0].Path)
	assert.Contains(t, req.Comments[0].Body, "suggestion")

	// Posting succeeded, so no cleanup of previous review state.
	assert.Zero(t, resolver.dismissCalls)
	assert.Zero(t, resolver.resolveCalls)

	require.Len(t, reporter.artifacts, 1)
	assert.Equal(t, "acme/widget", reporter.artifacts[0].Repository)
	assert.Equal(t, 1, reporter.artifacts[0].Counts[domain.LevelWarning])
}

func TestRunMissingFixesFileIsClean(t *testing.T) {
	dir := t.TempDir()

	poster := &fakePoster{}
	resolver := &fakeResolver{}
	runner := run.NewRunner(staticFiles(nil), poster, resolver, nil, engine.DefaultMarkers(), nil)

	result, err := runner.Run(context.Background(), baseRequest(dir, filepath.Join(dir, "absent.yaml")))
	require.NoError(t, err)

	assert.True(t, result.Clean)
	assert.Equal(t, 1, result.ReviewsDismissed)
	assert.Equal(t, 2, result.ThreadsResolved)
	assert.Empty(t, poster.requests)
	assert.Equal(t, 1, resolver.dismissCalls)
	assert.Equal(t, 1, resolver.resolveCalls)
}

func TestRunInapplicableDiagnosticsAreClean(t *testing.T) {
	dir := t.TempDir()
	fixesPath := fixesFor(t, dir)

	poster := &fakePoster{}
	resolver := &fakeResolver{}
	// The changed file does not include the diagnostic's file.
	runner := run.NewRunner(
		staticFiles([]domain.ChangedFile{{Path: "other.cc", Patch: patchCovering(), HasPatch: true}}),
		poster, resolver, nil, engine.DefaultMarkers(), nil,
	)

	result, err := runner.Run(context.Background(), baseRequest(dir, fixesPath))
	require.NoError(t, err)

	assert.True(t, result.Clean)
	assert.Empty(t, poster.requests)
	assert.Equal(t, 1, resolver.dismissCalls)
}

func TestRunDryRunSkipsPostingAndCleanup(t *testing.T) {
	dir := t.TempDir()
	fixesPath := fixesFor(t, dir)

	poster := &fakePoster{}
	resolver := &fakeResolver{}
	reporter := &fakeReporter{}
	runner := run.NewRunner(
		staticFiles([]domain.ChangedFile{{Path: "main.cc", Patch: patchCovering(), HasPatch: true}}),
		poster, resolver, reporter, engine.DefaultMarkers(), nil,
	)

	req := baseRequest(dir, fixesPath)
	req.DryRun = true

	result, err := runner.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CommentsGenerated)
	assert.Zero(t, result.CommentsPosted)
	assert.Empty(t, poster.requests)
	assert.Zero(t, resolver.dismissCalls)
	require.Len(t, reporter.artifacts, 1)
}

func TestRunFatalReconstructionAbortsRun(t *testing.T) {
	dir := t.TempDir()

	// Trailing pure insertion cannot be anchored to an existing line.
	source := "x\nx\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.cc"), []byte(source), 0o600))
	fixes := `
Diagnostics:
  - DiagnosticName: some-check
    Level: Warning
    DiagnosticMessage:
      Message: message
      FilePath: main.cc
      FileOffset: 4
      Replacements:
        - FilePath: main.cc
          Offset: 4
          Length: 0
          ReplacementText: "tail\n"
`
	fixesPath := filepath.Join(dir, "fixes.yaml")
	require.NoError(t, os.WriteFile(fixesPath, []byte(fixes), 0o600))

	runner := run.NewRunner(
		staticFiles([]domain.ChangedFile{{Path: "main.cc", Patch: "@@ -1,2 +1,2 @@", HasPatch: true}}),
		&fakePoster{}, nil, nil, engine.DefaultMarkers(), nil,
	)

	_, err := runner.Run(context.Background(), baseRequest(dir, fixesPath))
	require.Error(t, err)
	var invariant *engine.InvariantError
	assert.ErrorAs(t, err, &invariant)
}
