// Package run orchestrates one end-to-end review: index the changed lines,
// ingest the clang-tidy report, stream comments through the engine, post
// them, and clean up review state left by earlier runs.
package run

import (
	"context"
	"fmt"

	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/output/markdown"
	"github.com/bkyoung/clang-tidy-reviewer/internal/diff"
	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
	"github.com/bkyoung/clang-tidy-reviewer/internal/engine"
	"github.com/bkyoung/clang-tidy-reviewer/internal/tidy"
	"github.com/bkyoung/clang-tidy-reviewer/internal/usecase/post"
)

// FileSource lists the files touched by the reviewed change, from the pull
// request files API or a local git diff.
type FileSource func(ctx context.Context, req Request) ([]domain.ChangedFile, error)

// Poster is the slice of the posting use case the runner needs.
type Poster interface {
	Post(ctx context.Context, req post.Request) (*post.Result, error)
}

// Resolver cleans up review state from earlier runs; optional.
type Resolver interface {
	DismissStaleReviews(ctx context.Context, owner, repo string, number int, summaryPrefix string) (int, error)
	ResolveConversations(ctx context.Context, owner, repo string, number int) (int, error)
}

// Reporter writes the local run artifact; optional.
type Reporter interface {
	Write(artifact markdown.Artifact) (string, error)
}

// Runner wires the engine to its adapters for one review run.
type Runner struct {
	files    FileSource
	poster   Poster
	resolver Resolver
	reporter Reporter
	markers  engine.Markers
	logger   engine.Logger
}

// NewRunner creates a runner. resolver, reporter, and logger may be nil.
func NewRunner(files FileSource, poster Poster, resolver Resolver, reporter Reporter, markers engine.Markers, logger engine.Logger) *Runner {
	return &Runner{
		files:    files,
		poster:   poster,
		resolver: resolver,
		reporter: reporter,
		markers:  markers,
		logger:   logger,
	}
}

// Request carries the parameters of one review run.
type Request struct {
	Owner      string
	Repo       string
	PullNumber int

	// FixesPath is the clang-tidy exported-fixes YAML file.
	FixesPath string

	// RepositoryRoot is the build-time path prefix stripped from
	// diagnostic paths.
	RepositoryRoot string

	// RepositoryDir is the working copy diagnostics resolve against.
	RepositoryDir string

	// BaseRef and TargetRef select the local-diff mode: when both are set,
	// changed files come from a git diff in RepositoryDir instead of the
	// pull request files API.
	BaseRef   string
	TargetRef string

	SummaryPrefix         string
	RequestChanges        bool
	SuggestionsPerComment int
	AutoResolve           bool

	// DryRun generates comments and the artifact without posting.
	DryRun bool
}

// Result summarizes a run.
type Result struct {
	CommentsGenerated int
	CommentsPosted    int
	DuplicatesSkipped int
	ReviewsCreated    int
	ReviewsDismissed  int
	ThreadsResolved   int
	ArtifactPath      string

	// Clean is true when the report produced no applicable comments.
	Clean bool
}

// Run executes one review.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	files, err := r.files(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("list changed files: %w", err)
	}
	index := diff.BuildIndex(files)

	report, err := tidy.Load(req.FixesPath)
	if err != nil {
		return Result{}, fmt.Errorf("load fixes: %w", err)
	}

	if report.Empty() {
		r.logInfo(ctx, "no diagnostics reported", map[string]interface{}{
			"fixes": req.FixesPath,
		})
		return r.finishClean(ctx, req, nil)
	}

	pipeline := engine.NewPipeline(index, engine.NewFileSource(req.RepositoryDir), r.markers, req.RepositoryRoot, r.logger)
	comments, err := pipeline.Stream(ctx, report.Diagnostics).Collect()
	if err != nil {
		return Result{}, fmt.Errorf("generate comments: %w", err)
	}

	if len(comments) == 0 {
		r.logInfo(ctx, "no diagnostics apply to the changed lines", map[string]interface{}{
			"diagnostics": len(report.Diagnostics),
		})
		return r.finishClean(ctx, req, report)
	}

	result := Result{CommentsGenerated: len(comments)}
	result.ArtifactPath = r.writeArtifact(ctx, req, report, comments)

	if req.DryRun {
		r.logInfo(ctx, "dry run, not posting", map[string]interface{}{
			"comments": len(comments),
		})
		return result, nil
	}

	posted, err := r.poster.Post(ctx, post.Request{
		Owner:                 req.Owner,
		Repo:                  req.Repo,
		PullNumber:            req.PullNumber,
		Comments:              comments,
		SummaryPrefix:         req.SummaryPrefix,
		RequestChanges:        req.RequestChanges,
		SuggestionsPerComment: req.SuggestionsPerComment,
	})
	if err != nil {
		return result, fmt.Errorf("post comments: %w", err)
	}

	result.CommentsPosted = posted.CommentsPosted
	result.DuplicatesSkipped = posted.DuplicatesSkipped
	result.ReviewsCreated = posted.ReviewsCreated
	return result, nil
}

// finishClean handles the no-comment outcome: previous review state is
// unwound so an already-reviewed pull request comes back clean.
func (r *Runner) finishClean(ctx context.Context, req Request, report *tidy.Report) (Result, error) {
	result := Result{Clean: true}
	result.ArtifactPath = r.writeArtifact(ctx, req, report, nil)

	if req.DryRun || r.resolver == nil {
		return result, nil
	}

	dismissed, err := r.resolver.DismissStaleReviews(ctx, req.Owner, req.Repo, req.PullNumber, req.SummaryPrefix)
	if err != nil {
		return result, fmt.Errorf("dismiss stale reviews: %w", err)
	}
	result.ReviewsDismissed = dismissed

	if req.AutoResolve {
		resolved, err := r.resolver.ResolveConversations(ctx, req.Owner, req.Repo, req.PullNumber)
		if err != nil {
			return result, fmt.Errorf("resolve conversations: %w", err)
		}
		result.ThreadsResolved = resolved
	}

	return result, nil
}

// writeArtifact writes the local report when a reporter is configured.
// Failures are logged, not fatal: the artifact is a convenience.
func (r *Runner) writeArtifact(ctx context.Context, req Request, report *tidy.Report, comments []domain.ReviewComment) string {
	if r.reporter == nil {
		return ""
	}

	counts := make(map[domain.Level]int)
	if report != nil {
		for _, d := range report.Diagnostics {
			counts[d.Level]++
		}
	}

	path, err := r.reporter.Write(markdown.Artifact{
		Repository: req.Owner + "/" + req.Repo,
		PullNumber: req.PullNumber,
		Counts:     counts,
		Comments:   comments,
	})
	if err != nil {
		r.logWarning(ctx, "failed to write artifact", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	return path
}

func (r *Runner) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if r.logger != nil {
		r.logger.LogInfo(ctx, msg, fields)
	}
}

func (r *Runner) logWarning(ctx context.Context, msg string, fields map[string]interface{}) {
	if r.logger != nil {
		r.logger.LogWarning(ctx, msg, fields)
	}
}
