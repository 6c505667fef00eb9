// Package cli exposes the reviewer through a Cobra command tree. All
// collaborators are injected so the commands stay testable.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/store/sqlite"
	"github.com/bkyoung/clang-tidy-reviewer/internal/usecase/run"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Runner executes one review run.
type Runner interface {
	Run(ctx context.Context, req run.Request) (run.Result, error)
}

// HistoryLister reads past posting runs; nil disables the history command.
type HistoryLister interface {
	ListRuns(ctx context.Context, limit int) ([]sqlite.Run, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Defaults carries config-derived flag defaults.
type Defaults struct {
	Repository            string
	RepositoryRoot        string
	RepositoryDir         string
	SummaryPrefix         string
	SuggestionsPerComment int
	RequestChanges        bool
	AutoResolve           bool
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Runner   Runner
	History  HistoryLister
	Args     Arguments
	Defaults Defaults
	Version  string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "ctr",
		Short: "Post clang-tidy diagnostics as GitHub pull request reviews",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(runCommand(deps.Runner, deps.Defaults))
	if deps.History != nil {
		root.AddCommand(historyCommand(deps.History))
	}

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func runCommand(runner Runner, defaults Defaults) *cobra.Command {
	var fixesPath string
	var repository string
	var pullNumber int
	var repositoryRoot string
	var repositoryDir string
	var baseRef string
	var targetRef string
	var summaryPrefix string
	var requestChanges bool
	var suggestionsPerComment int
	var autoResolve bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Review a pull request against a clang-tidy fixes file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitRepository(repository)
			if err != nil {
				return err
			}
			if pullNumber <= 0 {
				return fmt.Errorf("--pull-request must be a positive integer")
			}
			if (baseRef == "") != (targetRef == "") {
				return fmt.Errorf("--base and --target must be set together")
			}

			result, err := runner.Run(cmd.Context(), run.Request{
				Owner:                 owner,
				Repo:                  repo,
				PullNumber:            pullNumber,
				FixesPath:             fixesPath,
				RepositoryRoot:        repositoryRoot,
				RepositoryDir:         repositoryDir,
				BaseRef:               baseRef,
				TargetRef:             targetRef,
				SummaryPrefix:         summaryPrefix,
				RequestChanges:        requestChanges,
				SuggestionsPerComment: suggestionsPerComment,
				AutoResolve:           autoResolve,
				DryRun:                dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Clean {
				_, _ = fmt.Fprintf(out, "no applicable diagnostics; dismissed %d review(s), resolved %d conversation(s)\n",
					result.ReviewsDismissed, result.ThreadsResolved)
				return nil
			}
			if dryRun {
				_, _ = fmt.Fprintf(out, "dry run: %d comment(s) generated\n", result.CommentsGenerated)
			} else {
				_, _ = fmt.Fprintf(out, "posted %d comment(s) in %d review(s), skipped %d duplicate(s)\n",
					result.CommentsPosted, result.ReviewsCreated, result.DuplicatesSkipped)
			}
			if result.ArtifactPath != "" {
				_, _ = fmt.Fprintf(out, "report written to %s\n", result.ArtifactPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fixesPath, "fixes", "clang-tidy-fixes.yaml", "Path to the clang-tidy exported fixes YAML file")
	cmd.Flags().StringVar(&repository, "repository", defaults.Repository, "Repository in owner/repo form")
	cmd.Flags().IntVar(&pullNumber, "pull-request", 0, "Pull request number")
	cmd.Flags().StringVar(&repositoryRoot, "repository-root", defaults.RepositoryRoot, "Build-time path prefix stripped from diagnostic paths")
	cmd.Flags().StringVar(&repositoryDir, "repository-dir", defaults.RepositoryDir, "Working copy the diagnostics resolve against")
	cmd.Flags().StringVar(&baseRef, "base", "", "Base ref for local-diff mode (bypasses the pull request files API)")
	cmd.Flags().StringVar(&targetRef, "target", "", "Target ref for local-diff mode")
	cmd.Flags().StringVar(&summaryPrefix, "summary-prefix", defaults.SummaryPrefix, "Leading text of every review summary; also identifies reviews to dismiss")
	cmd.Flags().BoolVar(&requestChanges, "request-changes", defaults.RequestChanges, "Submit reviews as REQUEST_CHANGES instead of COMMENT")
	cmd.Flags().IntVar(&suggestionsPerComment, "suggestions-per-comment", defaults.SuggestionsPerComment, "Maximum inline comments per review submission")
	cmd.Flags().BoolVar(&autoResolve, "auto-resolve-conversations", defaults.AutoResolve, "Resolve conversations from earlier runs when their diagnostics clear")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Generate comments without posting them")

	return cmd
}

func historyCommand(history HistoryLister) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded posting runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := history.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(out, "no recorded runs")
				return nil
			}
			for _, r := range runs {
				_, _ = fmt.Fprintf(out, "%s  %s#%d  %d comment(s)\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.Repository, r.PullNumber, r.Comments)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

// splitRepository parses an owner/repo reference.
func splitRepository(repository string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("--repository must be in owner/repo form, got %q", repository)
	}
	return owner, repo, nil
}
