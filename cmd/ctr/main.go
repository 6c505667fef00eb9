package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/cli"
	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/git"
	githubadapter "github.com/bkyoung/clang-tidy-reviewer/internal/adapter/github"
	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/observability"
	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/output/markdown"
	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/rest"
	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/store/sqlite"
	"github.com/bkyoung/clang-tidy-reviewer/internal/config"
	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
	"github.com/bkyoung/clang-tidy-reviewer/internal/usecase/post"
	"github.com/bkyoung/clang-tidy-reviewer/internal/usecase/resolve"
	"github.com/bkyoung/clang-tidy-reviewer/internal/usecase/run"
	"github.com/bkyoung/clang-tidy-reviewer/internal/version"
)

func main() {
	if err := realMain(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func realMain() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "ctr",
		EnvPrefix:   "CTR",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger := buildLogger(cfg.Observability)

	token := githubToken()
	client := githubadapter.NewClient(token)
	client.SetBaseURL(cfg.GitHub.APIURL)
	client.SetGraphQLURL(cfg.GitHub.GraphQLURL)
	if timeout, err := time.ParseDuration(cfg.GitHub.Timeout); err == nil {
		client.SetTimeout(timeout)
	}
	client.SetRetryConfig(buildRetryConfig(cfg.GitHub))

	var historyStore post.HistoryStore
	var historyLister cli.HistoryLister
	if cfg.Store.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else if store, err := sqlite.NewStore(cfg.Store.Path); err != nil {
			log.Printf("warning: failed to initialize store: %v", err)
		} else {
			defer store.Close()
			historyStore = store
			historyLister = store
		}
	}

	var reporter run.Reporter
	if cfg.Output.Enabled {
		reporter = &reportWriter{
			dir: cfg.Output.Directory,
			writer: markdown.NewWriter(func() string {
				return time.Now().UTC().Format("20060102T150405Z")
			}),
		}
	}

	poster := post.NewPoster(client, historyStore, logger)
	resolver := resolve.NewResolver(client, cfg.Markers, cfg.Review.BotUsername, logger)

	files := func(ctx context.Context, req run.Request) ([]domain.ChangedFile, error) {
		if req.BaseRef != "" && req.TargetRef != "" {
			return git.NewEngine(req.RepositoryDir).ChangedFiles(req.BaseRef, req.TargetRef)
		}
		prFiles, err := client.ListPullRequestFiles(ctx, req.Owner, req.Repo, req.PullNumber)
		if err != nil {
			return nil, err
		}
		changed := make([]domain.ChangedFile, 0, len(prFiles))
		for _, f := range prFiles {
			changed = append(changed, f.ChangedFile())
		}
		return changed, nil
	}

	runner := run.NewRunner(files, poster, resolver, reporter, cfg.Markers, logger)

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:  runner,
		History: historyLister,
		Defaults: cli.Defaults{
			Repository:            os.Getenv("GITHUB_REPOSITORY"),
			RepositoryRoot:        cfg.Repository.Root,
			RepositoryDir:         cfg.Repository.Dir,
			SummaryPrefix:         cfg.Review.SummaryPrefix,
			SuggestionsPerComment: cfg.Review.SuggestionsPerComment,
			RequestChanges:        cfg.Review.RequestChanges,
			AutoResolve:           cfg.Review.AutoResolveConversations,
		},
		Version: version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// githubToken prefers the actions-style INPUT_ variable over the ambient one.
func githubToken() string {
	if token := os.Getenv("INPUT_GITHUB_TOKEN"); token != "" {
		return token
	}
	return os.Getenv("GITHUB_TOKEN")
}

// buildLogger maps logging config to a logger. The "auto" format picks the
// human form on a terminal and JSON when output is captured.
func buildLogger(cfg config.ObservabilityConfig) *observability.DefaultLogger {
	format := cfg.Logging.Format
	if format == "auto" {
		if term.IsTerminal(int(os.Stderr.Fd())) {
			format = "human"
		} else {
			format = "json"
		}
	}
	return observability.NewDefaultLogger(
		observability.ParseLevel(cfg.Logging.Level),
		observability.ParseFormat(format),
	)
}

func buildRetryConfig(cfg config.GitHubConfig) rest.RetryConfig {
	conf := rest.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		conf.MaxRetries = cfg.MaxRetries
	}
	if d, err := time.ParseDuration(cfg.InitialBackoff); err == nil {
		conf.InitialBackoff = d
	}
	if d, err := time.ParseDuration(cfg.MaxBackoff); err == nil {
		conf.MaxBackoff = d
	}
	if cfg.BackoffMultiplier > 0 {
		conf.Multiplier = cfg.BackoffMultiplier
	}
	return conf
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ctr"))
	}
	return paths
}

// reportWriter injects the configured output directory into each artifact.
type reportWriter struct {
	dir    string
	writer *markdown.Writer
}

func (r *reportWriter) Write(artifact markdown.Artifact) (string, error) {
	artifact.OutputDir = r.dir
	return r.writer.Write(artifact)
}

// Compile-time interface compliance checks
var _ cli.Runner = (*run.Runner)(nil)
var _ run.Poster = (*post.Poster)(nil)
var _ run.Resolver = (*resolve.Resolver)(nil)
var _ post.ReviewClient = (*githubadapter.Client)(nil)
var _ resolve.Client = (*githubadapter.Client)(nil)
var _ post.HistoryStore = (*sqlite.Store)(nil)
