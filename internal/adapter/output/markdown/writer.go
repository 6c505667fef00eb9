// Package markdown writes a run report to disk, a local artifact of what the
// run produced regardless of whether anything was posted.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
)

type clock func() string

// Artifact is everything the report needs about one run.
type Artifact struct {
	OutputDir  string
	Repository string
	PullNumber int

	// Counts holds how many diagnostics of each severity produced comments.
	Counts map[domain.Level]int

	Comments []domain.ReviewComment
}

// Writer renders run reports into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a writer with a timestamp supplier, injected so tests
// get stable filenames.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists the report and returns its path.
func (w *Writer) Write(artifact Artifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_pr%d_%s.md",
		sanitise(artifact.Repository),
		artifact.PullNumber,
		w.now(),
	)
	path := filepath.Join(artifact.OutputDir, filename)

	if err := os.WriteFile(path, []byte(buildContent(artifact)), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(artifact Artifact) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# Clang-Tidy Review Report\n\n")
	builder.WriteString(fmt.Sprintf("- Repository: %s\n", artifact.Repository))
	builder.WriteString(fmt.Sprintf("- Pull request: #%d\n\n", artifact.PullNumber))

	if len(artifact.Comments) == 0 {
		builder.WriteString("No diagnostics apply to the changed lines.\n")
		return builder.String()
	}

	builder.WriteString("## Diagnostics\n\n")
	for _, level := range []domain.Level{domain.LevelError, domain.LevelWarning, domain.LevelRemark} {
		if n := artifact.Counts[level]; n > 0 {
			builder.WriteString(fmt.Sprintf("- %s: %d\n", caser.String(strings.ToLower(string(level))), n))
		}
	}
	builder.WriteString("\n## Comments\n\n")

	for _, comment := range artifact.Comments {
		if comment.SpansMultipleLines() {
			builder.WriteString(fmt.Sprintf("### %s:%d-%d\n\n", comment.Path, *comment.StartLine, comment.Line))
		} else {
			builder.WriteString(fmt.Sprintf("### %s:%d\n\n", comment.Path, comment.Line))
		}
		builder.WriteString(comment.Body)
		if !strings.HasSuffix(comment.Body, "\n") {
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "/", "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
