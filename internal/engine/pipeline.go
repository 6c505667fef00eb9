// Package engine translates byte-offset clang-tidy diagnostics into
// line-anchored review comments restricted to the lines a change touches.
//
// The engine is pure plumbing over caller-supplied inputs: it reads file
// content from a FileSource, performs in-memory diffing, and produces a
// single-pass stream of comments. It never talks to a network and keeps no
// state across runs.
package engine

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/bkyoung/clang-tidy-reviewer/internal/diff"
	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
)

// Logger receives structured progress and skip messages from the pipeline.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// Pipeline orchestrates offset resolution, replacement reconstruction,
// applicability filtering, and rendering for a batch of diagnostics.
type Pipeline struct {
	ranges  diff.Index
	source  *FileSource
	markers Markers
	logger  Logger
	root    string
}

// NewPipeline builds a pipeline over a prebuilt affected-range index.
// root is the repository root prefix stripped from diagnostic paths; logger
// may be nil.
func NewPipeline(ranges diff.Index, source *FileSource, markers Markers, root string, logger Logger) *Pipeline {
	return &Pipeline{
		ranges:  ranges,
		source:  source,
		markers: markers,
		logger:  logger,
		root:    rootPrefix(root),
	}
}

// rootPrefix normalizes the configured repository root into the prefix form
// diagnostics carry.
func rootPrefix(root string) string {
	if root == "" {
		return ""
	}
	return strings.TrimSuffix(root, "/") + "/"
}

// Stream normalizes and orders the diagnostics, then returns a lazy,
// forward-only stream of review comments. File content is read only as the
// stream is consumed.
func (p *Pipeline) Stream(ctx context.Context, diags []domain.Diagnostic) *CommentStream {
	ordered := p.normalize(ctx, diags)
	return &CommentStream{ctx: ctx, pipeline: p, diags: ordered}
}

// normalize strips the repository root from every path and orders the
// diagnostics by severity. The input slice is not modified.
func (p *Pipeline) normalize(ctx context.Context, diags []domain.Diagnostic) []domain.Diagnostic {
	out := make([]domain.Diagnostic, len(diags))
	unknown := 0

	for i, d := range diags {
		d.FilePath = p.normalizePath(d.FilePath)
		reps := make([]domain.Replacement, len(d.Replacements))
		for j, r := range d.Replacements {
			r.FilePath = p.normalizePath(r.FilePath)
			reps[j] = r
		}
		d.Replacements = reps
		if !d.Level.Known() {
			unknown++
		}
		out[i] = d
	}

	if unknown > 0 {
		p.logWarning(ctx, "diagnostics with unexpected level", map[string]interface{}{
			"count": unknown,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Level.Rank() < out[j].Level.Rank()
	})

	return out
}

func (p *Pipeline) normalizePath(filePath string) string {
	if p.root != "" {
		filePath = strings.ReplaceAll(filePath, p.root, "")
	}
	return path.Clean(filePath)
}

// commentsFor produces every comment a single diagnostic contributes.
// Out-of-scope diagnostics contribute none and only log; invariant
// violations and read failures abort the stream.
func (p *Pipeline) commentsFor(ctx context.Context, d domain.Diagnostic) ([]domain.ReviewComment, error) {
	if len(d.Replacements) == 0 {
		return p.pointComment(ctx, d)
	}
	return p.replacementComments(ctx, d)
}

// pointComment anchors a no-fix diagnostic on the single line its offset
// resolves to.
func (p *Pipeline) pointComment(ctx context.Context, d domain.Diagnostic) ([]domain.ReviewComment, error) {
	ranges, ok := p.ranges[d.FilePath]
	if !ok {
		p.logInfo(ctx, "diagnostic does not apply to the files changed", map[string]interface{}{
			"check": d.Name,
			"file":  d.FilePath,
		})
		return nil, nil
	}

	content, err := p.source.Read(d.FilePath)
	if err != nil {
		return nil, err
	}

	line := LineForOffset(content, d.FileOffset)
	p.logInfo(ctx, "processing diagnostic", map[string]interface{}{
		"check": d.Name,
		"file":  d.FilePath,
		"line":  line,
	})

	applies, err := Applies(ranges, line, line)
	if err != nil {
		return nil, err
	}
	if !applies {
		p.logInfo(ctx, "diagnostic does not apply to the lines changed", map[string]interface{}{
			"check": d.Name,
			"file":  d.FilePath,
			"line":  line,
		})
		return nil, nil
	}

	return []domain.ReviewComment{RenderComment(d, d.FilePath, line, line, nil, p.markers)}, nil
}

// replacementComments reconstructs line edits per affected file and renders
// one comment per applicable edit. Files are visited in sorted order so two
// runs over identical input yield identical comment sequences.
func (p *Pipeline) replacementComments(ctx context.Context, d domain.Diagnostic) ([]domain.ReviewComment, error) {
	var comments []domain.ReviewComment

	for _, file := range replacementFiles(d.Replacements) {
		ranges, ok := p.ranges[file]
		if !ok {
			p.logInfo(ctx, "diagnostic does not apply to the files changed", map[string]interface{}{
				"check": d.Name,
				"file":  file,
			})
			continue
		}

		content, err := p.source.Read(file)
		if err != nil {
			return nil, err
		}

		edits, err := Reconstruct(file, content, replacementsFor(d.Replacements, file))
		if err != nil {
			return nil, err
		}

		for _, edit := range edits {
			p.logInfo(ctx, "processing diagnostic", map[string]interface{}{
				"check":      d.Name,
				"file":       file,
				"start_line": edit.StartLine,
				"end_line":   edit.EndLine,
			})

			applies, err := Applies(ranges, edit.StartLine, edit.EndLine)
			if err != nil {
				return nil, err
			}
			if !applies {
				p.logInfo(ctx, "diagnostic does not apply to the lines changed", map[string]interface{}{
					"check": d.Name,
					"file":  file,
				})
				continue
			}

			text := edit.Text
			comments = append(comments, RenderComment(d, file, edit.StartLine, edit.EndLine, &text, p.markers))
		}
	}

	return comments, nil
}

// replacementFiles returns the distinct file paths of a replacement batch in
// sorted order.
func replacementFiles(reps []domain.Replacement) []string {
	seen := make(map[string]bool, len(reps))
	var files []string
	for _, r := range reps {
		if !seen[r.FilePath] {
			seen[r.FilePath] = true
			files = append(files, r.FilePath)
		}
	}
	sort.Strings(files)
	return files
}

func replacementsFor(reps []domain.Replacement, file string) []domain.Replacement {
	var out []domain.Replacement
	for _, r := range reps {
		if r.FilePath == file {
			out = append(out, r)
		}
	}
	return out
}

func (p *Pipeline) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.LogInfo(ctx, msg, fields)
	}
}

func (p *Pipeline) logWarning(ctx context.Context, msg string, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.LogWarning(ctx, msg, fields)
	}
}
