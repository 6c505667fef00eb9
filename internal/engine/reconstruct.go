package engine

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
)

// Edit is a line-level rendition of a replacement batch: replace original
// lines [StartLine, EndLine] with Text. Text may be empty for a pure
// deletion.
type Edit struct {
	StartLine int
	EndLine   int
	Text      string
}

// editScan accumulates one in-progress edit while walking diff lines.
// States: idle (no open edit), removing (a deleted region is open). The
// pending-text flag is orthogonal: a pure insertion carries text without
// ever opening a removal.
type editScan struct {
	line     int // current original-side line number, 1-based
	start    int
	end      int
	removing bool
	hasText  bool
	text     strings.Builder
}

func (s *editScan) reset() {
	s.start = 0
	s.end = 0
	s.removing = false
	s.hasText = false
	s.text.Reset()
}

// Reconstruct turns a batch of byte-offset replacements for one file into
// line-level edits. The replacements are applied to the original content and
// the result is line-diffed against it; walking the diff yields both the
// affected line range and the exact replacement text in one pass.
// Non-contiguous replacements produce multiple discrete edits.
func Reconstruct(file string, original []byte, reps []domain.Replacement) ([]Edit, error) {
	patched, err := applyReplacements(file, original, reps)
	if err != nil {
		return nil, err
	}

	return scanEdits(file, string(original), patched)
}

// applyReplacements substitutes each byte range in descending offset order,
// so earlier offsets are never invalidated by later edits.
func applyReplacements(file string, original []byte, reps []domain.Replacement) (string, error) {
	ordered := make([]domain.Replacement, len(reps))
	copy(ordered, reps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Offset > ordered[j].Offset
	})

	content := string(original)
	for _, rep := range ordered {
		if rep.Offset < 0 || rep.Length < 0 || rep.Offset+rep.Length > len(content) {
			return "", invariantf(file, "replacement range [%d, %d) outside content of %d bytes",
				rep.Offset, rep.Offset+rep.Length, len(content))
		}
		content = content[:rep.Offset] + rep.Text + content[rep.Offset+rep.Length:]
	}

	return content, nil
}

// scanEdits line-diffs original against patched content and folds the diff
// into discrete edits via an explicit state machine over the original-side
// line counter.
func scanEdits(file, original, patched string) ([]Edit, error) {
	dmp := diffmatchpatch.New()
	a, b, lineIndex := dmp.DiffLinesToChars(original, patched)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineIndex)

	var edits []Edit
	scan := editScan{line: 1}

	for _, d := range diffs {
		for _, line := range splitLinesKeepEnds(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				// Begin or extend the region to replace.
				if !scan.removing {
					scan.removing = true
					scan.start = scan.line
				}
				scan.end = scan.line
				scan.hasText = true
				scan.line++

			case diffmatchpatch.DiffInsert:
				// Inserted lines have no original-side number; they only
				// contribute replacement text.
				scan.hasText = true
				scan.text.WriteString(line)

			case diffmatchpatch.DiffEqual:
				if scan.hasText {
					if !scan.removing {
						// Pure insertion: anchor on this unchanged line and
						// re-emit it at the end of the suggestion.
						scan.start = scan.line
						scan.end = scan.line
						scan.text.WriteString(line)
					}
					edits = append(edits, Edit{StartLine: scan.start, EndLine: scan.end, Text: scan.text.String()})
					scan.reset()
				}
				scan.line++

			default:
				return nil, invariantf(file, "unknown diff line classification %d", d.Type)
			}
		}
	}

	if scan.hasText {
		if !scan.removing {
			// A trailing insertion with no anchor line cannot be expressed
			// as a line replacement.
			return nil, invariantf(file, "pure insertion at end of file is not supported")
		}
		edits = append(edits, Edit{StartLine: scan.start, EndLine: scan.end, Text: scan.text.String()})
	}

	return edits, nil
}

// splitLinesKeepEnds splits text into lines, each retaining its trailing
// newline. A final fragment without a newline is kept as-is.
func splitLinesKeepEnds(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return lines
}
