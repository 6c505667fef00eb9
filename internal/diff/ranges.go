// Package diff maps unified-diff hunk headers to the new-side line ranges a
// change touches.
//
// Only hunk headers are consumed; the hunk bodies are irrelevant because the
// engine anchors comments by line number, not by diff position. Ranges are
// half-open on the new side and kept in header order, never merged.
package diff

import (
	"regexp"
	"strconv"

	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
)

// LineRange is a contiguous interval [Start, End) of new-side line numbers.
type LineRange struct {
	Start int
	End   int
}

// Contains reports whether the inclusive line interval [start, end] lies
// entirely within the range.
func (r LineRange) Contains(start, end int) bool {
	return r.Start <= start && end < r.End
}

// Index maps a file path to the ordered list of line ranges its hunks cover.
// A file absent from the index is not part of the reviewed change.
type Index map[string][]LineRange

// hunkHeader matches "@@ -a,b +c,d @@" headers; only the new side is captured.
var hunkHeader = regexp.MustCompile(`(?m)^@@ -[0-9]+(?:,[0-9]+)? \+([0-9]+)(?:,([0-9]+))? @@`)

// BuildIndex parses the hunk headers of every changed file into an Index.
// Files without patch text (removed binaries and the like) are skipped.
func BuildIndex(files []domain.ChangedFile) Index {
	index := make(Index)

	for _, file := range files {
		if !file.HasPatch {
			continue
		}

		ranges := []LineRange{}
		for _, match := range hunkHeader.FindAllStringSubmatch(file.Patch, -1) {
			start, err := strconv.Atoi(match[1])
			if err != nil {
				// Unreachable for digits-only captures.
				continue
			}

			length := 1
			if match[2] != "" {
				length, err = strconv.Atoi(match[2])
				if err != nil {
					continue
				}
			}

			ranges = append(ranges, LineRange{Start: start, End: start + length})
		}

		index[file.Path] = ranges
	}

	return index
}
