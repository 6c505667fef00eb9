package engine

import "github.com/bkyoung/clang-tidy-reviewer/internal/diff"

// Applies reports whether the inclusive line interval [start, end] is fully
// contained in one of the file's changed-line ranges. A range that straddles
// two hunks is rejected: partial overlap would anchor comments on lines the
// reviewed delta never touched.
func Applies(ranges []diff.LineRange, start, end int) (bool, error) {
	if end < start {
		return false, invariantf("", "affected range ends (%d) before it starts (%d)", end, start)
	}

	for _, r := range ranges {
		if r.Contains(start, end) {
			return true, nil
		}
	}

	return false, nil
}
