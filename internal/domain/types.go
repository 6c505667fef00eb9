package domain

// Level is the severity reported by clang-tidy for a diagnostic.
type Level string

const (
	LevelError   Level = "Error"
	LevelWarning Level = "Warning"
	LevelRemark  Level = "Remark"
)

// Known reports whether the level is one of the documented clang-tidy levels.
// Anything else is carried through unchanged and rendered with the fallback
// marker.
func (l Level) Known() bool {
	switch l {
	case LevelError, LevelWarning, LevelRemark:
		return true
	}
	return false
}

// Rank orders levels for presentation: errors first, then warnings, then
// remarks, then everything unrecognized.
func (l Level) Rank() int {
	switch l {
	case LevelError:
		return 0
	case LevelWarning:
		return 1
	case LevelRemark:
		return 2
	default:
		return 3
	}
}

// Replacement is a byte-range substitution within one file, part of a
// diagnostic's suggested fix. Offset and Length are byte-exact: clang-tidy
// does not decode multibyte text.
type Replacement struct {
	FilePath string
	Offset   int
	Length   int
	Text     string
}

// Diagnostic is one normalized clang-tidy finding. Both wire schemas (the
// flat clang-tidy 8 shape and the nested 9+ shape) are lifted into this form
// at ingestion.
type Diagnostic struct {
	Name         string
	Level        Level
	Message      string
	FilePath     string
	FileOffset   int
	Replacements []Replacement
}

// ChangedFile is one file touched by the reviewed change. Patch holds the
// unified-diff hunk text for the file; HasPatch is false for entries without
// one (removed binaries, for example), which excludes the file from the
// affected-range index.
type ChangedFile struct {
	Path     string
	Patch    string
	HasPatch bool
}

// ReviewComment is one line-anchored review comment produced by the engine,
// shaped for the GitHub pull request reviews API.
type ReviewComment struct {
	Path string `json:"path"`

	// Line is the last (or only) line of the commented range on the new side.
	Line int    `json:"line"`
	Side string `json:"side"`

	// StartLine and StartSide are set only when the range spans more than
	// one line.
	StartLine *int    `json:"start_line,omitempty"`
	StartSide *string `json:"start_side,omitempty"`

	Body string `json:"body"`
}

// SpansMultipleLines reports whether the comment anchors a multi-line range.
func (c ReviewComment) SpansMultipleLines() bool {
	return c.StartLine != nil
}
