package engine

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
)

// docBaseURL is the upstream documentation root for clang-tidy checks.
const docBaseURL = "https://clang.llvm.org/extra/clang-tidy/checks"

// markdownChars are the metacharacters escaped in rendered messages.
const markdownChars = "\\`*_{}[]<>()#+-.!|"

// quotedSpan matches clang-tidy's identifier quoting convention.
var quotedSpan = regexp.MustCompile(`'([^']*)'`)

// Markdown escapes markdown metacharacters in a diagnostic message, then
// renders single-quoted spans as inline code with their original characters
// restored.
func Markdown(s string) string {
	s = escapeMarkdown(s)
	return quotedSpan.ReplaceAllStringFunc(s, func(match string) string {
		inner := match[1 : len(match)-1]
		return "`` " + unescapeMarkdown(inner) + " ``"
	})
}

func escapeMarkdown(s string) string {
	for _, ch := range markdownChars {
		s = strings.ReplaceAll(s, string(ch), "\\"+string(ch))
	}
	return s
}

func unescapeMarkdown(s string) string {
	for _, ch := range markdownChars {
		s = strings.ReplaceAll(s, "\\"+string(ch), string(ch))
	}
	return s
}

// diagnosticNameVisual renders the check name in bold, hyperlinked to its
// documentation page when the name carries a namespace segment.
func diagnosticNameVisual(name string) string {
	visual := "**" + Markdown(name) + "**"

	dash := strings.Index(name, "-")
	if dash < 0 {
		return visual
	}

	namespace := url.QueryEscape(name[:dash])
	check := url.QueryEscape(name[dash+1:])
	return fmt.Sprintf("[%s](%s/%s/%s.html)", visual, docBaseURL, namespace, check)
}

// RenderComment formats one diagnostic occurrence into a review comment.
// replacementText nil means a point diagnostic without a suggested fix; a
// non-nil value (possibly empty for a deletion) is emitted as a suggestion
// block that is guaranteed to end with a newline.
func RenderComment(d domain.Diagnostic, file string, startLine, endLine int, replacementText *string, markers Markers) domain.ReviewComment {
	marker := markers.For(d.Level)

	var body strings.Builder
	fmt.Fprintf(&body, "%s %s %s\n", marker, diagnosticNameVisual(d.Name), marker)
	body.WriteString(Markdown(d.Message))

	if replacementText != nil {
		text := *replacementText
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		fmt.Fprintf(&body, "\n```suggestion\n%s```", text)
	}

	comment := domain.ReviewComment{
		Path: file,
		Line: endLine,
		Side: "RIGHT",
		Body: body.String(),
	}

	if startLine != endLine {
		start := startLine
		side := "RIGHT"
		comment.StartLine = &start
		comment.StartSide = &side
	}

	return comment
}
