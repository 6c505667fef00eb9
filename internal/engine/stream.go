package engine

import (
	"context"

	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
)

// CommentStream is a single-pass, forward-only sequence of review comments.
// It follows the bufio.Scanner idiom: Next advances to the following
// comment, Comment returns it, and Err reports the fatal error (if any) that
// stopped the stream. Callers wanting early termination simply stop calling
// Next.
type CommentStream struct {
	ctx      context.Context
	pipeline *Pipeline
	diags    []domain.Diagnostic

	idx     int
	pending []domain.ReviewComment
	current domain.ReviewComment
	err     error
	done    bool
}

// Next advances the stream to the next comment. It returns false when the
// stream is exhausted or a fatal error occurred; distinguish the two with
// Err.
func (s *CommentStream) Next() bool {
	if s.done {
		return false
	}

	for {
		if len(s.pending) > 0 {
			s.current = s.pending[0]
			s.pending = s.pending[1:]
			return true
		}

		if s.idx >= len(s.diags) {
			s.done = true
			return false
		}

		d := s.diags[s.idx]
		s.idx++

		comments, err := s.pipeline.commentsFor(s.ctx, d)
		if err != nil {
			s.err = err
			s.done = true
			return false
		}
		s.pending = comments
	}
}

// Comment returns the comment produced by the last successful Next call.
func (s *CommentStream) Comment() domain.ReviewComment {
	return s.current
}

// Err returns the fatal error that terminated the stream, or nil on clean
// exhaustion.
func (s *CommentStream) Err() error {
	return s.err
}

// Collect drains the stream into a slice.
func (s *CommentStream) Collect() ([]domain.ReviewComment, error) {
	var comments []domain.ReviewComment
	for s.Next() {
		comments = append(comments, s.Comment())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}
