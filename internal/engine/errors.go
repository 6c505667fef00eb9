package engine

import "fmt"

// InvariantError marks malformed upstream data or an edit shape the engine
// cannot represent. It is fatal: the run must abort rather than silently
// dropping or guessing. Recoverable conditions (out-of-scope diagnostics,
// unknown severity levels) are logged skips, never InvariantErrors.
type InvariantError struct {
	Reason string
	File   string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("invariant violation: %s", e.Reason)
	}
	return fmt.Sprintf("invariant violation in %s: %s", e.File, e.Reason)
}

// Is matches any other InvariantError, so errors.Is can distinguish the
// fatal class from recoverable failures without comparing reasons.
func (e *InvariantError) Is(target error) bool {
	_, ok := target.(*InvariantError)
	return ok
}

func invariantf(file, format string, args ...any) *InvariantError {
	return &InvariantError{Reason: fmt.Sprintf(format, args...), File: file}
}
