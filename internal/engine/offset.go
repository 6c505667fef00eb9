package engine

import "bytes"

// LineForOffset resolves a byte offset within content to a 1-based line
// number by counting the newlines that precede it. Offsets outside the
// content are clamped to its bounds.
func LineForOffset(content []byte, offset int) int {
	if offset < 0 {
		offset = 0
	}
	if offset > len(content) {
		offset = len(content)
	}

	return bytes.Count(content[:offset], []byte{'\n'}) + 1
}
