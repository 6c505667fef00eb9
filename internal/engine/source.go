package engine

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSource reads referenced files from the repository root as raw bytes.
// clang-tidy offsets are byte-based, so content is never decoded; a byte is
// a character. Reads are cached for the lifetime of the source because one
// file may be referenced by many diagnostics in a single run.
type FileSource struct {
	root  string
	cache map[string][]byte
}

// NewFileSource creates a source rooted at the given repository directory.
func NewFileSource(root string) *FileSource {
	return &FileSource{
		root:  root,
		cache: make(map[string][]byte),
	}
}

// Read returns the raw content of the file at the given repository-relative
// path.
func (s *FileSource) Read(relPath string) ([]byte, error) {
	if content, ok := s.cache[relPath]; ok {
		return content, nil
	}

	content, err := os.ReadFile(filepath.Join(s.root, relPath))
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}

	s.cache[relPath] = content
	return content, nil
}
