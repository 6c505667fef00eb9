// Package git produces changed-file listings from a local repository, as an
// alternative to the pull request files API when running before push.
package git

import (
	"bytes"
	"fmt"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
)

// Engine reads diffs from a repository working copy via go-git.
type Engine struct {
	repoDir string
}

// NewEngine constructs an engine for the given repository directory. The
// directory may be anywhere inside the working copy.
func NewEngine(repoDir string) *Engine {
	return &Engine{repoDir: repoDir}
}

// ChangedFiles diffs baseRef against targetRef and returns one entry per
// touched file, carrying the unified patch text. Binary files are included
// without patch text so they count as changed but anchor no comments.
func (e *Engine) ChangedFiles(baseRef, targetRef string) ([]domain.ChangedFile, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return nil, fmt.Errorf("resolve base ref %q: %w", baseRef, err)
	}

	targetCommit, err := resolveCommit(repo, targetRef)
	if err != nil {
		return nil, fmt.Errorf("resolve target ref %q: %w", targetRef, err)
	}

	patch, err := baseCommit.Patch(targetCommit)
	if err != nil {
		return nil, fmt.Errorf("compute patch: %w", err)
	}

	files := make([]domain.ChangedFile, 0, len(patch.FilePatches()))
	for _, fp := range patch.FilePatches() {
		cf := domain.ChangedFile{Path: filePath(fp)}
		if !fp.IsBinary() {
			text, err := encodeFilePatch(fp)
			if err != nil {
				return nil, fmt.Errorf("encode patch for %s: %w", cf.Path, err)
			}
			cf.Patch = text
			cf.HasPatch = true
		}
		files = append(files, cf)
	}

	return files, nil
}

// resolveCommit resolves a ref to a commit, trying the ref as given, then as
// a local branch, then as a remote-tracking branch. Shallow CI checkouts
// often have only the remote form.
func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	return nil, lastErr
}

// filePath prefers the new-side path; deletions only have the old side.
func filePath(fp formatdiff.FilePatch) string {
	from, to := fp.Files()
	if to != nil {
		return to.Path()
	}
	if from != nil {
		return from.Path()
	}
	return ""
}

func encodeFilePatch(fp formatdiff.FilePatch) (string, error) {
	var buf bytes.Buffer
	encoder := formatdiff.NewUnifiedEncoder(&buf, formatdiff.DefaultContextLines)
	if err := encoder.Encode(singlePatch{fp: fp}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type singlePatch struct {
	fp formatdiff.FilePatch
}

func (s singlePatch) FilePatches() []formatdiff.FilePatch {
	return []formatdiff.FilePatch{s.fp}
}

func (s singlePatch) Message() string {
	return ""
}
