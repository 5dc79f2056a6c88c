// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package git reads C sources as they were at a git revision, so two
// versions of a file's declaration model can be compared.
package git

import (
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"gitlab.com/tozd/go/errors"
)

// ErrNoGit is returned when the directory is not inside a git repository.
var ErrNoGit = errors.New("not a git repository")

// ErrUnknownRevision is returned when a revision does not resolve to a
// commit.
var ErrUnknownRevision = errors.New("unknown revision")

// ErrNotInRevision is returned when a file does not exist at a revision.
var ErrNotInRevision = errors.New("file not present at revision")

// ErrOutsideRepo is returned for paths outside the repository's worktree.
var ErrOutsideRepo = errors.New("path outside repository")

// Revision identifies the commit a file was read from.
type Revision struct {
	Hash    string // Full commit hash
	Summary string // First line of the commit message
}

// Short returns the abbreviated hash.
func (r Revision) Short() string {
	if len(r.Hash) > 7 {
		return r.Hash[:7]
	}
	return r.Hash
}

// Repo wraps a go-git repository for the operations we need.
type Repo struct {
	repo *gogit.Repository
	root string
}

// Open opens the git repository containing dir, searching parent
// directories. Returns ErrNoGit if there is none.
func Open(dir string) (*Repo, error) {
	r, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.Errorf("%w: %v", ErrNoGit, err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, errors.Errorf("%w: %v", ErrNoGit, err)
	}
	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		root = wt.Filesystem.Root()
	}
	return &Repo{repo: r, root: root}, nil
}

// Root returns the worktree root.
func (r *Repo) Root() string {
	return r.root
}

// RelPath returns path relative to the worktree root, slash-separated.
func (r *Repo) RelPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(resolved, filepath.Base(abs))
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("%w: %s", ErrOutsideRepo, path)
	}
	return filepath.ToSlash(rel), nil
}

// ReadFile returns the content of path at rev, which may be anything
// go-git resolves: a branch, a tag, a hash, or HEAD~1.
func (r *Repo) ReadFile(rev, path string) ([]byte, Revision, error) {
	rel, err := r.RelPath(path)
	if err != nil {
		return nil, Revision{}, err
	}
	commit, err := r.commit(rev)
	if err != nil {
		return nil, Revision{}, err
	}
	info := Revision{Hash: commit.Hash.String(), Summary: firstLineOf(commit.Message)}

	file, err := commit.File(rel)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, info, errors.Errorf("%w: %s at %s", ErrNotInRevision, rel, info.Short())
	}
	if err != nil {
		return nil, info, errors.Errorf("reading %s at %s: %w", rel, info.Short(), err)
	}
	content, err := file.Contents()
	if err != nil {
		return nil, info, errors.Errorf("reading %s at %s: %w", rel, info.Short(), err)
	}
	return []byte(content), info, nil
}

// IsModified reports whether path differs from the index or HEAD in the
// working tree, untracked files included.
func (r *Repo) IsModified(path string) (bool, error) {
	rel, err := r.RelPath(path)
	if err != nil {
		return false, err
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, errors.Errorf("getting worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, errors.Errorf("getting status: %w", err)
	}
	fs, ok := status[rel]
	if !ok {
		return false, nil
	}
	return fs.Worktree != gogit.Unmodified || fs.Staging != gogit.Unmodified, nil
}

func (r *Repo) commit(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, errors.Errorf("%w: %s: %v", ErrUnknownRevision, rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.Errorf("%w: %s: %v", ErrUnknownRevision, rev, err)
	}
	return commit, nil
}

func firstLineOf(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
