// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_ValidRepo(t *testing.T) {
	dir := initTestRepo(t)

	repo, err := Open(dir)
	require.NoError(t, err)
	assert.NotNil(t, repo)
}

func TestOpen_Subdirectory(t *testing.T) {
	dir := initTestRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "core"), 0o755))

	repo, err := Open(filepath.Join(dir, "src", "core"))
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, repo.Root())
}

func TestOpen_NotARepo(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(dir)
	assert.ErrorIs(t, err, ErrNoGit)
}

func TestRelPath(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(dir)
	require.NoError(t, err)

	rel, err := repo.RelPath(filepath.Join(dir, "src", "point.c"))
	require.NoError(t, err)
	assert.Equal(t, "src/point.c", rel)

	_, err = repo.RelPath(filepath.Join(t.TempDir(), "other.c"))
	assert.ErrorIs(t, err, ErrOutsideRepo)
}

func TestReadFile(t *testing.T) {
	dir := initTestRepo(t)
	addFileAndCommit(t, dir, "point.h", "struct Point { int x; };\n", "add point\n\nwith x only")
	addFileAndCommit(t, dir, "point.h", "struct Point { int x; int y; };\n", "add y")

	repo, err := Open(dir)
	require.NoError(t, err)
	path := filepath.Join(dir, "point.h")

	tests := []struct {
		name        string
		rev         string
		wantContent string
		wantSummary string
	}{
		{"head", "HEAD", "struct Point { int x; int y; };\n", "add y"},
		{"parent", "HEAD~1", "struct Point { int x; };\n", "add point"},
		{"branch", "master", "struct Point { int x; int y; };\n", "add y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, rev, err := repo.ReadFile(tt.rev, path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, string(content))
			assert.Equal(t, tt.wantSummary, rev.Summary)
			assert.Len(t, rev.Hash, 40)
			assert.Len(t, rev.Short(), 7)
		})
	}
}

func TestReadFile_Errors(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(dir)
	require.NoError(t, err)

	t.Run("unknown revision", func(t *testing.T) {
		_, _, err := repo.ReadFile("no-such-branch", filepath.Join(dir, "main.c"))
		assert.ErrorIs(t, err, ErrUnknownRevision)
	})

	t.Run("file missing at revision", func(t *testing.T) {
		_, rev, err := repo.ReadFile("HEAD", filepath.Join(dir, "later.c"))
		assert.ErrorIs(t, err, ErrNotInRevision)
		assert.NotEmpty(t, rev.Hash)
	})
}

func TestIsModified(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(dir)
	require.NoError(t, err)
	mainC := filepath.Join(dir, "main.c")

	modified, err := repo.IsModified(mainC)
	require.NoError(t, err)
	assert.False(t, modified)

	require.NoError(t, os.WriteFile(mainC, []byte("int main(void) { return 1; }\n"), 0o644))
	modified, err = repo.IsModified(mainC)
	require.NoError(t, err)
	assert.True(t, modified)

	untracked := filepath.Join(dir, "new.c")
	require.NoError(t, os.WriteFile(untracked, []byte("int n;\n"), 0o644))
	modified, err = repo.IsModified(untracked)
	require.NoError(t, err)
	assert.True(t, modified)
}

func TestFirstLineOf(t *testing.T) {
	assert.Equal(t, "subject", firstLineOf("subject\n\nbody"))
	assert.Equal(t, "only", firstLineOf("only"))
	assert.Equal(t, "", firstLineOf(""))
}

// initTestRepo creates a temp dir with a git repo, an initial commit, and
// returns the directory path.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := r.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.c"), []byte("int main(void) { return 0; }\n"), 0o644))

	_, err = wt.Add("main.c")
	require.NoError(t, err)

	_, err = wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@test.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir
}

// addFileAndCommit adds a file and creates a commit with the given message.
func addFileAndCommit(t *testing.T, dir, name, content, msg string) {
	t.Helper()

	r, err := gogit.PlainOpen(dir)
	require.NoError(t, err)

	wt, err := r.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))

	_, err = wt.Add(name)
	require.NoError(t, err)

	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@test.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
}
