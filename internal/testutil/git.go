// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitRepo is a throwaway repository rooted at Dir.
type GitRepo struct {
	Dir  string
	repo *git.Repository
}

// InitRepo initializes an empty non-bare repository in dir.
// The test fails immediately if the operation fails.
func InitRepo(t testing.TB, dir string) *GitRepo {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init git repository in %s: %v", dir, err)
	}
	return &GitRepo{Dir: dir, repo: repo}
}

// Commit writes files (relative slash paths -> content), stages them and
// commits at the given time. It returns the commit hash.
func (r *GitRepo) Commit(t testing.TB, when time.Time, msg string, files map[string]string) plumbing.Hash {
	t.Helper()
	WriteTree(t, r.Dir, files)

	wt, err := r.repo.Worktree()
	if err != nil {
		t.Fatalf("failed to open worktree: %v", err)
	}
	for p := range files {
		if _, err := wt.Add(filepath.ToSlash(p)); err != nil {
			t.Fatalf("failed to stage %s: %v", p, err)
		}
	}

	sig := &object.Signature{Name: "test", Email: "test@example.com", When: when}
	hash, err := wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return hash
}
