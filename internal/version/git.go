// SPDX-License-Identifier: MPL-2.0

package version

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Git resolves versions from the history of a git repository.
type Git struct {
	// RepoDir is a directory inside the repository. When empty, the
	// repository is detected from the directory of the first path.
	RepoDir string
}

// NewGit creates a Git resolver rooted at repoDir ("" to auto-detect).
func NewGit(repoDir string) *Git {
	return &Git{RepoDir: repoDir}
}

// Resolve returns the version of the newest commit touching any of paths.
// A missing repository, an empty history or untracked paths yield "", nil.
func (g *Git) Resolve(ctx context.Context, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := g.RepoDir
	if start == "" {
		start = filepath.Dir(paths[0])
	}

	repo, err := git.PlainOpenWithOptions(start, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", nil
		}
		return "", fmt.Errorf("open git repository at %s: %w", start, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return "", nil
		}
		return "", fmt.Errorf("open git worktree: %w", err)
	}

	tracked, err := repoRelative(wt.Filesystem.Root(), paths)
	if err != nil {
		return "", err
	}
	if len(tracked) == 0 {
		return "", nil
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read HEAD: %w", err)
	}

	commit, err := newestTouching(ctx, repo, head.Hash(), tracked)
	if err != nil || commit == nil {
		return "", err
	}

	return Format(commit.Committer.When, commit.Hash.String()), nil
}

// newestTouching walks history newest first and returns the first commit that
// changed one of the tracked paths.
func newestTouching(ctx context.Context, repo *git.Repository, from plumbing.Hash, tracked map[string]struct{}) (*object.Commit, error) {
	iter, err := repo.Log(&git.LogOptions{
		From:  from,
		Order: git.LogOrderCommitterTime,
		PathFilter: func(p string) bool {
			_, ok := tracked[p]
			return ok
		},
	})
	if err != nil {
		return nil, fmt.Errorf("read git log: %w", err)
	}
	defer iter.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	commit, err := iter.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("walk git log: %w", err)
	}
	return commit, nil
}

// repoRelative converts paths to slash separated paths relative to root.
// Paths outside root are left out.
func repoRelative(root string, paths []string) (map[string]struct{}, error) {
	root = resolveLinks(root)

	tracked := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		rel, err := filepath.Rel(root, resolveLinks(abs))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		tracked[filepath.ToSlash(rel)] = struct{}{}
	}
	return tracked, nil
}

// resolveLinks returns p with symlinks evaluated, or p unchanged when that
// fails (e.g. the file does not exist yet).
func resolveLinks(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return p
}
