// SPDX-License-Identifier: MPL-2.0

package version

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/uscompile/uscompile/internal/testutil"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 1, 31, 9, 45, 2, 0, time.FixedZone("CET", 3600))
	got := Format(when, "1a2b3c4d5e6f")
	if want := "20240131.084502-1a2b3c4"; got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if got := Format(when, "abc"); got != "20240131.084502-abc" {
		t.Errorf("Format() with short revision = %q", got)
	}
}

func TestNoneAndFunc(t *testing.T) {
	t.Parallel()

	if v, err := None.Resolve(context.Background(), []string{"x"}); v != "" || err != nil {
		t.Errorf("None.Resolve() = %q, %v", v, err)
	}

	boom := errors.New("boom")
	f := Func(func(context.Context, []string) (string, error) { return "", boom })
	if _, err := f.Resolve(context.Background(), nil); !errors.Is(err, boom) {
		t.Errorf("Func.Resolve() error = %v, want boom", err)
	}
}

func TestGitResolveNewestTouchingCommit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := testutil.InitRepo(t, dir)

	t1 := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	t2 := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	t3 := time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC)

	repo.Commit(t, t1, "add a", map[string]string{"src/a.user.js": "a();"})
	h2 := repo.Commit(t, t2, "add lib", map[string]string{"snippet/lib.js": "lib();"})
	repo.Commit(t, t3, "unrelated", map[string]string{"README.md": "hi"})

	g := NewGit("")
	paths := []string{
		filepath.Join(dir, "src", "a.user.js"),
		filepath.Join(dir, "snippet", "lib.js"),
	}

	got, err := g.Resolve(context.Background(), paths)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if want := Format(t2, h2.String()); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestGitResolveWithRepoDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := testutil.InitRepo(t, dir)
	when := time.Date(2022, 2, 2, 2, 2, 2, 0, time.UTC)
	h := repo.Commit(t, when, "add", map[string]string{"src/deep/x.user.css": "body{}"})

	got, err := NewGit(dir).Resolve(context.Background(), []string{filepath.Join(dir, "src", "deep", "x.user.css")})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if want := Format(when, h.String()); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestGitResolveSoftFailures(t *testing.T) {
	t.Parallel()

	t.Run("no repository", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		testutil.MustWriteFile(t, filepath.Join(dir, "a.user.js"), "a();")
		got, err := NewGit("").Resolve(context.Background(), []string{filepath.Join(dir, "a.user.js")})
		if err != nil || got != "" {
			t.Errorf("Resolve() = %q, %v; want empty, nil", got, err)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		testutil.InitRepo(t, dir)
		testutil.MustWriteFile(t, filepath.Join(dir, "a.user.js"), "a();")
		got, err := NewGit("").Resolve(context.Background(), []string{filepath.Join(dir, "a.user.js")})
		if err != nil || got != "" {
			t.Errorf("Resolve() = %q, %v; want empty, nil", got, err)
		}
	})

	t.Run("untracked path", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		repo := testutil.InitRepo(t, dir)
		repo.Commit(t, time.Now(), "init", map[string]string{"README.md": "hi"})
		testutil.MustWriteFile(t, filepath.Join(dir, "new.user.js"), "n();")

		got, err := NewGit("").Resolve(context.Background(), []string{filepath.Join(dir, "new.user.js")})
		if err != nil || got != "" {
			t.Errorf("Resolve() = %q, %v; want empty, nil", got, err)
		}
	})

	t.Run("no paths", func(t *testing.T) {
		t.Parallel()

		got, err := NewGit("").Resolve(context.Background(), nil)
		if err != nil || got != "" {
			t.Errorf("Resolve() = %q, %v; want empty, nil", got, err)
		}
	})
}
