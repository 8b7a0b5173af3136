// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGetVersionString(t *testing.T) {
	// Mutates package-level build variables; not parallel.
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = origVersion, origCommit, origDate })

	Version = "dev"
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}

	Version, Commit, BuildDate = "v1.0.0", "abc1234", "2026-01-02"
	if got, want := getVersionString(), "v1.0.0 (commit: abc1234, built: 2026-01-02)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}
}

func TestRootCommandTree(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(NewApp(Dependencies{}))

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	slices.Sort(names)
	if diff := cmp.Diff([]string{"build", "config", "manifest"}, names); diff != "" {
		t.Errorf("subcommands mismatch (-want +got):\n%s", diff)
	}

	for _, flag := range []string{"verbose", "config"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
	build, _, err := root.Find([]string{"build"})
	if err != nil {
		t.Fatalf("Find(build) error: %v", err)
	}
	for _, flag := range []string{"src", "out", "imports", "watch", "no-git"} {
		if build.Flags().Lookup(flag) == nil {
			t.Errorf("build is missing --%s", flag)
		}
	}
}
