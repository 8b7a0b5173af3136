// SPDX-License-Identifier: MPL-2.0

// Package version derives fallback artifact versions from version control.
//
// A derived version has the form "<UTC timestamp>-<short revision>", e.g.
// "20240131.084502-1a2b3c4", so that versions of the same artifact compare
// in commit order. Resolution is soft: paths without history yield "".
package version

import (
	"context"
	"time"
)

const (
	// TimestampLayout is the time layout of the timestamp part.
	TimestampLayout = "20060102.150405"
	// ShortHashLen is the length of the revision part.
	ShortHashLen = 7
)

type (
	// Resolver returns the version of the most recent change touching any of
	// paths, or "" when none of them has history.
	Resolver interface {
		Resolve(ctx context.Context, paths []string) (string, error)
	}

	// Func adapts a function to the Resolver interface.
	Func func(ctx context.Context, paths []string) (string, error)

	noneResolver struct{}
)

// None never resolves a version.
var None Resolver = noneResolver{}

// Resolve calls f.
func (f Func) Resolve(ctx context.Context, paths []string) (string, error) {
	return f(ctx, paths)
}

func (noneResolver) Resolve(context.Context, []string) (string, error) {
	return "", nil
}

// Format builds a version string from a commit time and revision id.
func Format(when time.Time, revision string) string {
	if len(revision) > ShortHashLen {
		revision = revision[:ShortHashLen]
	}
	return when.UTC().Format(TimestampLayout) + "-" + revision
}
