// SPDX-License-Identifier: MPL-2.0

package imports

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// FragmentExt is the file extension of import fragments.
const FragmentExt = ".js"

// DefaultCacheSize is the default capacity of a CachedSource.
const DefaultCacheSize = 256

// ErrNotFound is returned when an import name has no fragment.
var ErrNotFound = errors.New("import not found")

type (
	// Fragment is the raw source of one import.
	Fragment struct {
		// Name is the import name as written in @import{}.
		Name string
		// Path is the file the fragment was read from.
		Path string
		// Content is the fragment text.
		Content string
	}

	// Source maps an import name to its fragment.
	Source interface {
		Load(ctx context.Context, name string) (Fragment, error)
	}

	// DirSource reads fragments from a flat directory as <Dir>/<name>.js.
	DirSource struct {
		Dir string
	}

	// CachedSource memoizes fragments of another Source in an LRU cache.
	// It is safe for concurrent use.
	CachedSource struct {
		next  Source
		cache *lru.Cache[string, Fragment]
	}

	// MapSource serves fragments from memory, keyed by import name.
	MapSource map[string]string
)

// Load reads <Dir>/<name>.js. Names containing path separators are rejected
// because imports are not namespaced.
func (s DirSource) Load(ctx context.Context, name string) (Fragment, error) {
	if err := ctx.Err(); err != nil {
		return Fragment{}, err
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return Fragment{}, fmt.Errorf("%w: invalid import name %q", ErrNotFound, name)
	}

	path := filepath.Join(s.Dir, name+FragmentExt)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Fragment{}, fmt.Errorf("%w: %s (looked for %s)", ErrNotFound, name, path)
		}
		return Fragment{}, fmt.Errorf("read import %s: %w", name, err)
	}

	return Fragment{Name: name, Path: path, Content: string(data)}, nil
}

// NewCachedSource wraps next with an LRU cache holding up to size fragments.
// A non-positive size uses DefaultCacheSize.
func NewCachedSource(next Source, size int) (*CachedSource, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Fragment](size)
	if err != nil {
		return nil, fmt.Errorf("create import cache: %w", err)
	}
	return &CachedSource{next: next, cache: cache}, nil
}

// Load returns the cached fragment or loads and caches it. Failed loads are
// not cached.
func (s *CachedSource) Load(ctx context.Context, name string) (Fragment, error) {
	if frag, ok := s.cache.Get(name); ok {
		return frag, nil
	}
	frag, err := s.next.Load(ctx, name)
	if err != nil {
		return Fragment{}, err
	}
	s.cache.Add(name, frag)
	return frag, nil
}

// Purge drops every cached fragment.
func (s *CachedSource) Purge() {
	s.cache.Purge()
}

// Load returns the in-memory fragment for name. Its Path is "<name>.js".
func (m MapSource) Load(_ context.Context, name string) (Fragment, error) {
	content, ok := m[name]
	if !ok {
		return Fragment{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return Fragment{Name: name, Path: name + FragmentExt, Content: content}, nil
}
