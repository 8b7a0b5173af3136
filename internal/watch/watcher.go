// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a build when sources change.
//
// A Watcher monitors one or more directory trees and invokes a callback once
// a burst of filesystem events has been quiet for the debounce period. Events
// within the window are coalesced so the callback sees every changed path
// exactly once.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
// Editors often write a temp file and rename it; both events land in one
// window.
const DefaultDebounce = 500 * time.Millisecond

// ErrInvalidPattern is returned for a glob that doublestar cannot parse.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// defaultIgnores are never watched. The last entry matches the temp files
// the compiler writes before renaming an artifact into place.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
	"**/.*.tmp-*",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are the directory trees to watch. Empty means the working
		// directory.
		Roots []string

		// Patterns select the files that trigger a rebuild, matched against
		// the slash separated path relative to the root that contains the
		// file. Empty matches every file.
		Patterns []string

		// Ignore is merged with the built-in ignore patterns.
		Ignore []string

		// Exclude lists directories that are never watched, typically the
		// output directory when it lives inside a root.
		Exclude []string

		// Debounce is the quiet period before OnChange fires.
		Debounce time.Duration

		// OnChange receives the sorted absolute paths that changed. Errors are
		// logged and do not stop the watcher.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives watcher diagnostics. Nil discards them.
		Logger *log.Logger
	}

	// Watcher monitors Config.Roots. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		roots    []string
		exclude  []string
		ignores  []string
		debounce time.Duration
		logger   *log.Logger
		started  atomic.Bool
	}
)

// Validate checks every Patterns and Ignore entry. All failures are joined.
func (c Config) Validate() error {
	var errs []error
	for _, set := range []struct {
		label    string
		patterns []string
	}{{"watch", c.Patterns}, {"ignore", c.Ignore}} {
		for _, pat := range set.patterns {
			if pat == "" || !doublestar.ValidatePattern(pat) {
				errs = append(errs, fmt.Errorf("%w: %s pattern %q", ErrInvalidPattern, set.label, pat))
			}
		}
	}
	return errors.Join(errs...)
}

// New validates cfg, resolves its roots and registers every directory below
// them that is neither ignored nor excluded.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	roots := cfg.Roots
	if len(roots) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		roots = []string{wd}
	}
	absRoots, err := absAll(roots)
	if err != nil {
		return nil, err
	}
	exclude, err := absAll(cfg.Exclude)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		roots:    absRoots,
		exclude:  exclude,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		debounce: debounce,
		logger:   logger,
	}
	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				logger.Warn("close watcher after init failure", "err", closeErr)
			}
			return nil, err
		}
	}
	return w, nil
}

// Roots returns the absolute watched roots.
func (w *Watcher) Roots() []string {
	return slices.Clone(w.roots)
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire never overlaps itself. A fire that finds a build still running
	// re-arms the timer so the pending paths are picked up afterwards.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("rebuild still running, deferring")
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("rebuild failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if !w.relevant(evt.Name) {
				continue
			}
			w.logger.Debug("change", "path", evt.Name, "op", evt.Op.String())

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

// relevant reports whether an event on path should schedule a rebuild.
func (w *Watcher) relevant(path string) bool {
	if w.excluded(path) {
		return false
	}
	rel, ok := w.relative(path)
	if !ok || w.isIgnored(rel) {
		return false
	}
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

// addTree registers root and its subdirectories. Unreadable directories are
// skipped with a warning.
func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			w.logger.Warn("not watching inaccessible path", "path", path, "err", walkErr)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("add %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

// maybeAddDir extends the watch to a directory created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.skipDir(path) {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("not watching new directory", "path", path, "err", err)
	}
}

func (w *Watcher) skipDir(path string) bool {
	if w.excluded(path) {
		return true
	}
	rel, ok := w.relative(path)
	return !ok || w.isIgnored(rel) || w.isIgnored(rel+"/")
}

// relative returns path relative to the innermost root containing it.
func (w *Watcher) relative(path string) (string, bool) {
	best := ""
	for _, root := range w.roots {
		if within(root, path) && len(root) > len(best) {
			best = root
		}
	}
	if best == "" {
		return "", false
	}
	rel, err := filepath.Rel(best, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) excluded(path string) bool {
	return slices.ContainsFunc(w.exclude, func(dir string) bool { return within(dir, path) })
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// within reports whether path is dir or below it.
func within(dir, path string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

func absAll(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", p, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
