// Package watch re-runs a callback when documents under a directory change.
//
// Events are filtered by doublestar patterns relative to the base directory
// and coalesced over a debounce window, so an editor's write-then-rename
// produces a single callback with the set of changed paths.
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
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

// Options configures a Watcher.
type Options struct {
	// BaseDir is the watched root; "" means the working directory.
	BaseDir string
	// Patterns select the files that trigger callbacks, relative to BaseDir
	// with forward slashes. Empty matches every non-ignored file.
	Patterns []string
	// Ignore adds patterns to the built-in ignore list.
	Ignore   []string
	Debounce time.Duration
	// OnChange receives the sorted changed paths relative to BaseDir.
	OnChange func(ctx context.Context, changed []string) error
	Logger   *log.Logger
}

// Watcher delivers debounced change notifications.
type Watcher struct {
	opt     Options
	fsw     *fsnotify.Watcher
	base    string
	ignores []string
	logger  *log.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	busy    bool
}

// New validates the patterns and registers every non-ignored directory below
// BaseDir.
func New(opt Options) (*Watcher, error) {
	for _, p := range append(slices.Clone(opt.Patterns), opt.Ignore...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("watch: invalid pattern %q", p)
		}
	}
	base := opt.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		base = wd
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}
	if opt.Debounce <= 0 {
		opt.Debounce = DefaultDebounce
	}
	logger := opt.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		opt:     opt,
		fsw:     fsw,
		base:    abs,
		ignores: append(slices.Clone(defaultIgnores), opt.Ignore...),
		logger:  logger,
		pending: map[string]struct{}{},
	}
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close watcher", "err", err)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	rel := w.rel(ev.Name)
	if w.Ignored(rel) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("watch new directory", "path", rel, "err", err)
			}
			return
		}
	}
	if !w.Matches(rel) {
		return
	}
	w.logger.Debug("change", "path", rel, "op", ev.Op.String())
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[rel] = struct{}{}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.opt.Debounce, func() { w.fire(ctx) })
	} else {
		w.timer.Reset(w.opt.Debounce)
	}
}

// fire runs OnChange with the pending set. A run that overlaps a previous one
// is postponed by another debounce period.
func (w *Watcher) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.mu.Lock()
	if w.busy {
		w.timer.Reset(w.opt.Debounce)
		w.mu.Unlock()
		return
	}
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := slices.Sorted(maps.Keys(w.pending))
	clear(w.pending)
	w.busy = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}()
	if w.opt.OnChange == nil {
		return
	}
	if err := w.opt.OnChange(ctx, changed); err != nil {
		w.logger.Warn("change callback failed", "err", err)
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skip inaccessible path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel := w.rel(path)
		if rel != "." && (w.Ignored(rel) || w.Ignored(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Ignored reports whether rel matches an ignore pattern.
func (w *Watcher) Ignored(rel string) bool { return matchAny(w.ignores, rel) }

// Matches reports whether rel selects a callback.
func (w *Watcher) Matches(rel string) bool {
	return len(w.opt.Patterns) == 0 || matchAny(w.opt.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
