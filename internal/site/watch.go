// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.astrophena.name/base/logger"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay is long enough that saving a file doesn't start a build per
// keystroke.
const debounceDelay = 250 * time.Millisecond

var watchReadyHook func() // used in tests, called when Watch started watching

// Watch calls rebuild once, then again after every change under paths until
// ctx is canceled. Changes under exclude, usually the output directory, are
// ignored. Rebuild errors are logged.
func Watch(ctx context.Context, paths []string, exclude string, rebuild func(context.Context) error) error {
	// Builds must not overlap when a timer fires during a build.
	var mu sync.Mutex
	build := func() {
		mu.Lock()
		defer mu.Unlock()
		if err := rebuild(ctx); err != nil {
			logger.Error(ctx, "failed to rebuild the site", slog.Any("err", err))
		}
	}

	logger.Info(ctx, "performing an initial build")
	build()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if exclude != "" {
		if exclude, err = filepath.Abs(exclude); err != nil {
			return err
		}
	}
	targets, err := watchPaths(watcher, paths, exclude)
	if err != nil {
		return err
	}

	debouncer := newDebouncer(debounceDelay, func() {
		logger.Info(ctx, "triggering build")
		build()
	})
	defer debouncer.Stop()

	logger.Info(ctx, "started watching for new changes", slog.Any("paths", paths))
	if watchReadyHook != nil {
		watchReadyHook()
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if inside(event.Name, exclude) || !targets.match(event.Name) || !shouldRebuild(event.Name, event.Op) {
				continue
			}
			// New directories have to be watched too.
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := watchRecursive(watcher, event.Name, exclude); err != nil {
						logger.Error(ctx, "failed to watch directory", slog.String("name", event.Name), slog.Any("err", err))
					}
				}
			}
			logger.Info(ctx, "detected change, scheduling build",
				slog.String("name", event.Name),
				slog.Any("op", event.Op),
			)
			debouncer.Do()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(ctx, "watcher error", slog.Any("err", err))
		case <-ctx.Done():
			return nil
		}
	}
}

// debouncer delays execution of a function until a specified duration has
// passed without any new events.
type debouncer struct {
	d  time.Duration
	mu sync.Mutex
	f  func()
	t  *time.Timer
}

// newDebouncer creates a new debouncer.
func newDebouncer(d time.Duration, f func()) *debouncer {
	return &debouncer{
		d: d,
		f: f,
	}
}

// Do schedules a function to be executed.
func (d *debouncer) Do() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
	}

	d.t = time.AfterFunc(d.d, d.f)
}

// Stop cancels a scheduled execution.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
	}
}

// watchTargets are the paths a watcher reports changes for.
type watchTargets struct {
	dirs  []string        // watched recursively
	files map[string]bool // watched through their parent directory
}

// watchPaths adds paths to w. Directories are watched recursively. A single
// file, like a settings file, is watched through its directory, because
// editors that save by renaming replace the file and the watch on it would be
// lost.
func watchPaths(w *fsnotify.Watcher, paths []string, exclude string) (*watchTargets, error) {
	targets := &watchTargets{files: make(map[string]bool)}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if fi, err := os.Stat(abs); err == nil && !fi.IsDir() {
			targets.files[abs] = true
			if err := w.Add(filepath.Dir(abs)); err != nil {
				return nil, err
			}
			continue
		}
		targets.dirs = append(targets.dirs, abs)
		if err := watchRecursive(w, abs, exclude); err != nil {
			return nil, err
		}
	}
	return targets, nil
}

// match reports whether a change of name concerns one of the targets.
func (t *watchTargets) match(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if t.files[abs] {
		return true
	}
	return slices.ContainsFunc(t.dirs, func(dir string) bool { return inside(abs, dir) })
}

func watchRecursive(w *fsnotify.Watcher, dir, exclude string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if inside(path, exclude) || (path != dir && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
	// A watched file may be gone by the time we get to it.
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// inside reports whether path is dir or inside it.
func inside(path, dir string) bool {
	if dir == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	return err == nil && filepath.IsLocal(rel)
}

// Copied from
// https://github.com/brandur/modulir/blob/1ff912fdc45a79cb4d8d9f199d213ae9c3598cbd/watch.go#L201.
func shouldRebuild(path string, op fsnotify.Op) bool {
	base := filepath.Base(path)

	// Mac OS' worst mistake.
	if base == ".DS_Store" {
		return false
	}

	// Vim creates this temporary file to see whether it can write into a target
	// directory. It screws up our watching algorithm, so ignore it.
	if base == "4913" {
		return false
	}

	// A special case, but ignore creates on files that look like Vim backups.
	if strings.HasSuffix(base, "~") {
		return false
	}

	// Vim swap files and Emacs lock files.
	if strings.HasSuffix(base, ".swp") || strings.HasPrefix(base, ".#") {
		return false
	}

	if op&fsnotify.Create != 0 {
		return true
	}

	if op&fsnotify.Remove != 0 {
		return true
	}

	if op&fsnotify.Write != 0 {
		return true
	}

	// Ignore everything else. chmod won't affect build output and rename
	// produces a following create event.
	return false
}
