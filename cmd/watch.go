package cmd

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDirs calls onChange with the sorted list of Octave sources changed
// under dirs, once changes have been quiet for debounce. Directories
// created while watching are watched too. It returns when ctx is done.
func watchDirs(ctx context.Context, dirs []string, debounce time.Duration, onChange func(changedPaths []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := addWatchRecursive(watcher, dir); err != nil {
			return err
		}
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	// fire is nil while nothing is pending.
	var (
		changed = map[string]bool{}
		timer   *time.Timer
		fire    <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path, relevant := sourceEvent(watcher, event)
			if !relevant {
				continue
			}
			changed[path] = true
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			paths := slices.Sorted(maps.Keys(changed))
			clear(changed)
			onChange(paths)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return watchErr
		}
	}
}

// sourceEvent reports the cleaned path of an event that touches a source
// file. New directories are added to the watcher instead.
func sourceEvent(watcher *fsnotify.Watcher, event fsnotify.Event) (string, bool) {
	path := filepath.Clean(event.Name)
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			_ = addWatchRecursive(watcher, path)
			return "", false
		}
	}
	if !isSource(path) {
		return "", false
	}
	return path, event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

// addWatchRecursive watches root and its subdirectories, private/
// included, skipping hidden ones. A missing root is ignored.
func addWatchRecursive(watcher *fsnotify.Watcher, root string) error {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// isSource reports whether path is a file the resolver reads: Octave
// sources and compiled functions. Editor droppings are ignored.
func isSource(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch ext := filepath.Ext(base); {
	case ext == ".m", ext == ".oct", strings.HasPrefix(ext, ".mex"):
		return true
	}
	return false
}
