package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler receives the files that changed during one debounce window
type ChangeHandler func(paths []string) error

// fileWatcher reports changes of a fixed set of files. The parent directories
// are watched so that editors replacing a file by rename are noticed too.
type fileWatcher struct {
	watcher *fsnotify.Watcher
	delay   time.Duration
	files   map[string]bool
	onError func(error)
}

func newFileWatcher(delay time.Duration, paths ...string) (*fileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &fileWatcher{
		watcher: watcher,
		delay:   delay,
		files:   make(map[string]bool),
		onError: func(error) {},
	}

	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("invalid path %s: %w", path, err)
		}
		fw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return fw, nil
}

// Run delivers debounced changes to handler until ctx is done. Handler errors
// go to the error callback and do not stop the watcher.
func (fw *fileWatcher) Run(ctx context.Context, handler ChangeHandler) error {
	defer fw.watcher.Close()

	timer := time.NewTimer(fw.delay)
	timer.Stop()
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !fw.files[abs] {
				continue
			}
			pending[abs] = true
			timer.Reset(fw.delay)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			sort.Strings(paths)
			pending = make(map[string]bool)

			if err := handler(paths); err != nil {
				fw.onError(err)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.onError(fmt.Errorf("file watcher error: %w", err))
		}
	}
}
