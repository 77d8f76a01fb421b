package store

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long a burst of filesystem events is coalesced
const WatchDebounce = 50 * time.Millisecond

// Watch reports changes below root until ctx is done. onChange runs once per
// burst of events; deciding whether to re-index is left to the caller.
func Watch(ctx context.Context, root string, onChange func(), logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, root, logger); err != nil {
		return err
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(WatchDebounce, onChange)
	}
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			logger.Debugf("Store event: %s", event)

			if event.Has(fsnotify.Create) {
				if err := addRecursive(watcher, event.Name, logger); err != nil {
					logger.Debugf("Not watching %s: %v", event.Name, err)
				}
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			trigger()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Warnf("Store watcher error: %v", err)
		}
	}
}

// addRecursive watches dir and every directory below it.
// A path that is not a directory is ignored.
func addRecursive(watcher *fsnotify.Watcher, dir string, logger *log.Logger) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			logger.Debugf("Not watching %s: %v", p, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" && p != dir {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}
