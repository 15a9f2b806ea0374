package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"grindbot/internal/logging"
)

// debounceWindow coalesces the write bursts editors produce into one
// reload.
const debounceWindow = 250 * time.Millisecond

// Watch reloads the config file on change and delivers each valid new
// config to onReload. Invalid intermediate states are logged and
// skipped; the previous config stays active. Watch returns once the
// context is cancelled.
func Watch(ctx context.Context, path string, onReload func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files by
	// rename, which drops a direct file watch.
	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)
	logging.Config("watching %s for changes", target)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			cfg, err := Load(target)
			if err != nil {
				logging.Config("reload of %s failed, keeping previous: %v", target, err)
				continue
			}
			logging.Config("reloaded %s", target)
			onReload(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Config("config watcher error: %v", err)
		}
	}
}
