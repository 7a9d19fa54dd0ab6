package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// OnReload is called with the newly loaded Config after a successful
// reload, or with an error (and whatever Load returned alongside it, which
// callers ignore) if the reload failed — a
// failed reload is a warning, not fatal: the daemon keeps running on its
// last-known-good config.
type OnReload func(Config, error)

// Watch observes path for writes and re-Loads the config file on change,
// calling onReload with the result. Grounded on dacort-ai-radio's use of
// fsnotify and brennhill's own binary_watcher.go pattern of a background
// watcher goroutine driving a callback on detected change. Returns
// immediately if path is empty (nothing to watch). The watcher stops when
// ctx is cancelled.
func Watch(ctx context.Context, path string, onReload OnReload) error {
	if path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				onReload(cfg, err)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}
