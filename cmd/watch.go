package cmd

import (
	"context"
	"fmt"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"path/filepath"
	"time"
)

const watchDebounce = 300 * time.Millisecond

// watchFile calls fire once per burst of writes to path until ctx is done.
// fire runs on the calling goroutine, so runs never overlap.
func watchFile(ctx context.Context, path string, log *zap.Logger, fire func(context.Context)) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watchFile: failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	// The directory is watched rather than the file so editors that replace
	// the file on save keep triggering events.
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watchFile: failed to watch %s: %w", dir, err)
	}

	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	startTimer := func() {
		if timer == nil {
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
			return
		}
		timer.Reset(watchDebounce)
	}

	log.Debug("watching", zap.String("file", path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			fire(ctx)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				startTimer()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("fsnotify error", zap.Error(err))
		}
	}
}
