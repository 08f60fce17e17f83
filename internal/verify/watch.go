package verify

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces event bursts: editors and installers touch rc
// files several times per save.
const watchDebounce = 500 * time.Millisecond

// Watch re-runs fn whenever the shim directory or an rc file changes.
// Blocks until ctx is done. fn runs once immediately.
func Watch(ctx context.Context, e Env, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch parent dirs rather than the files: rc edits are usually a
	// rename over the original, which drops a direct file watch.
	dirs := map[string]bool{}
	if _, err := os.Stat(e.BinDir); err == nil {
		dirs[e.BinDir] = true
	}
	for _, rc := range e.RCFiles {
		if _, err := os.Stat(rc); err == nil {
			dirs[filepath.Dir(rc)] = true
		}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	fn()

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	relevant := func(name string) bool {
		if filepath.Dir(name) == filepath.Clean(e.BinDir) || name == filepath.Clean(e.BinDir) {
			return true
		}
		for _, rc := range e.RCFiles {
			if name == rc {
				return true
			}
		}
		return false
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if relevant(event.Name) {
				schedule()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_ = err // transient watch errors are not fatal
		case <-fire:
			fn()
		}
	}
}
