package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bmad-code-org/bmad-beads/internal/debug"
)

// DefaultDebounce coalesces bursts of editor writes into one pass.
const DefaultDebounce = 500 * time.Millisecond

// Watch calls fn once immediately and again after every change to a
// markdown or YAML file under dirs, until ctx is done. Missing directories
// are skipped. Errors from fn are passed to onError and do not stop the loop.
func Watch(ctx context.Context, dirs []string, debounce time.Duration, fn func(context.Context) error, onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watched := 0
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			debug.Logf("watch: skipping %s\n", dir)
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no directories to watch")
	}

	report := func() {
		if err := fn(ctx); err != nil && onError != nil {
			onError(err)
		}
	}
	report()

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			debug.Logf("watch: %s %s\n", event.Op, event.Name)
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(fmt.Errorf("watcher: %w", err))
			}
		case <-timer.C:
			report()
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".md", ".yaml", ".yml":
		return true
	}
	return false
}
