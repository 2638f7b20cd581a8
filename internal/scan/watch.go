package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/sqlembed/internal/debug"
)

// DefaultDebounce coalesces the bursts of write events editors emit for a
// single save.
const DefaultDebounce = 100 * time.Millisecond

// Watch re-extracts files as they change, invoking onResult for each
// completed extraction. It watches the directories containing the given
// paths so that editor save strategies (write to temp, rename over) are
// still observed. Watch blocks until ctx is cancelled or the watcher
// fails.
func Watch(ctx context.Context, scanner *Scanner, paths []string, debounce time.Duration, onResult func(FileResult)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	rescan := func(path string) {
		result, err := scanner.ScanFile(path)
		if err != nil {
			debug.LogScan("rescan of %s failed: %v\n", path, err)
			return
		}
		onResult(result)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			debug.LogScan("watcher error: %v\n", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			// Debounce per path: editors emit several events per save.
			mu.Lock()
			if t, exists := timers[abs]; exists {
				t.Stop()
			}
			timers[abs] = time.AfterFunc(debounce, func() {
				mu.Lock()
				delete(timers, abs)
				mu.Unlock()
				rescan(abs)
			})
			mu.Unlock()
		}
	}
}
