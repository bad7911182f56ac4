package shared

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a fixed set of files inside one folder.
//
// Editors often write a file in several steps, so events are debounced per file:
// a name is emitted once no further event for it arrived within the debounce window.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	files    map[string]bool
	debounce time.Duration
	events   chan string
	logger   *log.Logger
}

// NewWatcher watches the given file names inside dir.
func NewWatcher(dir string, files []string, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	if logger == nil {
		logger = NewLogger(nil)
	}

	names := make(map[string]bool, len(files))
	for _, f := range files {
		names[f] = true
	}

	return &Watcher{
		watcher:  fw,
		dir:      dir,
		files:    names,
		debounce: debounce,
		events:   make(chan string, len(files)),
		logger:   logger,
	}, nil
}

// Events delivers the base name of each changed file. Closed when Run returns.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Run processes file system events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)
	defer w.watcher.Close()

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(ev.Name)
			if !w.files[name] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			pending[name] = time.Now()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "dir", w.dir, "error", err)
		case now := <-ticker.C:
			for name, at := range pending {
				if now.Sub(at) < w.debounce {
					continue
				}
				delete(pending, name)
				w.logger.Debug("config file changed", "file", name)
				select {
				case w.events <- name:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
