package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/servelite/servelite/internal/domain/ports"
)

// FSNotifyWatcher implements recursive file watching on top of fsnotify.
// fsnotify watches single directories, so every directory in the tree is
// added, including ones created while watching. Writes and renames are
// reported as modifications; creates, removes and chmods are not.
type FSNotifyWatcher struct {
	watcher  *fsnotify.Watcher
	events   chan ports.FileChangeEvent
	logger   *slog.Logger
	mu       sync.Mutex
	wg       sync.WaitGroup
	watching bool
	stopped  bool
	stopCh   chan struct{}
}

// NewFSNotifyWatcher creates a new fsnotify-based file watcher
func NewFSNotifyWatcher(logger *slog.Logger) *FSNotifyWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSNotifyWatcher{
		events: make(chan ports.FileChangeEvent, eventBufferSize),
		logger: logger.With("component", "fsnotify_watcher"),
		stopCh: make(chan struct{}),
	}
}

// Watch registers root and all directories below it
func (w *FSNotifyWatcher) Watch(ctx context.Context, root string) (<-chan ports.FileChangeEvent, error) {
	absRoot, err := resolveDir(root)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil, errors.New("watcher stopped")
	}
	if w.watching {
		return nil, errors.New("watcher already started")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if err := watcher.Add(absRoot); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			w.logger.Warn("Failed to close watcher after add error", slog.String("error", closeErr.Error()))
		}
		return nil, fmt.Errorf("watching %s: %w", absRoot, err)
	}

	w.watcher = watcher
	w.watching = true
	w.addTree(absRoot)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.eventLoop(ctx)
	}()

	return w.events, nil
}

// Stop closes the OS watch and the event channel
func (w *FSNotifyWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	watcher := w.watcher
	w.mu.Unlock()

	var err error
	if watcher != nil {
		err = watcher.Close()
	}

	w.wg.Wait()
	close(w.events)

	if err != nil {
		return fmt.Errorf("closing watcher: %w", err)
	}
	return nil
}

// addTree adds every directory strictly below dir
func (w *FSNotifyWatcher) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip unreadable entries
			return nil
		}
		if !d.IsDir() || path == dir {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Cannot watch directory", slog.String("path", path), slog.String("error", err.Error()))
		}
		return nil
	})
}

// eventLoop translates fsnotify events until the watcher stops
func (w *FSNotifyWatcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watcher.Add(event.Name); err != nil {
						w.logger.Warn("Cannot watch new directory", slog.String("path", event.Name), slog.String("error", err.Error()))
					} else {
						w.addTree(event.Name)
					}
				}
			}

			// A rename covers editors that save through a temp file
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}

			change := ports.FileChangeEvent{
				Path:      event.Name,
				Type:      ports.Modified,
				Timestamp: time.Now(),
			}

			select {
			case w.events <- change:
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", slog.String("error", err.Error()))
		}
	}
}

// Ensure FSNotifyWatcher implements ports.FileWatcher
var _ ports.FileWatcher = (*FSNotifyWatcher)(nil)
