package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/servelite/servelite/internal/domain/ports"
)

// PollingWatcher implements file watching by rescanning a directory tree.
// Only content changes of files that already existed at the previous scan
// are reported; new, deleted and touched-but-unchanged files are not.
type PollingWatcher struct {
	interval  time.Duration
	fileInfos map[string]FileInfo
	events    chan ports.FileChangeEvent
	logger    *slog.Logger
	mu        sync.RWMutex
	wg        sync.WaitGroup
	watching  bool
	stopped   bool
	stopCh    chan struct{}
}

// FileInfo stores information about a file
type FileInfo struct {
	Size     int64
	ModTime  time.Time
	Checksum string
}

// NewPollingWatcher creates a new polling-based file watcher
func NewPollingWatcher(interval time.Duration, logger *slog.Logger) *PollingWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollingWatcher{
		interval:  interval,
		fileInfos: make(map[string]FileInfo),
		events:    make(chan ports.FileChangeEvent, eventBufferSize),
		logger:    logger.With("component", "poll_watcher"),
		stopCh:    make(chan struct{}),
	}
}

// Watch starts polling root and everything below it
func (w *PollingWatcher) Watch(ctx context.Context, root string) (<-chan ports.FileChangeEvent, error) {
	absRoot, err := resolveDir(root)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil, errors.New("watcher stopped")
	}
	if w.watching {
		w.mu.Unlock()
		return nil, errors.New("watcher already started")
	}
	w.watching = true
	w.mu.Unlock()

	// Initial scan
	if _, err := w.scanTree(absRoot); err != nil {
		return nil, fmt.Errorf("initial scan: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx, absRoot)
	}()

	return w.events, nil
}

// Stop stops the file watcher
func (w *PollingWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	// Wait for goroutines to finish
	w.wg.Wait()

	close(w.events)
	return nil
}

// pollLoop rescans the tree every interval
func (w *PollingWatcher) pollLoop(ctx context.Context, root string) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			changed, err := w.scanTree(root)
			if err != nil {
				w.logger.Warn("Poll scan failed", slog.String("root", root), slog.String("error", err.Error()))
				continue
			}

			for _, path := range changed {
				event := ports.FileChangeEvent{
					Path:      path,
					Type:      ports.Modified,
					Timestamp: time.Now(),
				}

				select {
				case w.events <- event:
				case <-ctx.Done():
					return
				case <-w.stopCh:
					return
				}
			}
		}
	}
}

// scanTree records every regular file under root and returns the files
// whose content changed since the previous scan
func (w *PollingWatcher) scanTree(root string) ([]string, error) {
	seen := make(map[string]struct{}, len(w.fileInfos))
	var changed []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Entries can vanish mid-walk
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		seen[path] = struct{}{}
		modified, err := w.checkFile(path)
		if err != nil {
			return nil
		}
		if modified {
			changed = append(changed, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	for path := range w.fileInfos {
		if _, ok := seen[path]; !ok {
			delete(w.fileInfos, path)
		}
	}
	w.mu.Unlock()

	return changed, nil
}

// checkFile updates the stored info for path and reports a content change
func (w *PollingWatcher) checkFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat file: %w", err)
	}

	w.mu.RLock()
	oldInfo, exists := w.fileInfos[path]
	w.mu.RUnlock()

	// Smart pre-check: skip expensive checksum if size/time unchanged
	if exists && oldInfo.Size == info.Size() && oldInfo.ModTime.Equal(info.ModTime()) {
		return false, nil
	}

	checksum, err := w.calculateChecksum(path)
	if err != nil {
		return false, fmt.Errorf("calculate checksum: %w", err)
	}

	w.mu.Lock()
	w.fileInfos[path] = FileInfo{
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Checksum: checksum,
	}
	w.mu.Unlock()

	// New files are recorded silently
	return exists && oldInfo.Checksum != checksum, nil
}

// calculateChecksum calculates SHA256 checksum of a file
func (w *PollingWatcher) calculateChecksum(path string) (string, error) {
	file, err := os.Open(path) // #nosec G304 - path comes from walking the served root
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Ensure PollingWatcher implements ports.FileWatcher
var _ ports.FileWatcher = (*PollingWatcher)(nil)
