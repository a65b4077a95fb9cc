package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/servelite/servelite/internal/domain/entities"
	"github.com/servelite/servelite/internal/domain/ports"
)

// eventBufferSize is the capacity of a watcher's event channel
const eventBufferSize = 64

// NewFactory returns a factory creating watchers of the configured backend
func NewFactory(config entities.WatcherConfig, logger *slog.Logger) ports.WatcherFactory {
	switch config.GetBackend() {
	case entities.WatcherBackendPoll:
		interval := config.GetInterval()
		return func() ports.FileWatcher {
			return NewPollingWatcher(interval, logger)
		}
	default:
		return func() ports.FileWatcher {
			return NewFSNotifyWatcher(logger)
		}
	}
}

// resolveDir returns the absolute path of root if it is an existing directory
func resolveDir(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return "", fmt.Errorf("%w: %s", entities.ErrInvalidRoot, absRoot)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", entities.ErrInvalidRoot, absRoot)
	}

	return absRoot, nil
}
