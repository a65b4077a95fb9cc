package ports

import (
	"context"
	"time"
)

// FileWatcher defines the interface for watching a directory tree for changes.
// A FileWatcher serves a single Watch call; create a new one per session.
type FileWatcher interface {
	// Watch starts watching root recursively. The returned channel carries
	// modification events only and is closed once the watcher stops.
	Watch(ctx context.Context, root string) (<-chan FileChangeEvent, error)
	// Stop stops the file watcher and releases OS watch resources
	Stop() error
}

// WatcherFactory creates a fresh FileWatcher
type WatcherFactory func() FileWatcher

// FileChangeEvent represents a file change event
type FileChangeEvent struct {
	Path      string
	Type      ChangeType
	Timestamp time.Time
}

// ChangeType represents the type of file change. Watchers only report
// modifications; creates and removes never trigger a reload.
type ChangeType int

const (
	// Modified indicates the file content was modified or replaced
	Modified ChangeType = iota + 1
)

// String returns the string representation of ChangeType
func (c ChangeType) String() string {
	if c == Modified {
		return "modified"
	}
	return "unknown"
}
