package entities

import (
	"fmt"
	"slices"
)

// AppName is the user-facing application name
const AppName = "ServeLite"

// DefaultMaxRecent is the capacity of the recent-directories list
const DefaultMaxRecent = 5

// SessionState represents the lifecycle state of the server session
type SessionState int

const (
	// SessionIdle means no listener task exists
	SessionIdle SessionState = iota
	// SessionStarting means a Start call is wiring up a new session
	SessionStarting
	// SessionRunning means a listener task is serving the root directory
	SessionRunning
	// SessionStopping means the listener task is being torn down
	SessionStopping
)

// String returns the string representation of SessionState
func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionStarting:
		return "starting"
	case SessionRunning:
		return "running"
	case SessionStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// SessionInfo is a read-only snapshot of the session
type SessionInfo struct {
	State   SessionState
	Root    string
	Port    int
	URL     string
	Clients int
}

// ServerURL formats the URL reported to users for a bound port
func ServerURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// RecentDirs is a bounded most-recently-used list of directories, front first.
// It is not safe for concurrent use; the session manager guards it.
type RecentDirs struct {
	capacity int
	dirs     []string
}

// NewRecentDirs creates an empty list holding at most capacity paths.
// Capacities outside 1..DefaultMaxRecent fall back to DefaultMaxRecent.
func NewRecentDirs(capacity int) *RecentDirs {
	if capacity <= 0 || capacity > DefaultMaxRecent {
		capacity = DefaultMaxRecent
	}
	return &RecentDirs{
		capacity: capacity,
		dirs:     make([]string, 0, capacity),
	}
}

// Add moves path to the front, removing any earlier occurrence and evicting
// the oldest entry when the list is full.
func (r *RecentDirs) Add(path string) {
	if i := slices.Index(r.dirs, path); i >= 0 {
		r.dirs = slices.Delete(r.dirs, i, i+1)
	}
	if len(r.dirs) >= r.capacity {
		r.dirs = r.dirs[:r.capacity-1]
	}
	r.dirs = slices.Insert(r.dirs, 0, path)
}

// Get returns the path at index i
func (r *RecentDirs) Get(i int) (string, bool) {
	if i < 0 || i >= len(r.dirs) {
		return "", false
	}
	return r.dirs[i], true
}

// List returns a copy of the list, most recent first
func (r *RecentDirs) List() []string {
	return slices.Clone(r.dirs)
}

// Len returns the number of entries
func (r *RecentDirs) Len() int {
	return len(r.dirs)
}
