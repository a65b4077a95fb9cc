package ports

import (
	"context"

	"github.com/servelite/servelite/internal/domain/entities"
)

// SessionService is what the tray, console and CLI drive
type SessionService interface {
	// Start stops any running session and serves dir, returning a
	// "listening at" message
	Start(ctx context.Context, dir string) (string, error)
	// StartRecent starts the i-th entry of the recent-directories list
	StartRecent(ctx context.Context, i int) (string, error)
	// Stop stops the running session
	Stop() error
	// Info returns a snapshot of the session
	Info() entities.SessionInfo
	// URL returns the URL of the running session
	URL() (string, error)
	// Recent returns the recent-directories list, most recent first
	Recent() []string
}
