package entities

import "errors"

// Session errors. Callers match them with errors.Is.
var (
	ErrInvalidRoot      = errors.New("directory does not exist")
	ErrNoPortAvailable  = errors.New("no available port found")
	ErrWatchSetupFailed = errors.New("failed to watch directory")
	ErrBindFailed       = errors.New("failed to bind listener")
	ErrNotRunning       = errors.New("server not running")
)

// ErrorKind returns the short description of the session error wrapped by err,
// or err's own message when it is not one of the session errors.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	for _, kind := range []error{
		ErrInvalidRoot,
		ErrNoPortAvailable,
		ErrWatchSetupFailed,
		ErrBindFailed,
		ErrNotRunning,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}

	return err.Error()
}
