package ports

// BrowserLauncher opens session URLs in a local browser
type BrowserLauncher interface {
	// Open opens a local http URL
	Open(url string) error
	// Detect returns the name of the browser Open would use
	Detect() (string, error)
}
