package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/servelite/servelite/internal/domain/entities"
	"github.com/servelite/servelite/internal/domain/ports"
)

// Launcher implements the BrowserLauncher interface
type Launcher struct {
	browsers  []Browser
	preferred string
}

// Browser represents a browser configuration
type Browser struct {
	Name    string
	Command string
	Args    func(url string) []string
}

// NewLauncher creates a launcher that prefers the browser named in config
func NewLauncher(config entities.BrowserConfig) *Launcher {
	return &Launcher{
		browsers:  detectBrowsers(),
		preferred: config.Browser,
	}
}

// Open opens a session URL in a browser. Only local http URLs are accepted.
func (l *Launcher) Open(target string) error {
	if err := validateLocalURL(target); err != nil {
		return err
	}

	browser, err := l.selectBrowser()
	if err != nil {
		return fmt.Errorf("browser selection: %w", err)
	}

	args := browser.Args(target)
	cmd := exec.Command(browser.Command, args...) // #nosec G204 - browser command validated by selectBrowser

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launching %s: %w", browser.Name, err)
	}

	// Don't wait for browser to close
	go func() {
		_ = cmd.Wait()
	}()

	return nil
}

// Detect returns the name of the browser Open would use
func (l *Launcher) Detect() (string, error) {
	browser, err := l.selectBrowser()
	if err != nil {
		return "", err
	}
	return browser.Name, nil
}

// selectBrowser picks the preferred browser if it is installed, otherwise
// the first available one
func (l *Launcher) selectBrowser() (*Browser, error) {
	if len(l.browsers) == 0 {
		return nil, errors.New("no browsers available")
	}

	var fallback *Browser
	for i := range l.browsers {
		candidate := &l.browsers[i]
		if _, err := exec.LookPath(candidate.Command); err != nil {
			continue
		}
		if l.preferred != "" && strings.EqualFold(candidate.Name, l.preferred) {
			return candidate, nil
		}
		if fallback == nil {
			fallback = candidate
		}
	}

	if fallback == nil {
		return nil, errors.New("no supported browsers found on this system")
	}
	return fallback, nil
}

// validateLocalURL rejects anything that is not an http URL on the local machine
func validateLocalURL(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", target, err)
	}
	if u.Scheme != "http" {
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return nil
	default:
		return fmt.Errorf("refusing to open non-local URL %q", target)
	}
}

// detectBrowsers detects available browsers based on the platform
func detectBrowsers() []Browser {
	switch runtime.GOOS {
	case "darwin":
		return []Browser{
			{
				Name:    "Chrome",
				Command: "open",
				Args: func(url string) []string {
					return []string{"-a", "Google Chrome", url}
				},
			},
			{
				Name:    "Safari",
				Command: "open",
				Args: func(url string) []string {
					return []string{"-a", "Safari", url}
				},
			},
			{
				Name:    "Firefox",
				Command: "open",
				Args: func(url string) []string {
					return []string{"-a", "Firefox", url}
				},
			},
			{
				Name:    "Default",
				Command: "open",
				Args: func(url string) []string {
					return []string{url}
				},
			},
		}
	case "linux":
		return []Browser{
			{
				Name:    "xdg-open",
				Command: "xdg-open",
				Args: func(url string) []string {
					return []string{url}
				},
			},
			{
				Name:    "Chrome",
				Command: "google-chrome",
				Args: func(url string) []string {
					return []string{url}
				},
			},
			{
				Name:    "Firefox",
				Command: "firefox",
				Args: func(url string) []string {
					return []string{url}
				},
			},
		}
	case "windows":
		return []Browser{
			{
				Name:    "Default",
				Command: "cmd",
				Args: func(url string) []string {
					return []string{"/c", "start", url}
				},
			},
			{
				Name:    "Chrome",
				Command: "cmd",
				Args: func(url string) []string {
					return []string{"/c", "start", "chrome", url}
				},
			},
			{
				Name:    "Edge",
				Command: "cmd",
				Args: func(url string) []string {
					return []string{"/c", "start", "msedge", url}
				},
			},
		}
	default:
		return []Browser{}
	}
}

// Ensure Launcher implements ports.BrowserLauncher
var _ ports.BrowserLauncher = (*Launcher)(nil)
