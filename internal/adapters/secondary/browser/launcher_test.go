package browser

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servelite/servelite/internal/domain/entities"
)

func testBrowser(t *testing.T, name string) Browser {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)
	return Browser{Name: name, Command: exe, Args: func(url string) []string { return []string{url} }}
}

func TestNewLauncher(t *testing.T) {
	launcher := NewLauncher(entities.BrowserConfig{Browser: "firefox"})
	require.NotNil(t, launcher)
	assert.Equal(t, "firefox", launcher.preferred)
}

func TestLauncherOpen(t *testing.T) {
	t.Run("rejects non-local URLs", func(t *testing.T) {
		launcher := &Launcher{browsers: []Browser{testBrowser(t, "Test")}}

		for _, target := range []string{
			"https://localhost:8000",
			"http://example.com",
			"file:///etc/passwd",
			"::not a url",
		} {
			assert.Error(t, launcher.Open(target), target)
		}
	})

	t.Run("without browsers", func(t *testing.T) {
		launcher := &Launcher{browsers: []Browser{}}
		err := launcher.Open("http://localhost:8000")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "browser selection")
	})
}

func TestSelectBrowser(t *testing.T) {
	t.Run("prefers configured browser", func(t *testing.T) {
		launcher := &Launcher{
			browsers:  []Browser{testBrowser(t, "Chrome"), testBrowser(t, "Firefox")},
			preferred: "firefox",
		}
		browser, err := launcher.selectBrowser()
		require.NoError(t, err)
		assert.Equal(t, "Firefox", browser.Name)
	})

	t.Run("falls back to first available", func(t *testing.T) {
		launcher := &Launcher{
			browsers: []Browser{
				{Name: "Missing", Command: "servelite-no-such-browser", Args: func(url string) []string { return nil }},
				testBrowser(t, "Chrome"),
			},
			preferred: "default",
		}
		name, err := launcher.Detect()
		require.NoError(t, err)
		assert.Equal(t, "Chrome", name)
	})

	t.Run("none installed", func(t *testing.T) {
		launcher := &Launcher{
			browsers: []Browser{
				{Name: "Missing", Command: "servelite-no-such-browser", Args: func(url string) []string { return nil }},
			},
		}
		_, err := launcher.selectBrowser()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no supported browsers")
	})

	t.Run("without browsers", func(t *testing.T) {
		launcher := &Launcher{browsers: []Browser{}}
		_, err := launcher.selectBrowser()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no browsers available")
	})
}

func TestDetectBrowsers(t *testing.T) {
	browsers := detectBrowsers()

	names := make(map[string]bool)
	for _, b := range browsers {
		names[b.Name] = true
		assert.Contains(t, b.Args("http://localhost:8000"), "http://localhost:8000")
	}

	switch runtime.GOOS {
	case "darwin":
		assert.True(t, names["Default"])
	case "linux":
		assert.True(t, names["xdg-open"])
	case "windows":
		assert.True(t, names["Default"])
	default:
		assert.Empty(t, browsers)
	}
}
