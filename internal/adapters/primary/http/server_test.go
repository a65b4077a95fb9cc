package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servelite/servelite/internal/domain/entities"
	"github.com/servelite/servelite/internal/domain/ports"
	"github.com/servelite/servelite/internal/domain/services"
)

func getTestServerConfig() *entities.ServerConfig {
	return &entities.ServerConfig{
		Host:        "127.0.0.1",
		Port:        8000,
		CORSOrigins: []string{"*"},
	}
}

// newTestSite creates a served root with an HTML page, a stylesheet and a
// file outside the root
func newTestSite(t *testing.T) string {
	t.Helper()
	parent := t.TempDir()
	root := filepath.Join(parent, "site")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html><body><h1>Home</h1></body></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "style.css"), []byte("body { color: red; }"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes..txt"), []byte("double dot name"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "page.htm"), []byte("<p>no body tag</p>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("top secret"), 0644))
	return root
}

func newTestServer(t *testing.T, config *entities.ServerConfig) (*ReloadServer, *services.Broadcaster, string) {
	t.Helper()
	root := newTestSite(t)
	bus := services.NewBroadcaster(4)
	srv := NewReloadServer(root, bus, config, NewHTTPLogger("test", false))
	return srv, bus, root
}

func TestNewReloadServer(t *testing.T) {
	t.Run("panics without config", func(t *testing.T) {
		assert.Panics(t, func() {
			NewReloadServer(t.TempDir(), services.NewBroadcaster(1), nil, nil)
		})
	})

	t.Run("factory builds handlers", func(t *testing.T) {
		factory := NewHandlerFactory(getTestServerConfig(), &entities.LoggingConfig{Level: "debug"})
		handler := factory.NewHandler(t.TempDir(), services.NewBroadcaster(1))
		require.NotNil(t, handler)
		assert.Equal(t, 0, handler.ClientCount())
		handler.Close()
	})
}

func TestStaticFiles(t *testing.T) {
	srv, _, _ := newTestServer(t, getTestServerConfig())

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"index", "/", http.StatusOK, "<h1>Home</h1>"},
		{"stylesheet", "/style.css", http.StatusOK, "color: red"},
		{"nested", "/docs/page.htm", http.StatusOK, "no body tag"},
		{"double dot in file name", "/notes..txt", http.StatusOK, "double dot name"},
		{"missing", "/nope.html", http.StatusNotFound, ""},
		{"escape attempt is cleaned", "/../secret.txt", http.StatusMovedPermanently, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			srv.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotContains(t, w.Body.String(), "top secret")
			assert.NotContains(t, w.Body.String(), clientScriptTag)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _, _ := newTestServer(t, getTestServerConfig())

	t.Run("any origin is allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
		req.Header.Set("Origin", "http://example.com")
		w := httptest.NewRecorder()

		srv.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("request without origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
		w := httptest.NewRecorder()

		srv.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("restricted origins add no header without origin", func(t *testing.T) {
		config := getTestServerConfig()
		config.CORSOrigins = []string{"http://localhost:3000"}
		restricted, _, _ := newTestServer(t, config)

		req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
		w := httptest.NewRecorder()

		restricted.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/style.css", nil)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()

		srv.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestClientScript(t *testing.T) {
	srv, _, _ := newTestServer(t, getTestServerConfig())

	req := httptest.NewRequest(http.MethodGet, clientScriptPath, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, w.Body.String(), "new WebSocket")
}

func TestClientScriptInjection(t *testing.T) {
	config := getTestServerConfig()
	config.InjectClient = true
	srv, _, _ := newTestServer(t, config)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	t.Run("before closing body tag", func(t *testing.T) {
		w := get("/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), clientScriptTag+"</body>")
	})

	t.Run("appended without body tag", func(t *testing.T) {
		w := get("/docs/page.htm")
		assert.True(t, strings.HasSuffix(w.Body.String(), clientScriptTag))
	})

	t.Run("non-HTML untouched", func(t *testing.T) {
		w := get("/style.css")
		assert.NotContains(t, w.Body.String(), clientScriptTag)
	})

	t.Run("directory without slash still redirects", func(t *testing.T) {
		w := get("/docs")
		assert.Equal(t, http.StatusMovedPermanently, w.Code)
	})
}

func TestInjectClientScript(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<html><body>x</body></html>", "<html><body>x" + clientScriptTag + "</body></html>"},
		{"<HTML><BODY>x</BODY></HTML>", "<HTML><BODY>x" + clientScriptTag + "</BODY></HTML>"},
		{"<html>x</html>", "<html>x" + clientScriptTag + "</html>"},
		{"plain", "plain" + clientScriptTag},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, string(injectClientScript([]byte(tt.in))))
	}
}

func TestWebSocketEndpoint(t *testing.T) {
	t.Run("plain GET is rejected", func(t *testing.T) {
		srv, _, _ := newTestServer(t, getTestServerConfig())

		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("clients receive reload frames", func(t *testing.T) {
		srv, bus, _ := newTestServer(t, getTestServerConfig())
		ts := httptest.NewServer(srv)
		t.Cleanup(ts.Close)
		t.Cleanup(srv.Close)

		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
		clients := make([]*websocket.Conn, 3)
		for i := range clients {
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = conn.Close() })
			clients[i] = conn
		}

		require.Eventually(t, func() bool { return bus.SubscriberCount() == 3 }, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, 3, srv.ClientCount())

		assert.Equal(t, 3, bus.Publish())

		for _, conn := range clients {
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			msgType, data, err := conn.ReadMessage()
			require.NoError(t, err)
			assert.Equal(t, websocket.TextMessage, msgType)
			assert.Equal(t, ports.ReloadMessage, string(data))
		}
	})

	t.Run("closing the source ends the connection", func(t *testing.T) {
		srv, bus, _ := newTestServer(t, getTestServerConfig())
		ts := httptest.NewServer(srv)
		t.Cleanup(ts.Close)

		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
		require.NoError(t, err)
		defer func() { _ = conn.Close() }()

		require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)

		bus.Close()
		srv.Close()

		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err = conn.ReadMessage()
		require.Error(t, err)
		assert.Equal(t, 0, srv.ClientCount())
	})

	t.Run("close disconnects clients and refuses new ones", func(t *testing.T) {
		srv, bus, _ := newTestServer(t, getTestServerConfig())
		ts := httptest.NewServer(srv)
		t.Cleanup(ts.Close)
		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer func() { _ = conn.Close() }()
		require.Eventually(t, func() bool { return srv.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

		srv.Close()
		assert.Equal(t, 0, srv.ClientCount())
		assert.Equal(t, 0, bus.SubscriberCount())

		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err = conn.ReadMessage()
		assert.Error(t, err)

		// The upgrade still succeeds but the connection is dropped at once
		late, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err == nil {
			defer func() { _ = late.Close() }()
			_ = late.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err = late.ReadMessage()
			assert.Error(t, err)
		}
	})
}

func TestOriginValidation(t *testing.T) {
	config := getTestServerConfig()
	config.CORSOrigins = []string{"http://dev.test:3000"}
	srv, _, _ := newTestServer(t, config)

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://dev.test:3000", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:8000", true},
		{"http://evil.example", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, srv.isValidOrigin(req), tt.origin)
	}
}

func TestHTTPLogger(t *testing.T) {
	logger := NewHTTPLoggerWithLevel("test", false, entities.LogLevelWarn)
	assert.False(t, logger.shouldLog(entities.LogLevelInfo))
	assert.True(t, logger.shouldLog(entities.LogLevelError))

	logger.SetLevel(entities.LogLevelDebug)
	assert.True(t, logger.shouldLog(entities.LogLevelDebug))
}

func TestHeadRequest(t *testing.T) {
	srv, _, _ := newTestServer(t, getTestServerConfig())

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodHead, clientScriptPath, nil))

	body, _ := io.ReadAll(w.Result().Body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body)
}
