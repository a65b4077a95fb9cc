package http

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/servelite/servelite/internal/domain/entities"
	"github.com/servelite/servelite/internal/domain/ports"
)

// HTTPLogger provides leveled logging for the HTTP adapter
type HTTPLogger struct {
	component string
	verbose   bool
	level     entities.LogLevel
}

// NewHTTPLogger creates a new HTTP logger instance
func NewHTTPLogger(component string, verbose bool) *HTTPLogger {
	return &HTTPLogger{
		component: component,
		verbose:   verbose,
		level:     entities.LogLevelInfo,
	}
}

// NewHTTPLoggerWithLevel creates a new HTTP logger instance with specific level
func NewHTTPLoggerWithLevel(component string, verbose bool, level entities.LogLevel) *HTTPLogger {
	return &HTTPLogger{
		component: component,
		verbose:   verbose,
		level:     level,
	}
}

// shouldLog checks if the message should be logged based on level
func (l *HTTPLogger) shouldLog(msgLevel entities.LogLevel) bool {
	levelMap := map[entities.LogLevel]int{
		entities.LogLevelDebug: 0,
		entities.LogLevelInfo:  1,
		entities.LogLevelWarn:  2,
		entities.LogLevelError: 3,
	}

	return levelMap[msgLevel] >= levelMap[l.level]
}

// Debug logs debug messages (only if debug level is enabled)
func (l *HTTPLogger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelDebug) {
		log.Printf("[DEBUG] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// Info logs informational messages (only if info level or higher is enabled)
func (l *HTTPLogger) Info(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelInfo) {
		log.Printf("[INFO] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// Warn logs warning messages (only if warn level or higher is enabled)
func (l *HTTPLogger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelWarn) {
		log.Printf("[WARN] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// Error logs error messages (always logged)
func (l *HTTPLogger) Error(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelError) {
		log.Printf("[ERROR] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// SetLevel updates the logging level
func (l *HTTPLogger) SetLevel(level entities.LogLevel) {
	l.level = level
}

// HandlerFactory builds a ReloadServer per session
type HandlerFactory struct {
	config        *entities.ServerConfig
	loggingConfig *entities.LoggingConfig
}

// NewHandlerFactory creates a factory. config must not be nil.
func NewHandlerFactory(config *entities.ServerConfig, loggingConfig *entities.LoggingConfig) *HandlerFactory {
	if config == nil {
		panic("server config cannot be nil - provide a valid ServerConfig")
	}
	return &HandlerFactory{
		config:        config,
		loggingConfig: loggingConfig,
	}
}

// NewHandler builds the route table for a session rooted at root
func (f *HandlerFactory) NewHandler(root string, source ports.ReloadSource) ports.ReloadHandler {
	level := entities.LogLevelInfo
	verbose := false
	if f.loggingConfig != nil {
		level = f.loggingConfig.GetLevel()
		verbose = f.loggingConfig.Verbose
	}
	return NewReloadServer(root, source, f.config, NewHTTPLoggerWithLevel("server", verbose, level))
}

// ReloadServer serves one session: static files under root, the reload
// websocket and the reload client script. Routes are fixed at construction.
type ReloadServer struct {
	root     string
	source   ports.ReloadSource
	config   *entities.ServerConfig
	connMgr  *ConnectionManager
	logger   *HTTPLogger
	upgrader websocket.Upgrader
	handler  http.Handler
}

// NewReloadServer creates the HTTP surface of a session
func NewReloadServer(root string, source ports.ReloadSource, config *entities.ServerConfig, logger *HTTPLogger) *ReloadServer {
	if config == nil {
		panic("server config cannot be nil - provide a valid ServerConfig")
	}
	if logger == nil {
		logger = NewHTTPLogger("server", false)
	}

	s := &ReloadServer{
		root:    root,
		source:  source,
		config:  config,
		connMgr: NewConnectionManager(),
		logger:  logger,
	}
	s.upgrader = s.createUpgrader()
	s.handler = s.setupRoutes()

	return s
}

// ServeHTTP dispatches to the session's route table
func (s *ReloadServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ClientCount returns the number of open websocket connections
func (s *ReloadServer) ClientCount() int {
	return s.connMgr.Count()
}

// Close force-closes every websocket connection and waits for them to finish
func (s *ReloadServer) Close() {
	s.connMgr.CloseAll()
}

// setupRoutes configures all HTTP routes
func (s *ReloadServer) setupRoutes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/ws", s.handleWebSocket)
	router.HandleFunc(clientScriptPath, s.handleClientScript).Methods(http.MethodGet, http.MethodHead)
	router.PathPrefix("/").Handler(s.secureFileServer(s.root))

	// Apply middleware in order: logging -> recovery -> CORS
	handler := createLoggingMiddleware(router, s.logger)
	handler = createRecoveryMiddleware(handler, s.logger)

	origins := s.config.GetCORSOrigins()
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	if slices.Contains(origins, "*") {
		return createAllowAllOriginMiddleware(c.Handler(handler))
	}
	return c.Handler(handler)
}

// secureFileServer serves files under root, rejecting paths that escape it
func (s *ReloadServer) secureFileServer(root string) http.Handler {
	fs := http.FileServer(http.Dir(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cleanPath := filepath.Clean("/" + r.URL.Path)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		absPath := filepath.Join(absRoot, filepath.FromSlash(cleanPath))
		if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		info, err := os.Stat(absPath)
		if os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		if s.config.InjectClient && r.Method == http.MethodGet && err == nil {
			if htmlPath, ok := htmlTarget(absPath, info, r.URL.Path); ok {
				s.serveWithClientScript(w, r, htmlPath)
				return
			}
		}

		fs.ServeHTTP(w, r)
	})
}
