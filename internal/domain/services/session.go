package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/servelite/servelite/internal/domain/entities"
	"github.com/servelite/servelite/internal/domain/ports"
)

// serverTask is the background listener of one session
type serverTask struct {
	server *http.Server
	done   chan struct{}
	err    error // valid once done is closed
}

// exited reports whether Serve has returned
func (t *serverTask) exited() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// SessionManager owns the single server session: its root directory, bound
// port, listener task, watcher and broadcaster. Start and Stop are serialized
// by one mutex, so at most one listener exists at any time.
type SessionManager struct {
	newWatcher ports.WatcherFactory
	allocator  ports.PortAllocator
	handlers   ports.HandlerFactory
	config     *entities.Config
	logger     *slog.Logger
	listen     func(network, address string) (net.Listener, error)

	mu          sync.Mutex
	state       entities.SessionState
	root        string
	port        int
	task        *serverTask
	handler     ports.ReloadHandler
	bus         *Broadcaster
	watcher     ports.FileWatcher
	watchCancel context.CancelFunc
	forwardDone chan struct{}
	recent      *entities.RecentDirs
}

// NewSessionManager creates an idle session manager
func NewSessionManager(
	config *entities.Config,
	newWatcher ports.WatcherFactory,
	allocator ports.PortAllocator,
	handlers ports.HandlerFactory,
	logger *slog.Logger,
) *SessionManager {
	if config == nil {
		panic("session config cannot be nil - provide a valid Config")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionManager{
		newWatcher: newWatcher,
		allocator:  allocator,
		handlers:   handlers,
		config:     config,
		logger:     logger.With("service", "session"),
		listen:     net.Listen,
		state:      entities.SessionIdle,
		recent:     entities.NewRecentDirs(config.Session.GetMaxRecent()),
	}
}

// Start serves dir, stopping the running session first if there is one.
// On failure nothing of the new session is left behind and the manager is idle.
func (s *SessionManager) Start(ctx context.Context, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.task != nil {
		s.logger.Info("Stopping running session before restart", slog.String("root", s.root))
		s.teardownLocked()
	}

	root, err := resolveRoot(dir)
	if err != nil {
		return "", err
	}

	s.state = entities.SessionStarting
	port, err := s.startLocked(ctx, root)
	if err != nil {
		s.state = entities.SessionIdle
		s.logger.Warn("Failed to start session",
			slog.String("root", root),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	s.recent.Add(root)
	s.state = entities.SessionRunning

	url := entities.ServerURL(port)
	s.logger.Info("Session started", slog.String("root", root), slog.String("url", url))
	return fmt.Sprintf("Server started at %s", url), nil
}

// startLocked wires watcher, broadcaster, routes and listener for root.
// Every step undoes the previous ones when it fails.
func (s *SessionManager) startLocked(ctx context.Context, root string) (int, error) {
	bus := NewBroadcaster(s.config.Watcher.GetBufferSize())

	// The session outlives the Start call, so keep ctx values but not its cancellation.
	watchCtx, watchCancel := context.WithCancel(context.WithoutCancel(ctx))
	watcher := s.newWatcher()

	events, err := watcher.Watch(watchCtx, root)
	if err != nil {
		watchCancel()
		_ = watcher.Stop()
		bus.Close()
		if errors.Is(err, entities.ErrInvalidRoot) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", entities.ErrWatchSetupFailed, err)
	}

	forwardDone := make(chan struct{})
	go s.forwardChanges(watchCtx, events, bus, forwardDone)

	releaseWatch := func() {
		watchCancel()
		_ = watcher.Stop()
		<-forwardDone
	}

	handler := s.handlers.NewHandler(root, bus)

	port, err := s.allocator.FindAvailable(s.config.Server.GetPort(), s.config.Server.GetMaxPortTries())
	if err != nil {
		bus.Close()
		handler.Close()
		releaseWatch()
		if !errors.Is(err, entities.ErrNoPortAvailable) {
			err = fmt.Errorf("%w: %w", entities.ErrNoPortAvailable, err)
		}
		return 0, err
	}

	addr := net.JoinHostPort(s.config.Server.GetHost(), strconv.Itoa(port))
	listener, err := s.listen("tcp", addr)
	if err != nil {
		bus.Close()
		handler.Close()
		releaseWatch()
		return 0, fmt.Errorf("%w: %s: %w", entities.ErrBindFailed, addr, err)
	}

	task := &serverTask{
		server: &http.Server{
			Handler:      handler,
			ReadTimeout:  s.config.Server.GetReadTimeout(),
			WriteTimeout: s.config.Server.GetWriteTimeout(),
			IdleTimeout:  s.config.Server.GetIdleTimeout(),
		},
		done: make(chan struct{}),
	}

	go func() {
		defer close(task.done)
		if err := task.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			task.err = err
			s.logger.Error("HTTP listener exited", slog.String("addr", addr), slog.String("error", err.Error()))
		}
	}()

	s.root = root
	s.port = port
	s.task = task
	s.handler = handler
	s.bus = bus
	s.watcher = watcher
	s.watchCancel = watchCancel
	s.forwardDone = forwardDone

	return port, nil
}

// forwardChanges publishes one reload signal per modification event
func (s *SessionManager) forwardChanges(ctx context.Context, events <-chan ports.FileChangeEvent, bus *Broadcaster, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Type != ports.Modified {
				continue
			}

			n := bus.Publish()
			s.logger.Debug("Reload signal published",
				slog.String("path", event.Path),
				slog.Int("subscribers", n),
			)
		}
	}
}

// Stop stops the running session. It returns entities.ErrNotRunning when
// there is none, including when the listener already exited on its own.
func (s *SessionManager) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.task == nil {
		return entities.ErrNotRunning
	}

	task := s.task
	root := s.root
	s.teardownLocked()

	if task.err != nil {
		return fmt.Errorf("%w: listener exited: %w", entities.ErrNotRunning, task.err)
	}

	s.logger.Info("Session stopped", slog.String("root", root))
	return nil
}

// Close stops the session if one is running. It is meant for process exit.
func (s *SessionManager) Close() {
	if err := s.Stop(); err != nil && !errors.Is(err, entities.ErrNotRunning) {
		s.logger.Warn("Failed to stop session on close", slog.String("error", err.Error()))
	}
}

// teardownLocked aborts the listener and releases everything the session
// owns. The port is free when it returns.
func (s *SessionManager) teardownLocked() {
	s.state = entities.SessionStopping

	if s.task != nil {
		// Close, not Shutdown: in-flight requests are cut.
		_ = s.task.server.Close()
		<-s.task.done
	}
	if s.bus != nil {
		s.bus.Close()
	}
	if s.handler != nil {
		s.handler.Close()
	}
	if s.watcher != nil {
		s.watchCancel()
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn("Failed to release watcher", slog.String("error", err.Error()))
		}
		<-s.forwardDone
	}

	s.root = ""
	s.port = 0
	s.task = nil
	s.handler = nil
	s.bus = nil
	s.watcher = nil
	s.watchCancel = nil
	s.forwardDone = nil
	s.state = entities.SessionIdle
}

// runningLocked reports whether a listener task is alive
func (s *SessionManager) runningLocked() bool {
	return s.task != nil && !s.task.exited()
}

// IsRunning returns whether a session is serving
func (s *SessionManager) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningLocked()
}

// Info returns a snapshot of the session
func (s *SessionManager) Info() entities.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.runningLocked() {
		return entities.SessionInfo{State: entities.SessionIdle}
	}

	return entities.SessionInfo{
		State:   s.state,
		Root:    s.root,
		Port:    s.port,
		URL:     entities.ServerURL(s.port),
		Clients: s.handler.ClientCount(),
	}
}

// URL returns the URL of the running session
func (s *SessionManager) URL() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.runningLocked() {
		return "", entities.ErrNotRunning
	}
	return entities.ServerURL(s.port), nil
}

// Recent returns the recent-directories list, most recent first
func (s *SessionManager) Recent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.List()
}

// StartRecent starts the i-th recent directory
func (s *SessionManager) StartRecent(ctx context.Context, i int) (string, error) {
	s.mu.Lock()
	dir, ok := s.recent.Get(i)
	s.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("%w: no recent directory at index %d", entities.ErrInvalidRoot, i)
	}
	return s.Start(ctx, dir)
}

// resolveRoot returns the absolute path of dir if it is an existing directory
func resolveRoot(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: empty path", entities.ErrInvalidRoot)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", entities.ErrInvalidRoot, dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", entities.ErrInvalidRoot, abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", entities.ErrInvalidRoot, abs)
	}

	return abs, nil
}

// Ensure SessionManager implements ports.SessionService
var _ ports.SessionService = (*SessionManager)(nil)
