package entities

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Watcher WatcherConfig `toml:"watcher" yaml:"watcher"`
	Session SessionConfig `toml:"session" yaml:"session"`
	Browser BrowserConfig `toml:"browser" yaml:"browser"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Watcher.Validate(); err != nil {
		return fmt.Errorf("watcher config: %w", err)
	}

	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}

	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host         string   `toml:"host" yaml:"host"`
	Port         int      `toml:"port" yaml:"port"`
	MaxPortTries int      `toml:"max_port_tries" yaml:"max_port_tries"`
	ReadTimeout  int      `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int      `toml:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  int      `toml:"idle_timeout" yaml:"idle_timeout"`
	CORSOrigins  []string `toml:"cors_origins" yaml:"cors_origins"`
	InjectClient bool     `toml:"inject_client" yaml:"inject_client"`
}

// Validate validates server configuration
func (s ServerConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return errors.New("port must be between 0 and 65535")
	}

	if s.MaxPortTries < 0 {
		return errors.New("max port tries must be non-negative")
	}

	// The server never leaves the local machine.
	if s.Host != "" {
		ip := net.ParseIP(s.Host)
		if ip == nil || !ip.IsLoopback() {
			return fmt.Errorf("host must be a loopback address: %s", s.Host)
		}
	}

	if s.ReadTimeout < 0 {
		return errors.New("read timeout must be non-negative")
	}

	if s.WriteTimeout < 0 {
		return errors.New("write timeout must be non-negative")
	}

	if s.IdleTimeout < 0 {
		return errors.New("idle timeout must be non-negative")
	}

	for _, origin := range s.CORSOrigins {
		if origin == "" {
			return errors.New("CORS origin cannot be empty")
		}
		if origin == "*" {
			continue
		}
		if len(origin) < 7 || (!strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://")) {
			return fmt.Errorf("invalid CORS origin format: %s (must start with http:// or https://)", origin)
		}
	}

	return nil
}

// GetHost returns the bind address, defaulting to IPv4 loopback
func (s ServerConfig) GetHost() string {
	if s.Host == "" {
		return "127.0.0.1"
	}
	return s.Host
}

// GetPort returns the preferred port
func (s ServerConfig) GetPort() int {
	if s.Port <= 0 {
		return 8000
	}
	return s.Port
}

// GetMaxPortTries returns how many consecutive ports the allocator probes
func (s ServerConfig) GetMaxPortTries() int {
	if s.MaxPortTries <= 0 {
		return 100
	}
	return s.MaxPortTries
}

// GetReadTimeout returns the read timeout as a duration
func (s ServerConfig) GetReadTimeout() time.Duration {
	if s.ReadTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the write timeout as a duration
func (s ServerConfig) GetWriteTimeout() time.Duration {
	if s.WriteTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetIdleTimeout returns the keep-alive idle timeout as a duration
func (s ServerConfig) GetIdleTimeout() time.Duration {
	if s.IdleTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.IdleTimeout) * time.Second
}

// GetCORSOrigins returns CORS origins, allowing any origin when unset
func (s ServerConfig) GetCORSOrigins() []string {
	if len(s.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return s.CORSOrigins
}

// Watcher backends
const (
	WatcherBackendFSNotify = "fsnotify"
	WatcherBackendPoll     = "poll"
)

// WatcherConfig contains file watcher configuration
type WatcherConfig struct {
	Backend    string `toml:"backend" yaml:"backend"`
	IntervalMs int    `toml:"interval_ms" yaml:"interval_ms"`
	BufferSize int    `toml:"buffer_size" yaml:"buffer_size"`
}

// Validate validates watcher configuration
func (w WatcherConfig) Validate() error {
	switch w.Backend {
	case "", WatcherBackendFSNotify, WatcherBackendPoll:
	default:
		return fmt.Errorf("unknown watcher backend: %s (must be fsnotify or poll)", w.Backend)
	}

	if w.IntervalMs != 0 && w.IntervalMs < 50 {
		return errors.New("watcher interval must be at least 50ms")
	}

	if w.BufferSize < 0 {
		return errors.New("buffer size must be non-negative")
	}

	return nil
}

// GetBackend returns the watcher backend with default
func (w WatcherConfig) GetBackend() string {
	if w.Backend == "" {
		return WatcherBackendFSNotify
	}
	return w.Backend
}

// GetInterval returns the polling interval as a duration
func (w WatcherConfig) GetInterval() time.Duration {
	if w.IntervalMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(w.IntervalMs) * time.Millisecond
}

// GetBufferSize returns the per-subscriber reload buffer size
func (w WatcherConfig) GetBufferSize() int {
	if w.BufferSize <= 0 {
		return 16
	}
	return w.BufferSize
}

// SessionConfig contains session manager configuration
type SessionConfig struct {
	MaxRecent int `toml:"max_recent" yaml:"max_recent"`
}

// Validate validates session configuration
func (s SessionConfig) Validate() error {
	if s.MaxRecent < 0 {
		return errors.New("max recent must be non-negative")
	}
	if s.MaxRecent > DefaultMaxRecent {
		return fmt.Errorf("max recent must be at most %d", DefaultMaxRecent)
	}
	return nil
}

// GetMaxRecent returns the recent-directories capacity, never above DefaultMaxRecent
func (s SessionConfig) GetMaxRecent() int {
	if s.MaxRecent <= 0 || s.MaxRecent > DefaultMaxRecent {
		return DefaultMaxRecent
	}
	return s.MaxRecent
}

// BrowserConfig contains browser launch configuration
type BrowserConfig struct {
	AutoOpen bool   `toml:"auto_open" yaml:"auto_open"`
	Browser  string `toml:"browser" yaml:"browser"`
}

// Validate validates browser configuration
func (b BrowserConfig) Validate() error {
	// Browser name validation is minimal since it's platform-dependent
	return nil
}

// LogLevel represents logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `toml:"level" yaml:"level"`             // debug, info, warn, error
	Verbose    bool   `toml:"verbose" yaml:"verbose"`         // Enable verbose logging
	JSONFormat bool   `toml:"json_format" yaml:"json_format"` // Output logs in JSON format
}

// Validate validates logging configuration
func (l LoggingConfig) Validate() error {
	switch LogLevel(l.Level) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	case "":
		// Empty is okay, will use default
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", l.Level)
	}

	return nil
}

// GetLevel returns the log level with default
func (l LoggingConfig) GetLevel() LogLevel {
	if l.Level == "" {
		return LogLevelInfo
	}
	return LogLevel(l.Level)
}
