package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/servelite/servelite/internal/domain/entities"
)

// GetDefaultConfig returns the built-in default configuration
func GetDefaultConfig() *entities.Config {
	return &entities.Config{
		Server: entities.ServerConfig{
			Host:         "127.0.0.1",
			Port:         8000,
			MaxPortTries: 100,
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
			CORSOrigins:  []string{"*"},
			InjectClient: false,
		},
		Watcher: entities.WatcherConfig{
			Backend:    entities.WatcherBackendFSNotify,
			IntervalMs: 200,
			BufferSize: 16,
		},
		Session: entities.SessionConfig{
			MaxRecent: entities.DefaultMaxRecent,
		},
		Browser: entities.BrowserConfig{
			AutoOpen: false,
			Browser:  "default",
		},
		Logging: entities.LoggingConfig{
			Level:      "info",
			Verbose:    false,
			JSONFormat: false,
		},
	}
}

// applyEnvironmentOverrides applies SERVELITE_* environment variables
func applyEnvironmentOverrides(config *entities.Config) {
	config.Server.Host = getEnvOrDefault("SERVELITE_HOST", config.Server.Host)
	config.Server.Port = getEnvIntOrDefault("SERVELITE_PORT", config.Server.Port)
	config.Server.MaxPortTries = getEnvIntOrDefault("SERVELITE_MAX_PORT_TRIES", config.Server.MaxPortTries)
	config.Server.CORSOrigins = getEnvSliceOrDefault("SERVELITE_CORS_ORIGINS", config.Server.CORSOrigins)
	config.Server.InjectClient = getEnvBoolOrDefault("SERVELITE_INJECT_CLIENT", config.Server.InjectClient)

	config.Watcher.Backend = getEnvOrDefault("SERVELITE_WATCHER", config.Watcher.Backend)
	config.Watcher.IntervalMs = getEnvIntOrDefault("SERVELITE_WATCH_INTERVAL", config.Watcher.IntervalMs)

	config.Session.MaxRecent = getEnvIntOrDefault("SERVELITE_MAX_RECENT", config.Session.MaxRecent)

	config.Browser.AutoOpen = getEnvBoolOrDefault("SERVELITE_BROWSER_AUTO_OPEN", config.Browser.AutoOpen)
	config.Browser.Browser = getEnvOrDefault("SERVELITE_BROWSER", config.Browser.Browser)

	config.Logging.Level = getEnvOrDefault("SERVELITE_LOG_LEVEL", config.Logging.Level)
	config.Logging.Verbose = getEnvBoolOrDefault("SERVELITE_LOG_VERBOSE", config.Logging.Verbose)
	config.Logging.JSONFormat = getEnvBoolOrDefault("SERVELITE_LOG_JSON", config.Logging.JSONFormat)
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvSliceOrDefault returns environment variable as slice or default
func getEnvSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		// Split by comma and trim whitespace
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
