package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	httpadapter "github.com/servelite/servelite/internal/adapters/primary/http"
	"github.com/servelite/servelite/internal/adapters/secondary/config"
	"github.com/servelite/servelite/internal/adapters/secondary/netport"
	"github.com/servelite/servelite/internal/adapters/secondary/watcher"
	"github.com/servelite/servelite/internal/domain/entities"
	"github.com/servelite/servelite/internal/domain/ports"
	"github.com/servelite/servelite/internal/domain/services"
)

// newConfigService wires the configuration service to the file loader
func newConfigService(loader *config.FileLoader) *services.ConfigService {
	return services.NewConfigService(loader, config.NewConfigMerger())
}

// loadConfig resolves the effective configuration for cmd
func loadConfig(ctx context.Context, cmd *cobra.Command, configs ports.ConfigService) (*entities.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return configs.LoadConfig(ctx, path, collectFlags(cmd))
}

// collectFlags returns the flags the user set explicitly, keyed for ApplyFlags
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	fs := cmd.Flags()

	if fs.Changed("port") {
		flags["port"], _ = fs.GetInt("port")
	}
	if fs.Changed("host") {
		flags["host"], _ = fs.GetString("host")
	}
	if fs.Changed("open") {
		flags["open"], _ = fs.GetBool("open")
	}
	if fs.Changed("watcher") {
		flags["watcher"], _ = fs.GetString("watcher")
	}
	if fs.Changed("inject") {
		flags["inject"], _ = fs.GetBool("inject")
	}
	if fs.Changed("log-level") {
		flags["log-level"], _ = fs.GetString("log-level")
	}
	if fs.Changed("verbose") {
		flags["verbose"], _ = fs.GetBool("verbose")
	}

	return flags
}

// newLogger builds the process logger from the logging section
func newLogger(cfg entities.LoggingConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.GetLevel() {
	case entities.LogLevelDebug:
		level = slog.LevelDebug
	case entities.LogLevelWarn:
		level = slog.LevelWarn
	case entities.LogLevelError:
		level = slog.LevelError
	}
	if cfg.Verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.JSONFormat {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newSession wires the session manager to its adapters
func newSession(cfg *entities.Config, logger *slog.Logger) *services.SessionManager {
	return services.NewSessionManager(
		cfg,
		watcher.NewFactory(cfg.Watcher, logger),
		netport.NewAllocator(cfg.Server.GetHost()),
		httpadapter.NewHandlerFactory(&cfg.Server, &cfg.Logging),
		logger,
	)
}
