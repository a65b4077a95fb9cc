package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/servelite/servelite/internal/adapters/secondary/browser"
	"github.com/servelite/servelite/internal/adapters/secondary/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Serve a directory with live reload",
	Long: `Start a local HTTP server for a directory. Browsers connected to the
reload endpoint are told to refresh whenever a file under it is modified.
The server runs until interrupted.

Example:
  servelite serve ./public
  servelite serve site --port 9000 --open`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Defaults come from config loading; flags only override when set
	serveCmd.Flags().IntP("port", "p", 0, "Preferred port (overrides config)")
	serveCmd.Flags().String("host", "", "Loopback address to bind (overrides config)")
	serveCmd.Flags().BoolP("open", "o", false, "Open the browser once the server is up")
	serveCmd.Flags().String("watcher", "", "Watcher backend: fsnotify or poll")
	serveCmd.Flags().Bool("inject", false, "Inject the reload client into HTML pages")
	serveCmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")
}

func runServe(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, cmd, newConfigService(config.NewFileLoader()))
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, cmd.ErrOrStderr())
	session := newSession(cfg, logger)
	defer session.Close()

	msg, err := session.Start(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)

	if cfg.Browser.AutoOpen {
		url, err := session.URL()
		if err == nil {
			err = browser.NewLauncher(cfg.Browser).Open(url)
		}
		if err != nil {
			logger.Warn("Failed to open browser", slog.String("error", err.Error()))
		}
	}

	<-ctx.Done()
	logger.Info("Shutting down server")
	return nil
}
