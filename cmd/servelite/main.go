package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/servelite/servelite/internal/domain/entities"
)

var (
	// Version is set during build
	Version = "0.1.0"

	// BuildDate is set during build
	BuildDate = "unknown"
)

// rootCmd represents the base command. Without a subcommand it runs the
// interactive console.
var rootCmd = &cobra.Command{
	Use:   "servelite",
	Short: "A local static file server with live reload",
	Long: `servelite serves a directory over HTTP on the loopback interface and
tells connected browsers to reload whenever a file under it changes.

Run it without arguments for an interactive console, or use
"servelite serve <dir>" to serve a single directory until interrupted.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runConsole,
}

func main() {
	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Execute root command with context
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(entities.AppName + " v{{.Version}}\n")

	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file, TOML or YAML (default: ~/.config/servelite/config.toml)")
}
