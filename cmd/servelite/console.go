package main

import (
	"github.com/spf13/cobra"

	"github.com/servelite/servelite/internal/adapters/primary/console"
	"github.com/servelite/servelite/internal/adapters/secondary/browser"
	"github.com/servelite/servelite/internal/adapters/secondary/config"
)

func runConsole(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, cmd, newConfigService(config.NewFileLoader()))
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, cmd.ErrOrStderr())
	session := newSession(cfg, logger)
	defer session.Close()

	controller := console.NewController(
		session,
		browser.NewLauncher(cfg.Browser),
		cmd.InOrStdin(),
		cmd.OutOrStdout(),
		logger,
	)
	return controller.Run(ctx)
}
