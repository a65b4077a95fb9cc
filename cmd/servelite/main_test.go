package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servelite/servelite/internal/adapters/secondary/config"
)

func TestVersionFlag(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "ServeLite v"+Version+"\n", buf.String())
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servelite.toml")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"config", "init", path})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Wrote "+path)

	loaded, err := config.NewFileLoaderWithGlobalPath(path).LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 8000, loaded.Server.Port)

	// A second run refuses to overwrite
	rootCmd.SetArgs([]string{"config", "init", path})
	err = rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	cmd.Flags().String("config", "", "")
	cmd.Flags().Bool("verbose", false, "")
	cmd.Flags().Int("port", 0, "")
	cmd.Flags().String("host", "", "")
	cmd.Flags().Bool("open", false, "")
	cmd.Flags().String("watcher", "", "")
	return cmd
}

func TestLoadConfig(t *testing.T) {
	ctx := context.Background()
	configs := newConfigService(config.NewFileLoaderWithGlobalPath(filepath.Join(t.TempDir(), "missing.toml")))

	t.Run("defaults", func(t *testing.T) {
		cmd := newTestCommand()
		require.NoError(t, cmd.ParseFlags(nil))

		cfg, err := loadConfig(ctx, cmd, configs)
		require.NoError(t, err)
		assert.Equal(t, 8000, cfg.Server.GetPort())
		assert.Equal(t, "127.0.0.1", cfg.Server.GetHost())
	})

	t.Run("config file then flags", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "servelite.yml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9100\nwatcher:\n  backend: poll\n"), 0644))

		cmd := newTestCommand()
		require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--port", "9200"}))

		cfg, err := loadConfig(ctx, cmd, configs)
		require.NoError(t, err)
		assert.Equal(t, 9200, cfg.Server.Port)
		assert.Equal(t, "poll", cfg.Watcher.Backend)
	})

	t.Run("rejects non-loopback host flag", func(t *testing.T) {
		cmd := newTestCommand()
		require.NoError(t, cmd.ParseFlags([]string{"--host", "0.0.0.0"}))

		_, err := loadConfig(ctx, cmd, configs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestServeCommandArgs(t *testing.T) {
	assert.NoError(t, serveCmd.Args(serveCmd, nil))
	assert.NoError(t, serveCmd.Args(serveCmd, []string{"site"}))
	assert.Error(t, serveCmd.Args(serveCmd, []string{"a", "b"}))
}
