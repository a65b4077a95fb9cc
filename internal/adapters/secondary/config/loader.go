package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/servelite/servelite/internal/domain/entities"
	"github.com/servelite/servelite/internal/domain/ports"
)

// FileLoader implements the ConfigLoader interface for TOML and YAML files
type FileLoader struct {
	globalPath string
}

// NewFileLoader creates a loader whose global file lives under the user config dir
func NewFileLoader() *FileLoader {
	homeDir, _ := os.UserHomeDir()
	return &FileLoader{
		globalPath: filepath.Join(homeDir, ".config", "servelite", "config.toml"),
	}
}

// NewFileLoaderWithGlobalPath creates a loader with an explicit global file
func NewFileLoaderWithGlobalPath(globalPath string) *FileLoader {
	return &FileLoader{globalPath: globalPath}
}

// LoadGlobal loads the global configuration file; a missing file is not an error
func (l *FileLoader) LoadGlobal(ctx context.Context) (*entities.Config, error) {
	if _, err := os.Stat(l.globalPath); os.IsNotExist(err) {
		return nil, nil
	}
	return l.LoadFile(ctx, l.globalPath)
}

// LoadFile loads and validates a configuration file. Files ending in .yaml
// or .yml are parsed as YAML, everything else as TOML.
func (l *FileLoader) LoadFile(ctx context.Context, path string) (*entities.Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is the global config or given on the command line
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var config entities.Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parsing YAML from %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parsing TOML from %s: %w", path, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", path, err)
	}

	return &config, nil
}

// CreateDefaults writes the built-in defaults as TOML to path
func (l *FileLoader) CreateDefaults(ctx context.Context, path string) error {
	if err := l.ensureConfigDir(path); err != nil {
		return err
	}

	file, err := os.Create(path) // #nosec G304 - path is controlled (global config path)
	if err != nil {
		return fmt.Errorf("creating config file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	encoder := toml.NewEncoder(file)
	encoder.Indent = "  "

	if err := encoder.Encode(GetDefaultConfig()); err != nil {
		return fmt.Errorf("encoding config to %s: %w", path, err)
	}

	return nil
}

// GetGlobalPath returns the path to the global configuration file
func (l *FileLoader) GetGlobalPath() string {
	return l.globalPath
}

// ensureConfigDir ensures the configuration directory exists
func (l *FileLoader) ensureConfigDir(path string) error {
	dir := filepath.Dir(path)

	// Create config directory with restricted permissions (0750 = owner and group only)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	return nil
}

// Ensure FileLoader implements ports.ConfigLoader
var _ ports.ConfigLoader = (*FileLoader)(nil)
