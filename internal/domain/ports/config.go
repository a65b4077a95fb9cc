package ports

import (
	"context"

	"github.com/servelite/servelite/internal/domain/entities"
)

// ConfigLoader defines the interface for loading configuration files
type ConfigLoader interface {
	// LoadGlobal loads the global configuration file, returning nil when absent
	LoadGlobal(ctx context.Context) (*entities.Config, error)

	// LoadFile loads a configuration file, TOML or YAML by extension
	LoadFile(ctx context.Context, path string) (*entities.Config, error)

	// CreateDefaults creates a default configuration file at the specified path
	CreateDefaults(ctx context.Context, path string) error

	// GetGlobalPath returns the path to the global configuration file
	GetGlobalPath() string
}

// ConfigMerger defines the interface for merging configurations
type ConfigMerger interface {
	// Merge merges multiple configurations with later configs taking precedence
	Merge(configs ...*entities.Config) *entities.Config

	// ApplyFlags applies CLI flag overrides to a configuration
	ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config

	// ApplyEnvVars applies environment variable overrides to a configuration
	ApplyEnvVars(config *entities.Config) *entities.Config
}

// ConfigService resolves the effective configuration
type ConfigService interface {
	// LoadConfig merges defaults, the global file, an optional explicit file,
	// environment variables and flags, in increasing precedence
	LoadConfig(ctx context.Context, path string, flags map[string]interface{}) (*entities.Config, error)

	// GetDefaultConfig returns the default configuration
	GetDefaultConfig() *entities.Config

	// ValidateConfig validates a configuration
	ValidateConfig(config *entities.Config) error

	// CreateConfigFile writes the defaults to path, or to the global file when path is empty
	CreateConfigFile(ctx context.Context, path string) (string, error)
}
