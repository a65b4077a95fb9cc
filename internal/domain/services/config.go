package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/servelite/servelite/internal/domain/entities"
	"github.com/servelite/servelite/internal/domain/ports"
)

// ConfigService implements the configuration service business logic
type ConfigService struct {
	loader ports.ConfigLoader
	merger ports.ConfigMerger
}

// NewConfigService creates a new configuration service
func NewConfigService(loader ports.ConfigLoader, merger ports.ConfigMerger) *ConfigService {
	return &ConfigService{
		loader: loader,
		merger: merger,
	}
}

// LoadConfig loads the complete configuration with hierarchy and overrides.
// path names an explicit config file and may be empty.
func (s *ConfigService) LoadConfig(ctx context.Context, path string, flags map[string]interface{}) (*entities.Config, error) {
	// Start with defaults
	configs := []*entities.Config{s.GetDefaultConfig()}

	// Global config is optional
	globalConfig, err := s.loader.LoadGlobal(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading global config: %w", err)
	}
	if globalConfig != nil {
		configs = append(configs, globalConfig)
	}

	if path != "" {
		fileConfig, err := s.loader.LoadFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		configs = append(configs, fileConfig)
	}

	// Merge configurations in order of precedence: defaults → global → file
	mergedConfig := s.merger.Merge(configs...)

	// Apply environment variable overrides
	envConfig := s.merger.ApplyEnvVars(mergedConfig)

	// Apply CLI flag overrides (highest precedence)
	finalConfig := s.merger.ApplyFlags(envConfig, flags)

	// Final validation
	if err := s.ValidateConfig(finalConfig); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return finalConfig, nil
}

// GetDefaultConfig returns the default configuration
func (s *ConfigService) GetDefaultConfig() *entities.Config {
	// Merge with no arguments returns defaults
	return s.merger.Merge()
}

// ValidateConfig validates a configuration
func (s *ConfigService) ValidateConfig(config *entities.Config) error {
	if config == nil {
		return errors.New("config cannot be nil")
	}

	return config.Validate()
}

// CreateConfigFile writes the default configuration and returns where it went
func (s *ConfigService) CreateConfigFile(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = s.loader.GetGlobalPath()
	}
	if err := s.loader.CreateDefaults(ctx, path); err != nil {
		return "", err
	}
	return path, nil
}

// Ensure ConfigService implements ports.ConfigService
var _ ports.ConfigService = (*ConfigService)(nil)
