package management

import (
	"fmt"

	"github.com/rzpsarthak13/mgmt-repository/internal/registry"
)

// Config is the configuration of a Client. See DefaultConfig for the
// defaults and LoadConfig for the sources it can be read from.
type Config = registry.InternalConfig

// DefaultConfig returns a configuration for a local MySQL server with the
// cache and the change feed disabled.
func DefaultConfig() *Config {
	return registry.DefaultConfig()
}

// LoadConfig reads the YAML or JSON file at path, when path is not empty,
// then applies the MGMT_REPOSITORY_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cm := registry.NewConfigManager()
	if path != "" {
		if err := cm.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cm.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return cm.GetConfig(), nil
}
