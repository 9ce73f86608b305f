package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working and config directories.
const FileName = "animsolve.yaml"

// Save writes the config to the user's config directory and returns the
// path written.
func (c *Config) Save() (string, error) {
	path := filepath.Join(ConfigDir(), FileName)
	return path, c.SaveTo(path)
}

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
