package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		FileName,
		filepath.Join(ConfigDir(), FileName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Crunchyroll")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Crunchyroll")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "crunchyroll")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "crunchyroll")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	resolvePaths(cfg, filepath.Dir(path))
	return nil
}

// resolvePaths makes relative rig and asset paths relative to the config
// file's directory.
func resolvePaths(cfg *Config, dir string) {
	if cfg.Rig != "" && !filepath.IsAbs(cfg.Rig) {
		cfg.Rig = filepath.Join(dir, cfg.Rig)
	}
	for i := range cfg.Tracks {
		if p := cfg.Tracks[i].Asset; p != "" && !filepath.IsAbs(p) {
			cfg.Tracks[i].Asset = filepath.Join(dir, p)
		}
	}
}
