// Package config loads loader defaults from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/tsawler/adoc/internal/logger"
	"github.com/tsawler/adoc/model"
)

// Config holds the settings a Loader can be seeded with.
type Config struct {
	SafeMode         string            `yaml:"safe_mode"`
	Attributes       map[string]string `yaml:"attributes,omitempty"`
	MaxIncludeDepth  int               `yaml:"max_include_depth"`
	AttributeMissing string            `yaml:"attribute_missing,omitempty"`
	Sourcemap        bool              `yaml:"sourcemap"`
	BaseDir          string            `yaml:"base_dir,omitempty"`
	LogLevel         string            `yaml:"log_level"`

	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		SafeMode:        model.SafeModeSecure.String(),
		Attributes:      map[string]string{},
		MaxIncludeDepth: 64,
		LogLevel:        "warn",
	}
}

// Path returns the path to the config file
// Can be overridden for testing
var Path = func() string {
	return filepath.Join(xdg.ConfigHome, "adoc", "config.yaml")
}

// Load reads configuration from path, or from Path() when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Attributes == nil {
		cfg.Attributes = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.BaseDir, err = expandPath(cfg.BaseDir); err != nil {
		return nil, fmt.Errorf("failed to expand base_dir: %w", err)
	}
	cfg.Source = path
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := model.ParseSafeMode(c.SafeMode); err != nil {
		return fmt.Errorf("invalid safe_mode: %w", err)
	}
	if c.MaxIncludeDepth < 0 {
		return fmt.Errorf("max_include_depth must not be negative")
	}
	switch c.AttributeMissing {
	case "", "skip", "drop", "drop-line", "warn":
	default:
		return fmt.Errorf("invalid attribute_missing '%s': must be one of: skip, drop, drop-line, warn", c.AttributeMissing)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level '%s': must be one of: debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// Mode returns the parsed safe mode.
func (c *Config) Mode() model.SafeMode {
	m, _ := model.ParseSafeMode(c.SafeMode)
	return m
}

// Logger builds a logger writing to stderr at the configured level.
func (c *Config) Logger() *logger.Logger {
	l := logger.NewWithLevel(os.Stderr, logger.ParseLevel(c.LogLevel))
	if c.Source != "" {
		l.ConfigLoaded(c.Source)
	}
	return l
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(homeDir, path[1:])
	}
	return filepath.Abs(path)
}
