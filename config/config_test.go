package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/adoc/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode() != model.SafeModeSecure {
		t.Errorf("Mode() = %v, want secure", cfg.Mode())
	}
	if cfg.MaxIncludeDepth != 64 {
		t.Errorf("MaxIncludeDepth = %d, want 64", cfg.MaxIncludeDepth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"numeric safe mode", func(c *Config) { c.SafeMode = "1" }, false},
		{"unknown safe mode", func(c *Config) { c.SafeMode = "paranoid" }, true},
		{"negative depth", func(c *Config) { c.MaxIncludeDepth = -1 }, true},
		{"drop-line policy", func(c *Config) { c.AttributeMissing = "drop-line" }, false},
		{"bad policy", func(c *Config) { c.AttributeMissing = "explode" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `safe_mode: safe
max_include_depth: 8
attribute_missing: warn
sourcemap: true
log_level: debug
attributes:
  product: ACME
  icons: font
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.SafeModeSafe, cfg.Mode())
	assert.Equal(t, 8, cfg.MaxIncludeDepth)
	assert.Equal(t, "warn", cfg.AttributeMissing)
	assert.True(t, cfg.Sourcemap)
	assert.Equal(t, map[string]string{"product": "ACME", "icons": "font"}, cfg.Attributes)
	assert.Equal(t, path, cfg.Source)
}

func TestLoadDefaultPath(t *testing.T) {
	dir := t.TempDir()
	orig := Path
	Path = func() string { return filepath.Join(dir, "config.yaml") }
	defer func() { Path = orig }()

	require.NoError(t, os.WriteFile(Path(), []byte("safe_mode: unsafe\n"), 0o644))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, model.SafeModeUnsafe, cfg.Mode())
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "safe_mode: [unclosed"},
		{"bad safe mode", "safe_mode: wide-open\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadExpandsBaseDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_dir: docs\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.BaseDir), "base_dir %q should be absolute", cfg.BaseDir)
}
