// Package config loads arbor's settings. Values come from three layers,
// later ones winning: built-in defaults, the YAML config file, and
// ARBOR_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// envPrefix is the prefix for environment overrides. envconfig extends
// it with the struct field name when it recurses into a section, so
// section leaves resolve to names like ARBOR_WORKSPACE_BASE_DIR and
// ARBOR_LOG_LEVEL. An explicit envconfig tag is also consulted verbatim
// as a fallback variable name, which is how the flat names
// (ARBOR_DISABLE_ORPHAN_SCAN, GITHUB_TOKEN) work.
const envPrefix = "arbor"

// Config holds all application configuration.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	AutoMerge AutoMergeConfig `yaml:"automerge"`
	Forge     ForgeConfig     `yaml:"forge"`
	Log       LogConfig       `yaml:"log"`
}

// WorkspaceConfig holds workspace orchestration settings.
type WorkspaceConfig struct {
	// BaseDir is where workspace containers are created
	// (ARBOR_WORKSPACE_BASE_DIR).
	BaseDir string `yaml:"base_dir" split_words:"true"`
	// DisableOrphanScan stops the orphan sweep from touching anything.
	// It is re-read before every sweep. The flat ARBOR_DISABLE_ORPHAN_SCAN
	// name is an operator kill switch, so the tag carries the full
	// variable name for the fallback lookup.
	DisableOrphanScan bool `yaml:"disable_orphan_scan" envconfig:"ARBOR_DISABLE_ORPHAN_SCAN"`
}

// AutoMergeConfig holds auto-merge settings.
type AutoMergeConfig struct {
	// Enabled opts sessions into merging without review
	// (ARBOR_AUTOMERGE_ENABLED).
	Enabled bool `yaml:"enabled"`
	// OpenReviews opens a PR/MR after each successful merge push
	// (ARBOR_AUTOMERGE_OPEN_REVIEWS).
	OpenReviews bool `yaml:"open_reviews" split_words:"true"`
}

// ForgeConfig holds hosting-service API tokens. The plain GITHUB_TOKEN /
// GITLAB_TOKEN variables work via the fallback lookup, the same names
// other tooling already exports.
type ForgeConfig struct {
	GitHubToken string `yaml:"github_token" envconfig:"GITHUB_TOKEN"`
	GitLabToken string `yaml:"gitlab_token" envconfig:"GITLAB_TOKEN"`
}

// LogConfig holds logging settings (ARBOR_LOG_LEVEL, ARBOR_LOG_JSON).
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Workspace: WorkspaceConfig{
			BaseDir: filepath.Join(home, ".arbor", "workspaces"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".arbor", "config.yaml")
}

// Load builds the configuration from defaults, the YAML file at path (if
// it exists), and environment overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := NewDefault()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus env only.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
