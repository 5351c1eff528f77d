// Package config loads the YAML settings shared by the svdimage commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	Session struct {
		// HistoryLimit is the number of results a session keeps
		HistoryLimit int `yaml:"historyLimit"`
	} `yaml:"session"`

	Rank struct {
		// Strict rejects ranks above the number of singular values instead of clamping
		Strict bool `yaml:"strict"`
	} `yaml:"rank"`

	// Terminal preview size in cells
	Display struct {
		Cols int `yaml:"cols"`
		Rows int `yaml:"rows"`
	} `yaml:"display"`

	Export struct {
		JPEGQuality int `yaml:"jpegQuality"`
		// Dir is prepended to relative save paths
		Dir string `yaml:"dir"`
	} `yaml:"export"`

	Fetch struct {
		CacheDir string `yaml:"cacheDir"`
		// IntervalMs is the minimum gap between two HTTP requests
		IntervalMs int `yaml:"intervalMs"`
	} `yaml:"fetch"`

	Sweep struct {
		Ranks    []int     `yaml:"ranks"`
		Energies []float64 `yaml:"energies"`
		DB       string    `yaml:"db"`
	} `yaml:"sweep"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Session.HistoryLimit = 16
	cfg.Rank.Strict = false

	cfg.Display.Cols = 80
	cfg.Display.Rows = 40

	cfg.Export.JPEGQuality = 90
	cfg.Export.Dir = "."

	cfg.Fetch.CacheDir = filepath.Join(os.TempDir(), "svdimage_http_cache")
	cfg.Fetch.IntervalMs = 250

	cfg.Sweep.Ranks = []int{1, 2, 5, 10, 20, 50, 100}
	cfg.Sweep.Energies = []float64{50, 80, 90, 95, 99, 99.9}
	cfg.Sweep.DB = "sweep.db"

	return cfg
}

// FetchInterval returns Fetch.IntervalMs as a duration.
func (c *Config) FetchInterval() time.Duration {
	return time.Duration(c.Fetch.IntervalMs) * time.Millisecond
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
// Keys missing from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	switch {
	case c.Session.HistoryLimit < 1:
		return fmt.Errorf("session.historyLimit must be positive, got %d", c.Session.HistoryLimit)
	case c.Display.Cols < 1 || c.Display.Rows < 1:
		return fmt.Errorf("display size must be positive, got %dx%d", c.Display.Cols, c.Display.Rows)
	case c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100:
		return fmt.Errorf("export.jpegQuality must be in [1, 100], got %d", c.Export.JPEGQuality)
	case c.Fetch.IntervalMs < 0:
		return fmt.Errorf("fetch.intervalMs must not be negative, got %d", c.Fetch.IntervalMs)
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
