// Package config provides configuration loading and management for
// image-partition-mcp. It handles loading configuration from YAML files,
// environment overrides, and default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-partition-mcp/internal/quantize"
)

// Environment variables that override the file configuration.
const (
	EnvLogLevel = "PARTITION_MCP_LOG_LEVEL"
	EnvHTTPAddr = "PARTITION_MCP_HTTP_ADDR"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Quantize holds the defaults of the color quantizer.
	Quantize struct {
		// Mode is "continuous" or "iterative" (or the -c / -i shorthands).
		Mode string `yaml:"mode"`

		// Clusters is the default number of colors, 1-255.
		Clusters int `yaml:"clusters"`
	} `yaml:"quantize"`

	// Segment holds the defaults of the region grower.
	Segment struct {
		// Preprocess binarizes and cleans the image before growing regions.
		Preprocess bool `yaml:"preprocess"`

		// Threshold is the binarization level, 0 for automatic (Otsu).
		Threshold int `yaml:"threshold"`

		// MorphRadius is the closing/opening radius, 0 to skip morphology.
		MorphRadius float64 `yaml:"morphRadius"`
	} `yaml:"segment"`

	// Server controls the transports.
	Server struct {
		// HTTPAddr enables the HTTP listener when non-empty, e.g. ":8080".
		HTTPAddr string `yaml:"httpAddr"`

		// MaxTasks bounds the number of retained async tasks.
		MaxTasks int `yaml:"maxTasks"`

		// MaxPreviewSide bounds the longest side of inline preview images,
		// 0 for no preview.
		MaxPreviewSide int `yaml:"maxPreviewSide"`
	} `yaml:"server"`

	Log struct {
		// Level is "info" or "debug".
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Quantize.Mode = "continuous"
	cfg.Quantize.Clusters = 8

	cfg.Segment.Preprocess = false
	cfg.Segment.Threshold = 0
	cfg.Segment.MorphRadius = 1

	cfg.Server.HTTPAddr = ""
	cfg.Server.MaxTasks = 64
	cfg.Server.MaxPreviewSide = 512

	cfg.Log.Level = "info"

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
// Keys missing from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}
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

	return cfg, nil
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

// ApplyEnv overrides the log level and HTTP address from the environment.
// Unset or empty variables leave the configuration unchanged.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHTTPAddr)); v != "" {
		c.Server.HTTPAddr = v
	}
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.Log.Level == "debug"
}

// QuantizeMode returns the parsed default quantize mode.
func (c *Config) QuantizeMode() quantize.Mode {
	m, _ := quantize.ParseMode(c.Quantize.Mode)
	return m
}

// Validate checks value ranges. Every error wraps ErrInvalid.
func (c *Config) Validate() error {
	if _, ok := quantize.ParseMode(c.Quantize.Mode); !ok {
		return fmt.Errorf("%w: unknown quantize mode %q", ErrInvalid, c.Quantize.Mode)
	}
	if c.Quantize.Clusters < 1 || c.Quantize.Clusters > 255 {
		return fmt.Errorf("%w: quantize clusters must be 1-255, got %d", ErrInvalid, c.Quantize.Clusters)
	}
	if c.Segment.Threshold < 0 || c.Segment.Threshold > 255 {
		return fmt.Errorf("%w: segment threshold must be 0-255, got %d", ErrInvalid, c.Segment.Threshold)
	}
	if c.Segment.MorphRadius < 0 {
		return fmt.Errorf("%w: segment morphRadius must not be negative, got %g", ErrInvalid, c.Segment.MorphRadius)
	}
	if c.Server.MaxTasks < 1 {
		return fmt.Errorf("%w: server maxTasks must be at least 1, got %d", ErrInvalid, c.Server.MaxTasks)
	}
	if c.Server.MaxPreviewSide < 0 {
		return fmt.Errorf("%w: server maxPreviewSide must not be negative, got %d", ErrInvalid, c.Server.MaxPreviewSide)
	}
	switch c.Log.Level {
	case "info", "debug":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}
