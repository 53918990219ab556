// Package config loads eip-convert settings from YAML with environment
// overrides. Every setting is optional; the defaults reproduce the reference
// converter's output exactly.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all eip-convert configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Segments SegmentsConfig `yaml:"segments"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// LogConfig configures the stderr logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

type SegmentsConfig struct {
	// StrictCount rejects reports with more than 32 entropy values
	// instead of ignoring the surplus.
	StrictCount bool `yaml:"strict_count"`
}

type AnalysisConfig struct {
	// StrictContext rejects data lines that precede every segment header
	// instead of labelling them "?".
	StrictContext bool `yaml:"strict_context"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. An empty path or a missing file
// yields the defaults; environment overrides apply in every case.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetStrict enables every strict switch.
func (c *Config) SetStrict() {
	c.Segments.StrictCount = true
	c.Analysis.StrictContext = true
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if lvl := os.Getenv("EIPCONVERT_LOG_LEVEL"); lvl != "" {
		c.Log.Level = lvl
	}
	if f := os.Getenv("EIPCONVERT_LOG_FORMAT"); f != "" {
		c.Log.Format = f
	}
	if s := os.Getenv("EIPCONVERT_STRICT"); s != "" {
		on, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("EIPCONVERT_STRICT: %w", err)
		}
		if on {
			c.SetStrict()
		}
	}
	return nil
}

var (
	ValidLevels  = []string{"debug", "info", "warn", "error"}
	ValidFormats = []string{"console", "json"}
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !slices.Contains(ValidLevels, c.Log.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Log.Level, ValidLevels)
	}
	if !slices.Contains(ValidFormats, c.Log.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Log.Format, ValidFormats)
	}
	return nil
}
