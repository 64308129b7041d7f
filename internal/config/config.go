// Package config holds the on-disk configuration of the mpspline CLI: the
// same named options the harmonize package takes, in YAML form.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mpspline/internal/spline"
	"mpspline/pkg/harmonize"
)

// Config mirrors harmonize.Options for file-based configuration.
type Config struct {
	Lambda       float64  `yaml:"lambda"`
	VLow         float64  `yaml:"vlow"`
	VHigh        float64  `yaml:"vhigh"`
	TargetDepths [][2]int `yaml:"target_depths"`
	Properties   []string `yaml:"properties"`

	Mode  string `yaml:"mode"`
	Shape string `yaml:"shape"`

	Strict      bool `yaml:"strict"`
	MinHorizons int  `yaml:"min_horizons"`
	CacheSize   int  `yaml:"cache_size"`

	Parallel  bool `yaml:"parallel"`
	Workers   int  `yaml:"workers"`
	BatchSize int  `yaml:"batch_size"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls CLI log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the documented engine defaults.
func DefaultConfig() *Config {
	depths := make([][2]int, len(spline.GlobalSoilMapDepths))
	for i, d := range spline.GlobalSoilMapDepths {
		depths[i] = [2]int{d.Top, d.Bottom}
	}
	return &Config{
		Lambda:       spline.DefaultLambda,
		VLow:         spline.DefaultVLow,
		VHigh:        spline.DefaultVHigh,
		TargetDepths: depths,
		Mode:         string(harmonize.ModeDCM),
		Shape:        string(harmonize.ShapeLong),
		MinHorizons:  spline.DefaultMinHorizons,
		CacheSize:    spline.DefaultCacheSize,
		BatchSize:    100,
		Logging:      LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config, layering it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects inconsistent settings before they reach the engine.
func (c *Config) Validate() error {
	if c.Lambda < 0 {
		return fmt.Errorf("config: lambda must be >= 0, got %v", c.Lambda)
	}
	if c.VLow > c.VHigh {
		return fmt.Errorf("config: vlow %v exceeds vhigh %v", c.VLow, c.VHigh)
	}
	switch harmonize.Mode(c.Mode) {
	case harmonize.ModeDCM, harmonize.Mode1CM, harmonize.ModeICM:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	switch harmonize.Shape(c.Shape) {
	case harmonize.ShapeLong, harmonize.ShapeWide:
	default:
		return fmt.Errorf("config: unknown shape %q", c.Shape)
	}
	for _, d := range c.TargetDepths {
		if d[0] < 0 || d[1] <= d[0] {
			return fmt.Errorf("config: invalid target interval %d-%d", d[0], d[1])
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Logging.Level)
	}
	return nil
}

// Options converts the config into engine options.
func (c *Config) Options() harmonize.Options {
	depths := make([]spline.Interval, len(c.TargetDepths))
	for i, d := range c.TargetDepths {
		depths[i] = spline.Interval{Top: d[0], Bottom: d[1]}
	}
	return harmonize.Options{
		Properties:   c.Properties,
		TargetDepths: depths,
		Lambda:       c.Lambda,
		VLow:         c.VLow,
		VHigh:        c.VHigh,
		Mode:         harmonize.Mode(c.Mode),
		Shape:        harmonize.Shape(c.Shape),
		Strict:       c.Strict,
		MinHorizons:  c.MinHorizons,
		CacheSize:    c.CacheSize,
		Parallel:     c.Parallel,
		Workers:      c.Workers,
		BatchSize:    c.BatchSize,
	}
}
