// Package config handles loading, validating, and managing configuration
// for the augment tool.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Collision policies applied when two source files share an output stem.
const (
	CollisionWarn      = "warn"
	CollisionFail      = "fail"
	CollisionExtension = "extension"
)

// EnvPrefix is prepended to environment variable overrides, e.g.
// AUGMENT_COUNT or AUGMENT_TRANSFORM_SCALEMIN.
const EnvPrefix = "AUGMENT"

// Config is the top-level configuration for an augmentation run.
type Config struct {
	InputDir  string          `yaml:"inputDir"  toml:"inputDir"  mapstructure:"inputDir"`
	OutputDir string          `yaml:"outputDir" toml:"outputDir" mapstructure:"outputDir"`
	Count     int             `yaml:"count"     toml:"count"     mapstructure:"count"`
	Seed      int64           `yaml:"seed"      toml:"seed"      mapstructure:"seed"`
	Quality   int             `yaml:"quality"   toml:"quality"   mapstructure:"quality"`
	Collision string          `yaml:"collision" toml:"collision" mapstructure:"collision"`
	Manifest  bool            `yaml:"manifest"  toml:"manifest"  mapstructure:"manifest"`
	Transform TransformConfig `yaml:"transform" toml:"transform" mapstructure:"transform"`
	Watch     WatchConfig     `yaml:"watch"     toml:"watch"     mapstructure:"watch"`
	Log       LogConfig       `yaml:"log"       toml:"log"       mapstructure:"log"`
}

// TransformConfig bounds the randomly sampled affine parameters. Rotation is
// in degrees, Translate is a fraction of the image width/height.
type TransformConfig struct {
	RotationMin float64 `yaml:"rotationMin" toml:"rotationMin" mapstructure:"rotationMin"`
	RotationMax float64 `yaml:"rotationMax" toml:"rotationMax" mapstructure:"rotationMax"`
	ScaleMin    float64 `yaml:"scaleMin"    toml:"scaleMin"    mapstructure:"scaleMin"`
	ScaleMax    float64 `yaml:"scaleMax"    toml:"scaleMax"    mapstructure:"scaleMax"`
	Translate   float64 `yaml:"translate"   toml:"translate"   mapstructure:"translate"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" toml:"debounce" mapstructure:"debounce"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `yaml:"level" toml:"level" mapstructure:"level"`
	JSON  bool   `yaml:"json"  toml:"json"  mapstructure:"json"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		InputDir:  "images",
		OutputDir: "augmented",
		Count:     10,
		Quality:   95,
		Collision: CollisionWarn,
		Transform: TransformConfig{
			RotationMin: -30,
			RotationMax: 30,
			ScaleMin:    0.8,
			ScaleMax:    1.2,
			Translate:   0.1,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a configuration file from configPath (YAML or TOML) and returns
// a Config with defaults applied first, file values overlaid on top, and
// AUGMENT_* environment variables overlaid last. An empty configPath skips
// the file.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		// Determine format from extension.
		ext := strings.TrimPrefix(filepath.Ext(configPath), ".")
		switch ext {
		case "toml":
			v.SetConfigType("toml")
		default:
			v.SetConfigType("yaml")
		}

		v.SetConfigFile(configPath)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key with viper so that AutomaticEnv can
// resolve overrides for keys absent from the config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("inputDir", cfg.InputDir)
	v.SetDefault("outputDir", cfg.OutputDir)
	v.SetDefault("count", cfg.Count)
	v.SetDefault("seed", cfg.Seed)
	v.SetDefault("quality", cfg.Quality)
	v.SetDefault("collision", cfg.Collision)
	v.SetDefault("manifest", cfg.Manifest)
	v.SetDefault("transform.rotationMin", cfg.Transform.RotationMin)
	v.SetDefault("transform.rotationMax", cfg.Transform.RotationMax)
	v.SetDefault("transform.scaleMin", cfg.Transform.ScaleMin)
	v.SetDefault("transform.scaleMax", cfg.Transform.ScaleMax)
	v.SetDefault("transform.translate", cfg.Transform.Translate)
	v.SetDefault("watch.debounce", cfg.Watch.Debounce)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.json", cfg.Log.JSON)
}

// Validate checks the Config for errors that would make a run meaningless.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputDir) == "" {
		return fmt.Errorf("config: inputDir is required")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("config: outputDir is required")
	}
	if filepath.Clean(c.InputDir) == filepath.Clean(c.OutputDir) {
		return fmt.Errorf("config: inputDir and outputDir must differ (got %q)", c.InputDir)
	}
	if c.Count < 0 {
		return fmt.Errorf("config: count must not be negative (got %d)", c.Count)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("config: quality must be between 1 and 100 (got %d)", c.Quality)
	}

	t := c.Transform
	if t.RotationMin > t.RotationMax {
		return fmt.Errorf("config: transform.rotationMin %v exceeds rotationMax %v", t.RotationMin, t.RotationMax)
	}
	if t.ScaleMin <= 0 {
		return fmt.Errorf("config: transform.scaleMin must be positive (got %v)", t.ScaleMin)
	}
	if t.ScaleMin > t.ScaleMax {
		return fmt.Errorf("config: transform.scaleMin %v exceeds scaleMax %v", t.ScaleMin, t.ScaleMax)
	}
	if t.Translate < 0 {
		return fmt.Errorf("config: transform.translate must not be negative (got %v)", t.Translate)
	}

	switch c.Collision {
	case CollisionWarn, CollisionFail, CollisionExtension:
	default:
		return fmt.Errorf("config: unknown collision policy %q (want warn, fail or extension)", c.Collision)
	}

	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("config: watch.debounce must be positive (got %s)", c.Watch.Debounce)
	}

	return nil
}

// WithOverrides applies explicit overrides to the config. Known keys are
// mapped to their corresponding struct fields. The modified config is returned
// for convenient chaining.
func (c *Config) WithOverrides(overrides map[string]any) *Config {
	for key, val := range overrides {
		switch key {
		case "inputDir":
			if s, ok := val.(string); ok {
				c.InputDir = s
			}
		case "outputDir":
			if s, ok := val.(string); ok {
				c.OutputDir = s
			}
		case "count":
			if n, ok := val.(int); ok {
				c.Count = n
			}
		case "seed":
			if n, ok := val.(int64); ok {
				c.Seed = n
			}
		case "logLevel":
			if s, ok := val.(string); ok {
				c.Log.Level = s
			}
		}
	}
	return c
}
