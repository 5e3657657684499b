// Package config loads the optional slidecast configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds defaults for the command line. Every field is optional;
// flags override anything set here.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Trials  TrialsConfig  `yaml:"trials"`
	Log     LogConfig     `yaml:"log"`
}

// ConvertConfig configures the conversion pipeline.
type ConvertConfig struct {
	// Mode is "timeline" or "split".
	Mode string `yaml:"mode"`
	// SplitOriginal is "keep" or "replace" and only applies in split mode.
	SplitOriginal string `yaml:"split_original"`
}

// TrialsConfig configures the clinical-trials drug resolver.
type TrialsConfig struct {
	APIBase   string `yaml:"api_base"`
	CachePath string `yaml:"cache_path"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			Mode:          "timeline",
			SplitOriginal: "keep",
		},
		Trials: TrialsConfig{
			APIBase: "https://clinicaltrials.gov/api/v2",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config from path, layered over Default. An empty
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Convert.Mode {
	case "", "timeline", "split":
	default:
		return fmt.Errorf("unsupported convert mode: %s", cfg.Convert.Mode)
	}
	switch cfg.Convert.SplitOriginal {
	case "", "keep", "replace":
	default:
		return fmt.Errorf("unsupported split_original policy: %s", cfg.Convert.SplitOriginal)
	}
	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", cfg.Log.Format)
	}
	if cfg.Trials.APIBase != "" && !strings.HasPrefix(cfg.Trials.APIBase, "http") {
		return fmt.Errorf("trials api_base must be an http(s) URL")
	}
	return nil
}
