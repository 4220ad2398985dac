package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds finopsaudit configuration loaded from .finopsaudit.yaml.
// Flags take precedence over config values; config values over defaults.
type Config struct {
	Regions               []string `yaml:"regions"`
	Profile               string   `yaml:"profile"`
	Services              []string `yaml:"services"`
	Concurrency           int      `yaml:"concurrency"`
	AMIMinAgeDays         int      `yaml:"ami_min_age_days"`
	SnapshotRetentionDays int      `yaml:"snapshot_retention_days"`
	LookbackDays          int      `yaml:"lookback_days"`
	LowWatermark          float64  `yaml:"capacity_low_watermark"`
	HighWatermark         float64  `yaml:"capacity_high_watermark"`
	Format                string   `yaml:"format"`
	Timeout               string   `yaml:"timeout"`
	Exclude               Exclude  `yaml:"exclude"`
}

// Exclude defines resources to skip during analysis.
type Exclude struct {
	ResourceIDs []string `yaml:"resource_ids"`
}

// ResourceIDSet converts the exclusion list into a membership set.
func (e Exclude) ResourceIDSet() map[string]bool {
	if len(e.ResourceIDs) == 0 {
		return nil
	}
	m := make(map[string]bool, len(e.ResourceIDs))
	for _, id := range e.ResourceIDs {
		m[id] = true
	}
	return m
}

// TimeoutDuration parses the timeout string as a duration.
func (c Config) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Load searches for .finopsaudit.yaml or .finopsaudit.yml in the given
// directory and returns the parsed config. Returns an empty Config if no
// file is found.
func Load(dir string) (Config, error) {
	candidates := []string{
		filepath.Join(dir, ".finopsaudit.yaml"),
		filepath.Join(dir, ".finopsaudit.yml"),
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}

		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		return cfg, nil
	}

	return Config{}, nil
}
