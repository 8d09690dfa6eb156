// Package config loads the tunables a tree is opened with: the ones the
// cursor-layer spec leaves as plain tree fields (threshold, Bloom
// parameters, data directory).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the set of tunables a tree.Open call needs beyond the URI.
type Config struct {
	// Dir is the directory sealed chunk files and their Bloom filters are
	// written to.
	Dir string `yaml:"dir"`
	// Threshold is the approximate in-memory byte size of the primary
	// chunk that triggers a chunk switch.
	Threshold uint `yaml:"threshold"`
	// BloomFalsePositiveRate governs the bits-per-key the Bloom filter
	// allocates when a chunk is sealed.
	BloomFalsePositiveRate float64 `yaml:"bloom_false_positive_rate"`
	// LogLevel is an hclog level name ("trace", "debug", "info", "warn",
	// "error"). It is loaded and defaulted here but not read by tree or db:
	// the tree logs through whatever logger its opener passes in.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when a tree is opened without an
// explicit config file.
func Default(dir string) Config {
	return Config{
		Dir:                    dir,
		Threshold:              4 << 20, // 4 MiB
		BloomFalsePositiveRate: 0.01,
		LogLevel:               "info",
	}
}

// Load reads a YAML config file, filling in defaults (relative to dir) for
// any field left zero.
func Load(path, dir string) (Config, error) {
	cfg := Default(dir)

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.Dir == "" {
		cfg.Dir = dir
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = Default(dir).Threshold
	}
	if cfg.BloomFalsePositiveRate == 0 {
		cfg.BloomFalsePositiveRate = Default(dir).BloomFalsePositiveRate
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}
