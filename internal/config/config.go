// Package config holds project-level settings. A chorus.yaml next to
// (or above) the source file can bound the interpreter and switch on
// tracing; absence of the file means defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Steps is the external step limit imposed on the interpreter;
	// 0 means unlimited.
	Steps int `yaml:"steps,omitempty"`

	// Trace writes a step trace to standard error.
	Trace bool `yaml:"trace,omitempty"`
}

func Default() *Config {
	return &Config{}
}

// Find walks from dir upward to the filesystem root looking for
// chorus.yaml. It returns "" when no config exists.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Steps < 0 {
		return nil, fmt.Errorf("%s: steps must not be negative", path)
	}
	return cfg, nil
}
