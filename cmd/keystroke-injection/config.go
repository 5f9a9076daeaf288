package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML configuration file. Every field is
// optional; flags override whatever the file sets.
type fileConfig struct {
	Root        string   `yaml:"root"`
	ActionDir   string   `yaml:"action_dir"`
	Exclude     []string `yaml:"exclude"`
	Ignore      []string `yaml:"ignore"`
	Extensions  []string `yaml:"extensions"`
	PollTimeout string   `yaml:"poll_timeout"`
	Cooldown    string   `yaml:"cooldown"`
	Window      string   `yaml:"window"`
	Interval    string   `yaml:"interval"`
	Backup      *bool    `yaml:"backup"`
	DryRun      *bool    `yaml:"dry_run"`
	LogLevel    string   `yaml:"log_level"`
	LogFile     string   `yaml:"log_file"`
}

// loadFileConfig reads and parses a YAML configuration file
func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// parseDuration parses an optional duration string, keeping the fallback
// when the field is empty
func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}
