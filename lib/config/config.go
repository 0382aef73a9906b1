// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

// Package config provides configuration loading for the shell-run
// command and the local runner.
//
// Configuration is loaded from a single file specified by:
//   - AIIDA_SHELL_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration.
type Config struct {
	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Runner configures local command execution.
	Runner RunnerConfig `yaml:"runner"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for working directories and provenance
	// records.
	Root string `yaml:"root"`
}

// RunnerConfig configures local command execution.
type RunnerConfig struct {
	// Timeout bounds one command execution, as a Go duration string.
	// Default: 5m
	Timeout string `yaml:"timeout"`

	// KeepWorkdirs retains working directories after harvesting instead
	// of removing them. Default: true
	KeepWorkdirs bool `yaml:"keep_workdirs"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is the minimum slog level: debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file; they exist to give every
// field a sensible zero-value, not as a substitute for the file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Paths: PathsConfig{
			Root: filepath.Join(homeDir, ".cache", "aiida-shell"),
		},
		Runner: RunnerConfig{
			Timeout:      "5m",
			KeepWorkdirs: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the AIIDA_SHELL_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks - if AIIDA_SHELL_CONFIG is not set, this
// fails.
func Load() (*Config, error) {
	configPath := os.Getenv("AIIDA_SHELL_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("AIIDA_SHELL_CONFIG environment variable not set; " +
			"set it to the path of your config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values. The only expansion performed is
// ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.expandVariables()

	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}

	if _, err := time.ParseDuration(c.Runner.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("runner.timeout is not a valid duration: %w", err))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of: debug, info, warn, error"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ExecutionTimeout returns the parsed runner timeout. Call Validate
// first; an unparseable value returns zero here.
func (c *Config) ExecutionTimeout() time.Duration {
	timeout, err := time.ParseDuration(c.Runner.Timeout)
	if err != nil {
		return 0
	}
	return timeout
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	if c.Paths.Root == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.Root, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Paths.Root, err)
	}
	return nil
}
