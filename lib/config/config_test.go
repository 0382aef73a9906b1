// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
	if cfg.ExecutionTimeout() != 5*time.Minute {
		t.Fatalf("default timeout = %v", cfg.ExecutionTimeout())
	}
	if !cfg.Runner.KeepWorkdirs {
		t.Fatal("default keep_workdirs = false")
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
paths:
  root: /var/lib/shell-jobs
runner:
  timeout: 30s
logging:
  level: debug
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Paths.Root != "/var/lib/shell-jobs" {
		t.Fatalf("Root = %q", cfg.Paths.Root)
	}
	if cfg.ExecutionTimeout() != 30*time.Second {
		t.Fatalf("timeout = %v", cfg.ExecutionTimeout())
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadFilePartialKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
paths:
  root: /data
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Runner.Timeout != "5m" {
		t.Fatalf("Timeout = %q, want default 5m", cfg.Runner.Timeout)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("Level = %q, want default info", cfg.Logging.Level)
	}
}

func TestLoadFileExpandsHome(t *testing.T) {
	path := writeConfig(t, `
paths:
  root: ${HOME}/jobs
`)

	t.Setenv("HOME", "/home/worker")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Paths.Root != "/home/worker/jobs" {
		t.Fatalf("Root = %q", cfg.Paths.Root)
	}
}

func TestLoadRequiresEnvironmentVariable(t *testing.T) {
	t.Setenv("AIIDA_SHELL_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load succeeded without AIIDA_SHELL_CONFIG")
	}
	if !strings.Contains(err.Error(), "AIIDA_SHELL_CONFIG") {
		t.Fatalf("error = %v, want mention of the environment variable", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "missing root",
			mutate: func(c *Config) { c.Paths.Root = "" },
			want:   "paths.root",
		},
		{
			name:   "bad timeout",
			mutate: func(c *Config) { c.Runner.Timeout = "soon" },
			want:   "runner.timeout",
		},
		{
			name:   "bad level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			want:   "logging.level",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate succeeded, want error")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Fatalf("error = %v, want mention of %q", err, test.want)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Paths.Root = filepath.Join(t.TempDir(), "nested", "root")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.Root); err != nil {
		t.Fatalf("root not created: %v", err)
	}
}
