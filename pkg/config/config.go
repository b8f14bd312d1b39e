// Package config loads uuu CLI configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the per-directory configuration file name.
const ProjectFile = ".uuu.yaml"

// DefaultPrompt is the interactive prompt used when none is configured.
const DefaultPrompt = "> "

// Config holds settings for the command-line front end.
type Config struct {
	// Prompt is printed before each interactive line.
	Prompt string
	// History is the REPL history file; empty disables history.
	History      string
	Pretty       bool
	Debug        bool
	MaxCallDepth int
	// Source is the file the settings came from, empty for defaults.
	Source string
}

// file is the on-disk shape. Pointers distinguish unset keys from zero
// values.
type file struct {
	Prompt       *string `yaml:"prompt"`
	History      *string `yaml:"history"`
	Pretty       *bool   `yaml:"pretty"`
	Debug        *bool   `yaml:"debug"`
	MaxCallDepth *int    `yaml:"maxCallDepth"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{Prompt: DefaultPrompt}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.History = filepath.Join(home, ".uuu", "history")
	}
	return cfg
}

// Load resolves configuration with precedence project (.uuu.yaml in
// projectDir) → user (~/.uuu/config.yaml) → built-in defaults. The first
// file that exists wins; a file that exists but is malformed is an error.
func Load(projectDir string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".uuu", "config.yaml"))
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// LoadFile reads a single configuration file. Keys it leaves unset keep
// their defaults. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)

	var raw file
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg, err := raw.apply(Default())
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

func (f *file) apply(cfg *Config) (*Config, error) {
	if f.Prompt != nil {
		cfg.Prompt = *f.Prompt
	}
	if f.History != nil {
		cfg.History = expandHome(*f.History)
	}
	if f.Pretty != nil {
		cfg.Pretty = *f.Pretty
	}
	if f.Debug != nil {
		cfg.Debug = *f.Debug
	}
	if f.MaxCallDepth != nil {
		if *f.MaxCallDepth <= 0 {
			return nil, fmt.Errorf("maxCallDepth must be positive, got %d", *f.MaxCallDepth)
		}
		cfg.MaxCallDepth = *f.MaxCallDepth
	}
	return cfg, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}
