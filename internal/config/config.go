package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixed layout, relative to the project root.
const (
	DefaultConfigFile = "faustbuild.yaml"
	DefaultCompiler   = "faust"
	DefaultSourceDir  = "faust_dsp"
	DefaultOutputDir  = "include/faust/generated"
	DefaultArchFile   = "include/faust/faustMinimalInlined.h"

	SourcePattern = "*.dsp"
	HeaderExt     = "h"

	DefaultNotifySubject = "faustbuild.run"
	DefaultWatchDebounce = 300 * time.Millisecond
)

// Environment variables consulted by the loader.
const (
	EnvRoot      = "FAUSTBUILD_ROOT"
	EnvCompiler  = "FAUSTBUILD_COMPILER"
	EnvLogLevel  = "FAUSTBUILD_LOG_LEVEL"
	EnvLogFormat = "FAUSTBUILD_LOG_FORMAT"
)

// Config is the optional faustbuild.yaml. Every field has a default, so a
// project without a config file builds with the fixed layout.
type Config struct {
	Compiler  string        `yaml:"compiler,omitempty"`
	SourceDir string        `yaml:"source_dir,omitempty"`
	OutputDir string        `yaml:"output_dir,omitempty"`
	ArchFile  string        `yaml:"arch_file,omitempty"`
	History   HistoryConfig `yaml:"history,omitempty"`
	Metrics   MetricsConfig `yaml:"metrics,omitempty"`
	Notify    NotifyConfig  `yaml:"notify,omitempty"`
	Watch     WatchConfig   `yaml:"watch,omitempty"`
}

// HistoryConfig enables the SQLite run history when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig enables a Prometheus textfile export when Textfile is set.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// NotifyConfig enables NATS run events when NATSURL is set.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce     time.Duration `yaml:"debounce,omitempty"`
	RebuildEvery time.Duration `yaml:"rebuild_every,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration for the project at root.
//
// An empty configPath means <root>/faustbuild.yaml, which is optional. An
// explicit configPath must exist. Environment files in root are loaded first
// so ${VAR} references in the YAML can see them.
func Load(root, configPath string) (*Config, error) {
	if err := loadEnvFiles(root); err != nil {
		return nil, err
	}

	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(root, DefaultConfigFile)
	} else if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(root, configPath)
	}

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
		cfg.Compiler = ResolveCompiler(root, cfg.Compiler)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no config file: defaults only
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvCompiler); v != "" {
		c.Compiler = v
	}
}

func (c *Config) applyDefaults() {
	if c.Compiler == "" {
		c.Compiler = DefaultCompiler
	}
	if c.SourceDir == "" {
		c.SourceDir = DefaultSourceDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.ArchFile == "" {
		c.ArchFile = DefaultArchFile
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = DefaultNotifySubject
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = DefaultWatchDebounce
	}
}

// Validate checks field invariants after defaults are applied.
func (c *Config) Validate() error {
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if c.Watch.RebuildEvery < 0 {
		return fmt.Errorf("watch.rebuild_every must not be negative")
	}
	if c.Watch.RebuildEvery > 0 && c.Watch.RebuildEvery < time.Second {
		return fmt.Errorf("watch.rebuild_every must be at least 1s")
	}
	return nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Default()
	example.History.Path = ".faustbuild/history.db"

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
