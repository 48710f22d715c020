// Package config loads the YAML configuration used by the libstate CLI.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/libstate/engine"
	"github.com/wippyai/libstate/errors"
	"github.com/wippyai/libstate/state"
)

// Config describes which library to bind and how.
type Config struct {
	// Library is the path of the .wasm library to open.
	Library string `yaml:"library"`

	// Next is the library a reload switches to.
	Next string `yaml:"next"`

	// Version is the load argument, the library's version text.
	Version string `yaml:"version"`

	// BuildID overrides the library's build-id section.
	BuildID string `yaml:"build_id"`

	ShutdownExport   string `yaml:"shutdown_export"`
	LogLevel         string `yaml:"log_level"`
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
	TableCapacity    int    `yaml:"table_capacity"`

	// EnableThreads turns on the WebAssembly threads proposal.
	EnableThreads bool `yaml:"enable_threads"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ShutdownExport: engine.DefaultShutdownExport,
		LogLevel:       "info",
	}
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Value(path).
			Detail("read %s", path).
			Cause(err).
			Build()
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.ParseFailed("config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if len(c.Version) > state.MaxLibVersionLen {
		return errors.InvalidInput(errors.PhaseConfig, "version exceeds maximum length")
	}
	if len(c.BuildID) > state.MaxBuildIDLen {
		return errors.InvalidInput(errors.PhaseConfig, "build_id exceeds maximum length")
	}
	if c.TableCapacity < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "table_capacity must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(c.LogLevel).
			Detail("log_level").
			Cause(err).
			Build()
	}
	return lvl, nil
}

// Engine returns the engine configuration.
func (c *Config) Engine() *engine.Config {
	return &engine.Config{
		ShutdownExport:   c.ShutdownExport,
		MemoryLimitPages: c.MemoryLimitPages,
		EnableThreads:    c.EnableThreads,
	}
}
