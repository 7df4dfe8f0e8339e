// Package config assembles runtime settings for the navigator tooling from
// the environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/navpolicy/internal/logging"
	"github.com/signalsfoundry/navpolicy/internal/observability"
)

// ErrInvalid marks a configuration that failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full runtime configuration.
type Config struct {
	Log     logging.Config              `yaml:"log"`
	Tracing observability.TracingConfig `yaml:"tracing"`
	// MetricsAddr is the listen address of the /metrics endpoint; empty
	// disables it.
	MetricsAddr  string `yaml:"metrics_addr"`
	GeometryPath string `yaml:"geometry"`
	// Workers bounds concurrent policy builds and benchmark workers. Zero
	// means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:     logging.Config{Level: "info", Format: "text"},
		Tracing: observability.DefaultTracingConfig(),
	}
}

// FromEnv overlays environment variables on Default. Unparseable numeric
// values are ignored.
func FromEnv() Config {
	cfg := Default()
	logCfg := logging.ConfigFromEnv()
	if logCfg.Level != "" {
		cfg.Log.Level = logCfg.Level
	}
	if logCfg.Format != "" {
		cfg.Log.Format = logCfg.Format
	}
	cfg.Tracing = observability.TracingConfigFromEnv()
	if v := os.Getenv("NAV_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("NAV_GEOMETRY"); v != "" {
		cfg.GeometryPath = v
	}
	if v := os.Getenv("NAV_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	return cfg
}

// Load reads the YAML file at path on top of FromEnv. Keys absent from the
// file keep their environment or default value. An empty path returns
// FromEnv unchanged.
func Load(path string) (Config, error) {
	cfg := FromEnv()
	if path == "" {
		return cfg, cfg.Validate()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %w", ErrInvalid, path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Log.Format)
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return fmt.Errorf("%w: metrics address %q: %w", ErrInvalid, c.MetricsAddr, err)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, c.Workers)
	}
	return nil
}
