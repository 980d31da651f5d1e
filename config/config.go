// Package config loads the service configuration: a YAML file decoded
// into a typed struct via mapstructure, with defaults for every field so
// a missing file still yields a runnable service.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/linchenxuan/ladderd/log"
	"github.com/linchenxuan/ladderd/network/transport"
)

// Limiter kinds selectable for the ingest loop.
const (
	LimiterNone   = "none"
	LimiterToken  = "token"
	LimiterFunnel = "funnel"
)

// Config is the full service configuration.
type Config struct {
	Transport transport.TransportCfg `mapstructure:"transport"`
	Log       log.LogCfg             `mapstructure:"log"`

	// WorkerCount is the worker pool concurrency.
	WorkerCount int `mapstructure:"workerCount"`

	// IngestRate limits messages per second taken off the wire; 0 means
	// unlimited. IngestBurst applies to the token limiter only.
	IngestRate  int    `mapstructure:"ingestRate"`
	IngestBurst int    `mapstructure:"ingestBurst"`
	LimiterKind string `mapstructure:"limiterKind"`

	// MetricsAddr exposes the prometheus registry when non-empty.
	MetricsAddr string `mapstructure:"metricsAddr"`
	MetricsPath string `mapstructure:"metricsPath"`
}

// GetName returns the configuration key for Config.
func (c *Config) GetName() string {
	return "ladderd"
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.WorkerCount <= 0 {
		return errors.New("workerCount must be positive")
	}
	switch c.LimiterKind {
	case LimiterNone, LimiterToken, LimiterFunnel:
	default:
		return fmt.Errorf("unknown limiterKind %q", c.LimiterKind)
	}
	if c.IngestRate < 0 || c.IngestBurst < 0 {
		return errors.New("ingest rate and burst cannot be negative")
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Transport: transport.TransportCfg{
			Addr:          ":9000",
			IdleTimeout:   0,
			MaxBufferSize: 1 << 16,
		},
		Log:         log.DefaultCfg(),
		WorkerCount: 2,
		IngestRate:  0,
		IngestBurst: 1,
		LimiterKind: LimiterNone,
		MetricsPath: "/metrics",
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Decode(tree, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Decode overlays a raw config tree onto cfg.
func Decode(tree map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(tree); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}
