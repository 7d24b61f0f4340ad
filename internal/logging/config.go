package logging

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level       string            `koanf:"level" json:"level"`
	Format      string            `koanf:"format" json:"format"`
	OutputPaths []string          `koanf:"output_paths" json:"output_paths"`
	Sampling    SamplingConfig    `koanf:"sampling" json:"sampling"`
	Caller      CallerConfig      `koanf:"caller" json:"caller"`
	Fields      map[string]string `koanf:"fields" json:"fields"`
}

// SamplingConfig controls log volume reduction. Error and above are never
// sampled by zap's sampler, so the knobs apply to info and below.
type SamplingConfig struct {
	Enabled    bool `koanf:"enabled" json:"enabled"`
	Initial    int  `koanf:"initial" json:"initial"`
	Thereafter int  `koanf:"thereafter" json:"thereafter"`
}

// CallerConfig controls caller annotation in log entries.
type CallerConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled"`
	Skip    int  `koanf:"skip" json:"skip"`
}

// NewDefaultConfig returns config with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
		Sampling: SamplingConfig{
			Enabled:    true,
			Initial:    100,
			Thereafter: 10,
		},
		Caller: CallerConfig{
			Enabled: true,
			Skip:    0,
		},
		Fields: map[string]string{
			"service": "clusterd",
		},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if _, err := LevelFromString(c.Level); err != nil {
		return err
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if len(c.OutputPaths) == 0 {
		return fmt.Errorf("at least one output path must be set")
	}
	if c.Sampling.Enabled {
		if c.Sampling.Initial <= 0 {
			return fmt.Errorf("sampling initial must be > 0 when sampling enabled, got %d", c.Sampling.Initial)
		}
		if c.Sampling.Thereafter < 0 {
			return fmt.Errorf("sampling thereafter must be >= 0, got %d", c.Sampling.Thereafter)
		}
	}
	if c.Caller.Enabled && c.Caller.Skip < 0 {
		return fmt.Errorf("caller skip must be >= 0, got %d", c.Caller.Skip)
	}
	for k, v := range c.Fields {
		if k == "" {
			return fmt.Errorf("field key cannot be empty")
		}
		if v == "" {
			return fmt.Errorf("field %q has empty value", k)
		}
	}
	return nil
}

// LevelFromString parses a level name into a zap level.
func LevelFromString(s string) (zapcore.Level, error) {
	switch s {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf("unknown log level %q", s)
	}
}
