package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/clusterd/internal/cluster"
	"github.com/fyrsmithlabs/clusterd/internal/logging"
	"github.com/fyrsmithlabs/clusterd/internal/telemetry"
)

// Config is the top-level clusterd configuration.
type Config struct {
	Logging    logging.Config   `koanf:"logging"`
	Engine     cluster.Config   `koanf:"engine"`
	Scheduler  SchedulerConfig  `koanf:"scheduler"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Telemetry  telemetry.Config `koanf:"telemetry"`
}

// SchedulerConfig controls the background centroid recompute loop.
type SchedulerConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Interval    time.Duration `koanf:"interval"`
	TickTimeout time.Duration `koanf:"tick_timeout"`
}

// SimilarityConfig controls the centroid index.
type SimilarityConfig struct {
	// Dimension every indexed centroid must have.
	Dimension int `koanf:"dimension"`
}

// NewDefaultConfig returns the full default configuration.
func NewDefaultConfig() *Config {
	return &Config{
		Logging: *logging.NewDefaultConfig(),
		Engine:  cluster.DefaultConfig(),
		Scheduler: SchedulerConfig{
			Enabled:     true,
			Interval:    6 * time.Hour,
			TickTimeout: 10 * time.Minute,
		},
		Similarity: SimilarityConfig{
			Dimension: 384,
		},
		Telemetry: *telemetry.NewDefaultConfig(),
	}
}

// Validate checks the full configuration tree.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.Interval <= 0 {
			return fmt.Errorf("scheduler: interval must be positive, got %s", c.Scheduler.Interval)
		}
		if c.Scheduler.TickTimeout <= 0 {
			return fmt.Errorf("scheduler: tick_timeout must be positive, got %s", c.Scheduler.TickTimeout)
		}
	}
	if c.Similarity.Dimension < c.Engine.MinDimension || c.Similarity.Dimension > c.Engine.MaxDimension {
		return fmt.Errorf("similarity: dimension %d outside engine range [%d, %d]",
			c.Similarity.Dimension, c.Engine.MinDimension, c.Engine.MaxDimension)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}
