package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())

	// These defaults are compatibility-critical for tuned deployments.
	assert.Equal(t, 32, cfg.MinDimension)
	assert.Equal(t, 512, cfg.MaxDimension)
	assert.Equal(t, 0.35, cfg.CoherenceWeight)
	assert.Equal(t, 0.25, cfg.DensityWeight)
	assert.Equal(t, 0.20, cfg.SizeWeight)
	assert.Equal(t, 0.20, cfg.EngagementWeight)
	assert.Equal(t, 0.4, cfg.MediumQualityThreshold)
	assert.Equal(t, 0.6, cfg.HighQualityThreshold)
	assert.Equal(t, 0.8, cfg.ExcellentQualityThreshold)
	assert.Equal(t, 0.4, cfg.LowCoherenceThreshold)
	assert.Equal(t, 0.2, cfg.LowDensityThreshold)
	assert.Equal(t, 800, cfg.OversizedThreshold)
	assert.Equal(t, 5, cfg.UndersizedThreshold)
	assert.Equal(t, 72, cfg.StaleThresholdHours)
	assert.Equal(t, 10, cfg.MaxIssues)
	assert.Equal(t, 5, cfg.MaxRecommendations)
	assert.Equal(t, 0.8, cfg.AutoAssignThreshold)
	assert.Equal(t, 0.6, cfg.ManualReviewThreshold)
	assert.Equal(t, 0.2, cfg.SizeScoreFloor)
	assert.Equal(t, 1.0, cfg.EngagementCap)
	assert.Equal(t, 20, cfg.MaxTopics)
	assert.Equal(t, 100, cfg.MaxNameLength)
	assert.Equal(t, 500, cfg.MaxDescriptionLength)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero min dimension",
			mutate:  func(c *Config) { c.MinDimension = 0 },
			wantErr: "min_dimension",
		},
		{
			name:    "max below min dimension",
			mutate:  func(c *Config) { c.MaxDimension = c.MinDimension - 1 },
			wantErr: "max_dimension",
		},
		{
			name:    "weights not summing to one",
			mutate:  func(c *Config) { c.CoherenceWeight = 0.5 },
			wantErr: "sum to 1.0",
		},
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.CoherenceWeight = -0.1; c.DensityWeight = 0.7 },
			wantErr: "non-negative",
		},
		{
			name:    "descending quality thresholds",
			mutate:  func(c *Config) { c.HighQualityThreshold = 0.3 },
			wantErr: "ascending",
		},
		{
			name:    "undersized above oversized",
			mutate:  func(c *Config) { c.UndersizedThreshold = 1000 },
			wantErr: "undersized_threshold",
		},
		{
			name:    "review threshold above auto threshold",
			mutate:  func(c *Config) { c.ManualReviewThreshold = 0.9 },
			wantErr: "manual_review_threshold",
		},
		{
			name:    "zero stale threshold",
			mutate:  func(c *Config) { c.StaleThresholdHours = 0 },
			wantErr: "stale_threshold_hours",
		},
		{
			name:    "invalid optimal range",
			mutate:  func(c *Config) { c.OptimalSizeMax = c.OptimalSizeMin - 1 },
			wantErr: "optimal size range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigStaleThreshold(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 72*time.Hour, cfg.StaleThreshold())
}
