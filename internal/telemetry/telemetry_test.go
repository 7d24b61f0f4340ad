package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults valid",
			mutate: func(c *Config) {},
		},
		{
			name:   "disabled skips validation",
			mutate: func(c *Config) { c.Enabled = false; c.Endpoint = "" },
		},
		{
			name:    "enabled requires endpoint",
			mutate:  func(c *Config) { c.Enabled = true; c.Endpoint = "" },
			wantErr: "endpoint is required",
		},
		{
			name:    "enabled requires service name",
			mutate:  func(c *Config) { c.Enabled = true; c.ServiceName = "" },
			wantErr: "service_name",
		},
		{
			name:    "unknown protocol",
			mutate:  func(c *Config) { c.Enabled = true; c.Protocol = "carrier-pigeon" },
			wantErr: "protocol",
		},
		{
			name:    "insecure remote endpoint rejected",
			mutate:  func(c *Config) { c.Enabled = true; c.Endpoint = "collector.example.com:4317" },
			wantErr: "insecure connections to remote endpoints",
		},
		{
			name: "secure remote endpoint allowed",
			mutate: func(c *Config) {
				c.Enabled = true
				c.Endpoint = "collector.example.com:4317"
				c.Insecure = false
			},
		},
		{
			name:    "zero export interval",
			mutate:  func(c *Config) { c.Enabled = true; c.ExportInterval = 0 },
			wantErr: "export_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDisabledTelemetryIsNoop(t *testing.T) {
	ctx := context.Background()

	tel, err := New(ctx, NewDefaultConfig())
	require.NoError(t, err)

	assert.False(t, tel.Enabled())
	assert.NotNil(t, tel.Meter("clusterd.test"))
	assert.NoError(t, tel.Shutdown(ctx))
}

func TestMetricsOnNoopMeter(t *testing.T) {
	ctx := context.Background()
	tel, err := New(ctx, NewDefaultConfig())
	require.NoError(t, err)

	m, err := NewMetrics(tel.Meter("clusterd.test"))
	require.NoError(t, err)

	// Recording against a no-op meter must not panic.
	m.RecordAnalysis(ctx, 3, 2)
	m.RecordRecompute(ctx)
	m.RecordDecision(ctx, "auto_assign")
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.RecordAnalysis(ctx, 1, 1)
	m.RecordRecompute(ctx)
	m.RecordDecision(ctx, "reject")
}
