package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the engine's metric instruments.
//
// Built against a no-op meter these all become no-ops, so the engine records
// unconditionally and lets the provider decide whether anything leaves the
// process.
type Metrics struct {
	analysesRun     metric.Int64Counter
	issuesDetected  metric.Int64Counter
	recommendations metric.Int64Counter
	recomputes      metric.Int64Counter
	decisions       metric.Int64Counter
}

// NewMetrics creates the engine instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	analysesRun, err := meter.Int64Counter("clusterd.analyses.run",
		metric.WithDescription("Cluster health analyses performed"))
	if err != nil {
		return nil, fmt.Errorf("creating analyses counter: %w", err)
	}

	issuesDetected, err := meter.Int64Counter("clusterd.analyses.issues",
		metric.WithDescription("Issues detected across analyses"))
	if err != nil {
		return nil, fmt.Errorf("creating issues counter: %w", err)
	}

	recommendations, err := meter.Int64Counter("clusterd.analyses.recommendations",
		metric.WithDescription("Recommendations produced across analyses"))
	if err != nil {
		return nil, fmt.Errorf("creating recommendations counter: %w", err)
	}

	recomputes, err := meter.Int64Counter("clusterd.centroid.recomputes",
		metric.WithDescription("Centroid recomputes applied"))
	if err != nil {
		return nil, fmt.Errorf("creating recomputes counter: %w", err)
	}

	decisions, err := meter.Int64Counter("clusterd.assignments.decisions",
		metric.WithDescription("Assignment decisions classified"))
	if err != nil {
		return nil, fmt.Errorf("creating decisions counter: %w", err)
	}

	return &Metrics{
		analysesRun:     analysesRun,
		issuesDetected:  issuesDetected,
		recommendations: recommendations,
		recomputes:      recomputes,
		decisions:       decisions,
	}, nil
}

// RecordAnalysis counts one analysis and its findings.
func (m *Metrics) RecordAnalysis(ctx context.Context, issues, recommendations int) {
	if m == nil {
		return
	}
	m.analysesRun.Add(ctx, 1)
	m.issuesDetected.Add(ctx, int64(issues))
	m.recommendations.Add(ctx, int64(recommendations))
}

// RecordRecompute counts one applied centroid recompute.
func (m *Metrics) RecordRecompute(ctx context.Context) {
	if m == nil {
		return
	}
	m.recomputes.Add(ctx, 1)
}

// RecordDecision counts one assignment classification by decision.
func (m *Metrics) RecordDecision(ctx context.Context, decision string) {
	if m == nil {
		return
	}
	m.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decision)))
}
