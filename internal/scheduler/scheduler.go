// Package scheduler runs the periodic centroid recompute loop.
//
// The cluster aggregate deliberately carries no scheduling logic: staleness
// is a predicate (IsStale), and this package is the external loop that acts
// on it. Each tick it lists clusters from the store, asks a CentroidSource
// for a freshly computed mean vector for every stale active cluster, applies
// UpdateCentroid under the store's per-cluster write lock, refreshes the
// similarity index, and runs the analyzer for observability.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/clusterd/internal/cluster"
	"github.com/fyrsmithlabs/clusterd/internal/similarity"
	"github.com/fyrsmithlabs/clusterd/internal/store"
	"github.com/fyrsmithlabs/clusterd/internal/telemetry"
)

// ErrNoCentroid indicates a CentroidSource has no recomputed vector for a
// cluster (for example, no member embeddings are available yet). The
// scheduler skips the cluster and moves on.
var ErrNoCentroid = errors.New("no recomputed centroid available")

// CentroidSource supplies freshly computed mean vectors for a cluster's
// members. Implementations typically aggregate member embeddings from
// wherever the caller keeps them; the scheduler neither knows nor cares.
type CentroidSource interface {
	Recompute(ctx context.Context, snap cluster.Snapshot) ([]float32, error)
}

// RecomputeScheduler periodically refreshes stale cluster centroids.
//
// Thread safety: Start and Stop are safe to call concurrently; the running
// state is mutex-guarded so a second Start cannot launch a second loop.
type RecomputeScheduler struct {
	interval    time.Duration
	tickTimeout time.Duration

	store    store.Store
	source   CentroidSource
	index    *similarity.Index
	analyzer *cluster.Analyzer
	metrics  *telemetry.Metrics
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Option configures a RecomputeScheduler.
type Option func(*RecomputeScheduler)

// WithInterval sets the time between recompute sweeps. Defaults to 6 hours.
func WithInterval(interval time.Duration) Option {
	return func(s *RecomputeScheduler) { s.interval = interval }
}

// WithTickTimeout bounds one full sweep. Defaults to 10 minutes.
func WithTickTimeout(timeout time.Duration) Option {
	return func(s *RecomputeScheduler) { s.tickTimeout = timeout }
}

// WithIndex attaches a centroid index to refresh after each recompute.
func WithIndex(index *similarity.Index) Option {
	return func(s *RecomputeScheduler) { s.index = index }
}

// WithMetrics attaches engine metrics.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(s *RecomputeScheduler) { s.metrics = metrics }
}

// New creates a recompute scheduler. It does not start automatically; call
// Start to begin sweeping.
func New(st store.Store, source CentroidSource, logger *zap.Logger, opts ...Option) (*RecomputeScheduler, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("centroid source cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	s := &RecomputeScheduler{
		interval:    6 * time.Hour,
		tickTimeout: 10 * time.Minute,
		store:       st,
		source:      source,
		analyzer:    cluster.NewAnalyzer(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	return s, nil
}

// Start launches the background sweep loop. Idempotent in the sense that a
// second Start on a running scheduler errors instead of doubling the loop.
func (s *RecomputeScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true

	s.logger.Info("recompute scheduler started",
		zap.Duration("interval", s.interval),
	)

	go s.run()
	return nil
}

// Stop signals the loop to exit and waits for it to finish. Calling Stop on
// a stopped scheduler is a no-op.
func (s *RecomputeScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
	s.logger.Info("recompute scheduler stopped")
}

// run is the loop body. A panicking sweep is logged and the loop continues;
// one bad cluster must not take the scheduler down.
func (s *RecomputeScheduler) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.safeSweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *RecomputeScheduler) safeSweep() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recompute sweep panicked, continuing",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.tickTimeout)
	defer cancel()
	s.Sweep(ctx)
}

// Sweep performs one full pass: recompute every stale active cluster and
// analyze everything. Exposed for on-demand runs (CLI, tests); errors on
// individual clusters are logged and do not abort the pass.
func (s *RecomputeScheduler) Sweep(ctx context.Context) {
	now := time.Now()

	snaps, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("listing clusters failed", zap.Error(err))
		return
	}

	recomputed := 0
	for _, snap := range snaps {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("sweep aborted", zap.Error(err))
			return
		}

		if s.shouldRecompute(snap, now) {
			if err := s.recomputeOne(ctx, snap); err != nil {
				if errors.Is(err, ErrNoCentroid) {
					s.logger.Debug("no centroid available, skipping",
						zap.String("cluster_id", snap.ID))
				} else {
					s.logger.Error("centroid recompute failed",
						zap.String("cluster_id", snap.ID),
						zap.Error(err))
				}
			} else {
				recomputed++
			}
		}

		s.analyzeOne(ctx, snap.ID, now)
	}

	s.logger.Info("recompute sweep finished",
		zap.Int("clusters", len(snaps)),
		zap.Int("recomputed", recomputed),
	)
}

// shouldRecompute limits recomputes to stale, active clusters. Hydration
// failures are treated as "no" and surface during the actual update instead.
func (s *RecomputeScheduler) shouldRecompute(snap cluster.Snapshot, now time.Time) bool {
	if snap.Status != cluster.StatusActive {
		return false
	}
	c, err := cluster.FromSnapshot(snap)
	if err != nil {
		return false
	}
	return c.IsStale(now)
}

func (s *RecomputeScheduler) recomputeOne(ctx context.Context, snap cluster.Snapshot) error {
	vector, err := s.source.Recompute(ctx, snap)
	if err != nil {
		return err
	}

	err = s.store.Update(ctx, snap.ID, func(c *cluster.Cluster) error {
		return c.UpdateCentroid(vector)
	})
	if err != nil {
		return err
	}

	s.metrics.RecordRecompute(ctx)

	if s.index != nil {
		// The stored centroid may have been magnitude-clamped; index the
		// stored value, not the raw source vector.
		updated, err := s.store.Get(ctx, snap.ID)
		if err != nil {
			return fmt.Errorf("reloading cluster for indexing: %w", err)
		}
		if err := s.index.Upsert(ctx, snap.ID, updated.Centroid); err != nil {
			return fmt.Errorf("refreshing centroid index: %w", err)
		}
	}

	s.logger.Debug("centroid recomputed", zap.String("cluster_id", snap.ID))
	return nil
}

func (s *RecomputeScheduler) analyzeOne(ctx context.Context, id string, now time.Time) {
	snap, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Error("loading cluster for analysis failed",
			zap.String("cluster_id", id), zap.Error(err))
		return
	}

	c, err := cluster.FromSnapshot(snap)
	if err != nil {
		s.logger.Error("hydrating cluster for analysis failed",
			zap.String("cluster_id", id), zap.Error(err))
		return
	}

	analysis := s.analyzer.Analyze(c, now)
	s.metrics.RecordAnalysis(ctx, len(analysis.Issues), len(analysis.Recommendations))

	if len(analysis.Issues) == 0 {
		return
	}

	fields := []zap.Field{
		zap.String("cluster_id", id),
		zap.Int("issues", len(analysis.Issues)),
		zap.Int("recommendations", len(analysis.Recommendations)),
		zap.Float64("coherence_score", analysis.CoherenceScore),
		zap.Float64("density_score", analysis.DensityScore),
	}
	for _, issue := range analysis.Issues {
		if issue.Severity == cluster.SeverityHigh {
			s.logger.Warn("cluster health degraded", fields...)
			return
		}
	}
	s.logger.Info("cluster health findings", fields...)
}
