// Clusterd maintains a population of content clusters: centroid upkeep,
// health analysis, and similarity-based assignment of new items.
//
// Configuration is loaded from ~/.config/clusterd/config.yaml with CLUSTERD_*
// environment overrides. See internal/config for the full schema.
//
// Usage:
//
//	# Start the daemon with defaults
//	clusterd
//
//	# Explicit config file
//	clusterd -config /etc/clusterd/config.yaml
//
//	# Show version
//	clusterd version
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/clusterd/internal/config"
	"github.com/fyrsmithlabs/clusterd/internal/logging"
	"github.com/fyrsmithlabs/clusterd/internal/scheduler"
	"github.com/fyrsmithlabs/clusterd/internal/similarity"
	"github.com/fyrsmithlabs/clusterd/internal/store"
	"github.com/fyrsmithlabs/clusterd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/clusterd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  clusterd           Start the clusterd daemon\n")
			fmt.Fprintf(os.Stderr, "  clusterd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("clusterd error: %v", err)
	}

	log.Println("Shutdown complete")
}

func printVersion() {
	fmt.Printf("clusterd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires the engine and blocks until the context is cancelled.
//
//  1. Loads and validates configuration
//  2. Builds the logger and telemetry provider
//  3. Creates the store, centroid index, assigner, and recompute scheduler
//  4. Runs until signalled, then stops the scheduler and flushes telemetry
func run(ctx context.Context, configPath string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}

	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("Starting clusterd",
		zap.String("version", version),
		zap.Int("dimension", cfg.Similarity.Dimension),
		zap.Bool("scheduler_enabled", cfg.Scheduler.Enabled),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled))

	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewMetrics(tel.Meter("clusterd"))
	if err != nil {
		return fmt.Errorf("creating metric instruments: %w", err)
	}

	eng, err := newEngine(cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(eng.store, eng.source, logger.Named("scheduler"),
			scheduler.WithInterval(cfg.Scheduler.Interval),
			scheduler.WithTickTimeout(cfg.Scheduler.TickTimeout),
			scheduler.WithIndex(eng.index),
			scheduler.WithMetrics(metrics),
		)
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		if err := sched.Start(); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		defer sched.Stop()
	}

	logger.Info("clusterd ready",
		zap.Int("indexed_centroids", eng.index.Len()))

	<-ctx.Done()
	return nil
}

// engine holds the wired clustering components for the daemon's lifetime.
// Assignment is driven by callers feeding embeddings through the assigner
// and source; the scheduler keeps the centroids they rely on fresh.
type engine struct {
	store    *store.MemoryStore
	index    *similarity.Index
	assigner *similarity.Assigner
	source   *scheduler.RunningMeanSource
}

func newEngine(cfg *config.Config, logger *zap.Logger, metrics *telemetry.Metrics) (*engine, error) {
	st := store.NewMemoryStore()

	index, err := similarity.NewIndex(cfg.Similarity.Dimension, logger.Named("similarity"))
	if err != nil {
		return nil, fmt.Errorf("creating centroid index: %w", err)
	}

	assigner, err := similarity.NewAssigner(index, cfg.Engine, logger.Named("assigner"), metrics)
	if err != nil {
		return nil, fmt.Errorf("creating assigner: %w", err)
	}

	return &engine{
		store:    st,
		index:    index,
		assigner: assigner,
		source:   scheduler.NewRunningMeanSource(),
	}, nil
}
