// Package store provides the persistence boundary for cluster aggregates.
//
// The engine itself never writes to storage; it operates on in-memory
// aggregates and hands mutated state back for a caller to persist. Store is
// that caller-facing contract, and MemoryStore is the in-process
// implementation used by the daemon and tests.
//
// MemoryStore enforces the engine's concurrency discipline: mutations to one
// cluster ID are serialized through Update, so the aggregate's mutators never
// see concurrent writers.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fyrsmithlabs/clusterd/internal/cluster"
)

// ErrClusterNotFound indicates the requested cluster ID is not in the store.
var ErrClusterNotFound = errors.New("cluster not found")

// Store defines cluster persistence operations.
//
// Implementations exchange snapshots, never live aggregates, so no caller can
// mutate stored state without going through Update.
type Store interface {
	// Get returns the snapshot of one cluster.
	Get(ctx context.Context, id string) (cluster.Snapshot, error)

	// List returns snapshots of all clusters, ordered by ID for
	// deterministic iteration.
	List(ctx context.Context) ([]cluster.Snapshot, error)

	// Put stores a cluster snapshot, replacing any previous version.
	Put(ctx context.Context, snap cluster.Snapshot) error

	// Delete removes a cluster.
	Delete(ctx context.Context, id string) error

	// Update hydrates the cluster, applies fn to it, and stores the result.
	// Calls for the same ID are serialized (single writer per cluster ID);
	// if fn returns an error the stored state is unchanged.
	Update(ctx context.Context, id string, fn func(*cluster.Cluster) error) error
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	clusters map[string]cluster.Snapshot

	// writeLocks serializes Update calls per cluster ID.
	writeLocksMu sync.Mutex
	writeLocks   map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clusters:   make(map[string]cluster.Snapshot),
		writeLocks: make(map[string]*sync.Mutex),
	}
}

// Get returns the snapshot for one cluster ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (cluster.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.clusters[id]
	if !ok {
		return cluster.Snapshot{}, fmt.Errorf("%w: %s", ErrClusterNotFound, id)
	}
	return cloneSnapshot(snap), nil
}

// List returns all cluster snapshots ordered by ID.
func (s *MemoryStore) List(ctx context.Context) ([]cluster.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]cluster.Snapshot, 0, len(s.clusters))
	for _, snap := range s.clusters {
		out = append(out, cloneSnapshot(snap))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Put stores a snapshot, replacing any previous version of the cluster.
func (s *MemoryStore) Put(ctx context.Context, snap cluster.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("%w: snapshot ID is empty", cluster.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusters[snap.ID] = cloneSnapshot(snap)
	return nil
}

// Delete removes a cluster. Deleting an absent ID is an error so callers
// notice double deletes.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clusters[id]; !ok {
		return fmt.Errorf("%w: %s", ErrClusterNotFound, id)
	}
	delete(s.clusters, id)
	return nil
}

// Update applies fn to the identified cluster under the per-ID write lock.
//
// The cluster is hydrated from its stored snapshot, mutated by fn, and the
// resulting snapshot replaces the stored one. An error from fn (or from
// hydration) leaves the store unchanged.
func (s *MemoryStore) Update(ctx context.Context, id string, fn func(*cluster.Cluster) error) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	snap, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	c, err := cluster.FromSnapshot(snap)
	if err != nil {
		return fmt.Errorf("hydrating cluster %s: %w", id, err)
	}

	if err := fn(c); err != nil {
		return err
	}

	return s.Put(ctx, c.Snapshot())
}

// lockFor returns the write lock for a cluster ID, creating it on first use.
func (s *MemoryStore) lockFor(id string) *sync.Mutex {
	s.writeLocksMu.Lock()
	defer s.writeLocksMu.Unlock()

	lock, ok := s.writeLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.writeLocks[id] = lock
	}
	return lock
}

// cloneSnapshot deep-copies the slice-valued fields so stored state never
// shares memory with caller-held snapshots.
func cloneSnapshot(snap cluster.Snapshot) cluster.Snapshot {
	out := snap
	out.Centroid = append([]float32(nil), snap.Centroid...)
	out.Topics = append([]string(nil), snap.Topics...)
	out.DominantTopics = append([]string(nil), snap.DominantTopics...)
	return out
}
