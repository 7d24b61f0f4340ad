// Package similarity implements the item-to-cluster similarity search that
// feeds assignment decisions.
//
// The clustering engine consumes (similarity, confidence) pairs; this package
// produces them by indexing cluster centroids in an embedded chromem-go
// vector database and querying it with item embedding vectors. Embedding
// generation stays out of scope: both centroids and item vectors arrive here
// precomputed.
//
// For indexes too small for an approximate query to be meaningful, Search
// falls back to an exact brute-force cosine scan over the tracked centroids.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/clusterd/internal/cluster"
)

// ErrEmptyIndex indicates a search against an index with no centroids.
var ErrEmptyIndex = errors.New("centroid index is empty")

// exactSearchThreshold is the index size below which Search uses the exact
// brute-force scan instead of the chromem query path. Approximate results on
// a handful of vectors are noisier than just computing every similarity.
const exactSearchThreshold = 10

// collectionName is the chromem collection holding cluster centroids.
const collectionName = "clusterd_centroids"

// collection is the slice of the chromem collection API the index uses,
// satisfied by *chromem.Collection.
type collection interface {
	AddDocument(ctx context.Context, doc chromem.Document) error
	Delete(ctx context.Context, where, whereDocuments map[string]string, ids ...string) error
	QueryEmbedding(ctx context.Context, queryEmbedding []float32, nResults int, where, whereDocuments map[string]string) ([]chromem.Result, error)
}

// Candidate is one scored cluster returned by Search, ordered best-first.
type Candidate struct {
	ClusterID  string
	Similarity float64
}

// Index maintains the searchable set of cluster centroids.
//
// All centroids must share one dimension, fixed at construction. Index is
// safe for concurrent use.
type Index struct {
	dimension int
	logger    *zap.Logger

	db   *chromem.DB
	coll collection

	mu        sync.RWMutex
	centroids map[string][]float32
}

// NewIndex creates an empty centroid index for vectors of the given
// dimension.
func NewIndex(dimension int, logger *zap.Logger) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", cluster.ErrValidation, dimension)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db := chromem.NewDB()
	// All documents carry precomputed embeddings, so the embedding function
	// must never run; posting an error keeps any text-query misuse loud.
	coll, err := db.CreateCollection(collectionName, nil, rejectEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("creating centroid collection: %w", err)
	}

	return &Index{
		dimension: dimension,
		logger:    logger,
		db:        db,
		coll:      coll,
		centroids: make(map[string][]float32),
	}, nil
}

// rejectEmbeddingFunc trips if anything asks chromem to embed text.
func rejectEmbeddingFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("centroid index stores precomputed embeddings only")
}

// Dimension returns the fixed centroid dimension.
func (x *Index) Dimension() int {
	return x.dimension
}

// Len returns the number of indexed centroids.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.centroids)
}

// Upsert adds or replaces the centroid for a cluster.
func (x *Index) Upsert(ctx context.Context, clusterID string, centroid []float32) error {
	if clusterID == "" {
		return fmt.Errorf("%w: cluster ID cannot be empty", cluster.ErrValidation)
	}
	if len(centroid) != x.dimension {
		return fmt.Errorf("%w: got %d, want %d", cluster.ErrDimensionMismatch, len(centroid), x.dimension)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	// Replace any prior document for the cluster before re-adding.
	if _, ok := x.centroids[clusterID]; ok {
		if err := x.coll.Delete(ctx, nil, nil, clusterID); err != nil {
			return fmt.Errorf("removing stale centroid %s: %w", clusterID, err)
		}
	}

	stored := append([]float32(nil), centroid...)
	if err := x.coll.AddDocument(ctx, chromem.Document{
		ID:        clusterID,
		Embedding: stored,
	}); err != nil {
		// The prior document is already gone from the collection; drop the
		// tracked centroid too so both search paths agree the cluster is
		// unindexed.
		delete(x.centroids, clusterID)
		return fmt.Errorf("indexing centroid %s: %w", clusterID, err)
	}
	x.centroids[clusterID] = stored

	x.logger.Debug("indexed centroid",
		zap.String("cluster_id", clusterID),
		zap.Int("index_size", len(x.centroids)),
	)
	return nil
}

// Remove drops a cluster's centroid from the index. Removing an unknown ID
// is a no-op.
func (x *Index) Remove(ctx context.Context, clusterID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.centroids[clusterID]; !ok {
		return nil
	}
	if err := x.coll.Delete(ctx, nil, nil, clusterID); err != nil {
		return fmt.Errorf("removing centroid %s: %w", clusterID, err)
	}
	delete(x.centroids, clusterID)
	return nil
}

// Search returns the k clusters most similar to the item vector, best first.
//
// Small indexes are scanned exactly; larger ones go through the chromem
// query path. Similarities are clamped into [0, 1] so downstream assignment
// validation always accepts them. Returns ErrEmptyIndex when nothing is
// indexed and ErrDimensionMismatch on a wrong-length item vector.
func (x *Index) Search(ctx context.Context, vector []float32, k int) ([]Candidate, error) {
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", cluster.ErrDimensionMismatch, len(vector), x.dimension)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", cluster.ErrValidation, k)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	count := len(x.centroids)
	if count == 0 {
		return nil, ErrEmptyIndex
	}
	if k > count {
		k = count
	}

	if count < exactSearchThreshold {
		return x.exactSearch(vector, k), nil
	}

	results, err := x.coll.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying centroid index: %w", err)
	}

	out := make([]Candidate, 0, len(results))
	for _, r := range results {
		out = append(out, Candidate{
			ClusterID:  r.ID,
			Similarity: clamp01(float64(r.Similarity)),
		})
	}
	return out, nil
}

// exactSearch computes cosine similarity against every indexed centroid and
// returns the top k. Ties break on cluster ID so results stay deterministic.
// Caller holds at least the read lock.
func (x *Index) exactSearch(vector []float32, k int) []Candidate {
	scored := make([]Candidate, 0, len(x.centroids))
	for id, centroid := range x.centroids {
		scored = append(scored, Candidate{
			ClusterID:  id,
			Similarity: clamp01(cluster.CosineSimilarity(vector, centroid)),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].ClusterID < scored[j].ClusterID
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
