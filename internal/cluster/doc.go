// Package cluster implements the content clustering engine core.
//
// # Overview
//
// The package owns the Cluster aggregate and the pure computations around it:
//   - Cluster: a semantic group of content items with a centroid vector,
//     membership count, derived metrics (density, coherence, quality), and a
//     small ACTIVE/INACTIVE/ARCHIVED state machine.
//   - Config: the immutable policy record (size bounds, thresholds, weights)
//     injected into every computation. Defaults are provided; each cluster
//     may carry its own override snapshot.
//   - Analyzer: a stateless health scorer producing an Analysis (issues,
//     recommendations, component scores) from a cluster snapshot.
//   - Assignment: the value record binding one content item to one cluster
//     with a similarity/confidence pair, plus the pure Classify policy.
//   - Vector helpers: magnitude, normalization, bounded scaling, cosine
//     similarity.
//
// # Mutation model
//
// Only Cluster methods mutate state, and every mutation is all-or-nothing:
// inputs are validated before any field is assigned, so a failed call leaves
// the aggregate exactly as it was. Analyze is read-only and deterministic:
// identical snapshot, config, and clock input always yield an identical
// Analysis.
//
// # Concurrency
//
// The package holds no shared state. Mutators require exclusive access to a
// given cluster (single writer per cluster ID); the store layer provides that
// serialization. No operation here blocks or performs I/O.
package cluster
