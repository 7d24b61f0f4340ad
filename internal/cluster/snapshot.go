package cluster

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the plain-data view of a cluster used at the persistence
// boundary. The engine only ever operates on the decoded form; serializing a
// snapshot (including the centroid) is the store's concern.
type Snapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	Centroid  []float32 `json:"centroid"`
	Dimension int       `json:"dimension"`

	Size          int     `json:"size"`
	Density       float64 `json:"density"`
	Coherence     float64 `json:"coherence"`
	AvgEngagement float64 `json:"avg_engagement"`

	Topics         []string `json:"topics,omitempty"`
	DominantTopics []string `json:"dominant_topics,omitempty"`

	Quality Quality `json:"quality"`
	Type    Type    `json:"type"`
	Status  Status  `json:"status"`

	Statistics Statistics `json:"statistics"`
	Config     Config     `json:"config"`

	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	LastRecomputedAt time.Time `json:"last_recomputed_at,omitempty"`
}

// Snapshot returns a deep copy of the cluster's state. The copy shares no
// mutable memory with the aggregate, so it is safe to analyze or serialize
// concurrently with further mutation of the original.
func (c *Cluster) Snapshot() Snapshot {
	return Snapshot{
		ID:               c.id,
		Name:             c.name,
		Description:      c.description,
		Centroid:         c.Centroid(),
		Dimension:        c.dimension,
		Size:             c.size,
		Density:          c.density,
		Coherence:        c.coherence,
		AvgEngagement:    c.avgEngagement,
		Topics:           c.Topics(),
		DominantTopics:   c.DominantTopics(),
		Quality:          c.quality,
		Type:             c.typ,
		Status:           c.status,
		Statistics:       c.stats,
		Config:           c.config,
		CreatedAt:        c.createdAt,
		UpdatedAt:        c.updatedAt,
		LastRecomputedAt: c.lastRecomputedAt,
	}
}

// FromSnapshot hydrates a cluster from a fully-formed snapshot, revalidating
// every invariant. Partial snapshots are rejected; the engine never loads an
// aggregate it could not have produced itself.
//
// The quality level is rederived from the snapshot's metrics rather than
// trusted, keeping the label consistent with the data even if storage was
// edited out of band.
func FromSnapshot(s Snapshot) (*Cluster, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("%w: snapshot ID is empty", ErrValidation)
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		return nil, fmt.Errorf("%w: snapshot ID %q is not a UUID", ErrValidation, s.ID)
	}
	if err := s.Config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validateDimension(s.Dimension, s.Config); err != nil {
		return nil, err
	}
	if len(s.Centroid) != s.Dimension {
		return nil, fmt.Errorf("%w: centroid length %d != dimension %d", ErrValidation, len(s.Centroid), s.Dimension)
	}
	if err := validateName(s.Name, s.Config); err != nil {
		return nil, err
	}
	if err := validateDescription(s.Description, s.Config); err != nil {
		return nil, err
	}
	if !validTypes[s.Type] {
		return nil, fmt.Errorf("%w: unknown cluster type %q", ErrValidation, s.Type)
	}
	if s.Status != StatusActive && s.Status != StatusInactive && s.Status != StatusArchived {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, s.Status)
	}
	if s.Size < 0 {
		return nil, fmt.Errorf("%w: size cannot be negative", ErrValidation)
	}
	if s.Density < 0 || s.Density > 1 {
		return nil, fmt.Errorf("%w: density %f outside [0, 1]", ErrValidation, s.Density)
	}
	if s.Coherence < 0 || s.Coherence > 1 {
		return nil, fmt.Errorf("%w: coherence %f outside [0, 1]", ErrValidation, s.Coherence)
	}
	if s.AvgEngagement < 0 {
		return nil, fmt.Errorf("%w: avg_engagement cannot be negative", ErrValidation)
	}

	topics := dedupeTopics(s.Topics)
	if len(topics) > s.Config.MaxTopics {
		return nil, fmt.Errorf("%w: %d topics exceeds maximum %d", ErrValidation, len(topics), s.Config.MaxTopics)
	}
	dominant := dedupeTopics(s.DominantTopics)
	if len(dominant) == 0 {
		dominant = defaultDominantTopics(topics)
	}

	c := &Cluster{
		id:               s.ID,
		name:             s.Name,
		description:      s.Description,
		centroid:         ClampMagnitude(s.Centroid, s.Config.MaxCentroidMagnitude),
		dimension:        s.Dimension,
		size:             s.Size,
		density:          s.Density,
		coherence:        s.Coherence,
		avgEngagement:    s.AvgEngagement,
		topics:           topics,
		dominantTopics:   dominant,
		typ:              s.Type,
		status:           s.Status,
		stats:            s.Statistics,
		config:           s.Config,
		createdAt:        s.CreatedAt,
		updatedAt:        s.UpdatedAt,
		lastRecomputedAt: s.LastRecomputedAt,
	}
	c.quality = c.deriveQuality()
	return c, nil
}
