package cluster

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// timeNow is a variable for testing purposes (allows mocking time).
var timeNow = time.Now

// Quality is the derived quality level of a cluster.
//
// Quality is never set directly: it is always recomputed from the raw metrics
// through the weighted quality score, which guarantees the label stays
// consistent with the metrics that produced it.
type Quality string

const (
	QualityLow       Quality = "low"
	QualityMedium    Quality = "medium"
	QualityHigh      Quality = "high"
	QualityExcellent Quality = "excellent"
)

// Type describes how a cluster groups its members. Chosen at creation,
// immutable thereafter.
type Type string

const (
	TypeContentBased  Type = "content_based"
	TypeBehaviorBased Type = "behavior_based"
	TypeHybrid        Type = "hybrid"
	TypeTemporal      Type = "temporal"
)

// validTypes for construction-time checking.
var validTypes = map[Type]bool{
	TypeContentBased:  true,
	TypeBehaviorBased: true,
	TypeHybrid:        true,
	TypeTemporal:      true,
}

// Status is the lifecycle state of a cluster.
//
// ACTIVE and INACTIVE are working states. ARCHIVED is a parking state, not a
// tombstone: Activate is permitted after Archive, so archival is revocable by
// an explicit operation. Deletion is the owning store's concern.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusArchived Status = "archived"
)

// Statistics is the nested statistics record carried by a cluster. It is
// updated wholesale by the caller (UpdateStatistics) or incrementally by
// membership mutation.
type Statistics struct {
	TotalMembers             int       `json:"total_members"`
	ActiveMembers            int       `json:"active_members"`
	TotalInteractions        int       `json:"total_interactions"`
	AvgInteractionsPerMember float64   `json:"avg_interactions_per_member"`
	EngagementRate           float64   `json:"engagement_rate"`
	GrowthRate               float64   `json:"growth_rate"`
	RetentionRate            float64   `json:"retention_rate"`
	LastCalculatedAt         time.Time `json:"last_calculated_at"`
}

// Cluster is the core aggregate: one instance per semantic group of content.
//
// Fields are unexported so all mutation flows through methods that validate
// invariants first and assign second; read accessors return defensive copies.
// A Cluster is not safe for concurrent mutation; the store layer serializes
// writers per cluster ID.
type Cluster struct {
	id          string
	name        string
	description string

	centroid  []float32
	dimension int

	size          int
	density       float64
	coherence     float64
	avgEngagement float64

	topics         []string
	dominantTopics []string

	quality Quality
	typ     Type
	status  Status

	stats  Statistics
	config Config

	createdAt        time.Time
	updatedAt        time.Time
	lastRecomputedAt time.Time // zero until the first centroid recompute
}

// Option configures optional fields at construction.
type Option func(*Cluster)

// WithName sets the display name.
func WithName(name string) Option {
	return func(c *Cluster) { c.name = name }
}

// WithDescription sets the display description.
func WithDescription(description string) Option {
	return func(c *Cluster) { c.description = description }
}

// WithType sets the cluster type. Defaults to TypeContentBased.
func WithType(t Type) Option {
	return func(c *Cluster) { c.typ = t }
}

// WithTopics sets the initial topic list. Deduplicated and bounded like
// UpdateTopics.
func WithTopics(topics ...string) Option {
	return func(c *Cluster) { c.topics = topics }
}

// WithConfig overrides the global default policy for this cluster.
func WithConfig(cfg Config) Option {
	return func(c *Cluster) { c.config = cfg }
}

// New creates a cluster from its required fields, assigning a generated UUID,
// timestamps, empty statistics, and the default config unless overridden.
//
// The centroid length must equal dimension, dimension must fall inside the
// configured bounds, and the centroid magnitude is clamped to the configured
// maximum. The initial quality level is derived from the quality score over
// the zero-valued metrics.
//
// Returns ErrValidation (wrapped with detail) on any invariant violation; a
// failed call constructs nothing.
func New(centroid []float32, dimension int, opts ...Option) (*Cluster, error) {
	now := timeNow()

	c := &Cluster{
		id:        uuid.New().String(),
		typ:       TypeContentBased,
		status:    StatusActive,
		config:    DefaultConfig(),
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validateDimension(dimension, c.config); err != nil {
		return nil, err
	}
	if len(centroid) != dimension {
		return nil, fmt.Errorf("%w: centroid length %d != dimension %d", ErrValidation, len(centroid), dimension)
	}
	if err := validateName(c.name, c.config); err != nil {
		return nil, err
	}
	if err := validateDescription(c.description, c.config); err != nil {
		return nil, err
	}
	if !validTypes[c.typ] {
		return nil, fmt.Errorf("%w: unknown cluster type %q", ErrValidation, c.typ)
	}

	topics := dedupeTopics(c.topics)
	if len(topics) > c.config.MaxTopics {
		return nil, fmt.Errorf("%w: %d topics exceeds maximum %d", ErrValidation, len(topics), c.config.MaxTopics)
	}

	c.dimension = dimension
	c.centroid = ClampMagnitude(centroid, c.config.MaxCentroidMagnitude)
	c.topics = topics
	c.dominantTopics = defaultDominantTopics(topics)
	c.quality = c.deriveQuality()

	return c, nil
}

// Read accessors. Slice-valued accessors return copies so callers cannot
// mutate internal state.

func (c *Cluster) ID() string          { return c.id }
func (c *Cluster) Name() string        { return c.name }
func (c *Cluster) Description() string { return c.description }
func (c *Cluster) Dimension() int      { return c.dimension }
func (c *Cluster) Size() int           { return c.size }
func (c *Cluster) Density() float64    { return c.density }
func (c *Cluster) Coherence() float64  { return c.coherence }
func (c *Cluster) AvgEngagement() float64 {
	return c.avgEngagement
}
func (c *Cluster) Quality() Quality            { return c.quality }
func (c *Cluster) Type() Type                  { return c.typ }
func (c *Cluster) Status() Status              { return c.status }
func (c *Cluster) Statistics() Statistics      { return c.stats }
func (c *Cluster) Config() Config              { return c.config }
func (c *Cluster) CreatedAt() time.Time        { return c.createdAt }
func (c *Cluster) UpdatedAt() time.Time        { return c.updatedAt }
func (c *Cluster) LastRecomputedAt() time.Time { return c.lastRecomputedAt }

// Centroid returns a copy of the centroid vector.
func (c *Cluster) Centroid() []float32 {
	out := make([]float32, len(c.centroid))
	copy(out, c.centroid)
	return out
}

// Topics returns a copy of the topic list.
func (c *Cluster) Topics() []string {
	return append([]string(nil), c.topics...)
}

// DominantTopics returns a copy of the dominant topic list.
func (c *Cluster) DominantTopics() []string {
	return append([]string(nil), c.dominantTopics...)
}

// UpdateCentroid replaces the centroid with a freshly computed vector.
//
// The vector length must equal the cluster's dimension; otherwise
// ErrDimensionMismatch is returned and the stored centroid is untouched.
// Magnitude exceeding the configured maximum is rescaled to unit magnitude.
// Stamps lastRecomputedAt and recomputes quality.
func (c *Cluster) UpdateCentroid(v []float32) error {
	if len(v) != c.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), c.dimension)
	}

	now := timeNow()
	c.centroid = ClampMagnitude(v, c.config.MaxCentroidMagnitude)
	c.lastRecomputedAt = now
	c.updatedAt = now
	c.quality = c.deriveQuality()
	return nil
}

// AddMember records one new member: bumps size and membership statistics,
// rederives density, and recomputes quality.
func (c *Cluster) AddMember() {
	c.size++
	c.stats.TotalMembers++
	c.stats.ActiveMembers++
	c.recalculateDensity()
	c.quality = c.deriveQuality()
	c.updatedAt = timeNow()
}

// RemoveMember records one member removal. Size and membership statistics
// floor at zero regardless of call count.
func (c *Cluster) RemoveMember() {
	if c.size > 0 {
		c.size--
	}
	if c.stats.TotalMembers > 0 {
		c.stats.TotalMembers--
	}
	if c.stats.ActiveMembers > 0 {
		c.stats.ActiveMembers--
	}
	c.recalculateDensity()
	c.quality = c.deriveQuality()
	c.updatedAt = timeNow()
}

// recalculateDensity derives density from interaction volume relative to
// size: min(1, totalInteractions / (size*100)). The divisor is floored at 1
// so an empty cluster yields a defined (zero-ish) density instead of a
// division by zero.
func (c *Cluster) recalculateDensity() {
	divisor := float64(c.size * 100)
	if divisor < 1 {
		divisor = 1
	}
	c.density = math.Min(1.0, float64(c.stats.TotalInteractions)/divisor)
}

// MetricsUpdate carries optional metric changes for UpdateMetrics. Nil fields
// are left untouched.
type MetricsUpdate struct {
	Density       *float64
	Coherence     *float64
	AvgEngagement *float64
}

// UpdateMetrics applies the provided metric values, clamping each into its
// valid range before assignment, then recomputes quality.
//
// Density and coherence clamp into [0, 1]; average engagement floors at 0.
func (c *Cluster) UpdateMetrics(u MetricsUpdate) {
	if u.Density != nil {
		c.density = clamp01(*u.Density)
	}
	if u.Coherence != nil {
		c.coherence = clamp01(*u.Coherence)
	}
	if u.AvgEngagement != nil {
		c.avgEngagement = math.Max(0, *u.AvgEngagement)
	}
	c.quality = c.deriveQuality()
	c.updatedAt = timeNow()
}

// UpdateTopics replaces the topic sets. Topics are deduplicated preserving
// first occurrence and bounded by the configured maximum. When dominant is
// empty, the first three topics become the dominant set.
func (c *Cluster) UpdateTopics(topics []string, dominant []string) error {
	deduped := dedupeTopics(topics)
	if len(deduped) > c.config.MaxTopics {
		return fmt.Errorf("%w: %d topics exceeds maximum %d", ErrValidation, len(deduped), c.config.MaxTopics)
	}

	dedupedDominant := dedupeTopics(dominant)
	if len(dedupedDominant) == 0 {
		dedupedDominant = defaultDominantTopics(deduped)
	}

	c.topics = deduped
	c.dominantTopics = dedupedDominant
	c.updatedAt = timeNow()
	return nil
}

// StatisticsUpdate carries optional statistics changes for UpdateStatistics.
// Nil fields are left untouched.
type StatisticsUpdate struct {
	TotalMembers             *int
	ActiveMembers            *int
	TotalInteractions        *int
	AvgInteractionsPerMember *float64
	EngagementRate           *float64
	GrowthRate               *float64
	RetentionRate            *float64
}

// UpdateStatistics merges the provided statistics fields and stamps
// LastCalculatedAt. Counts floor at zero; rates clamp into [0, 1] except
// growth rate, which may legitimately be negative (shrinking cluster).
func (c *Cluster) UpdateStatistics(u StatisticsUpdate) {
	now := timeNow()

	if u.TotalMembers != nil {
		c.stats.TotalMembers = maxInt(0, *u.TotalMembers)
	}
	if u.ActiveMembers != nil {
		c.stats.ActiveMembers = maxInt(0, *u.ActiveMembers)
	}
	if u.TotalInteractions != nil {
		c.stats.TotalInteractions = maxInt(0, *u.TotalInteractions)
	}
	if u.AvgInteractionsPerMember != nil {
		c.stats.AvgInteractionsPerMember = math.Max(0, *u.AvgInteractionsPerMember)
	}
	if u.EngagementRate != nil {
		c.stats.EngagementRate = clamp01(*u.EngagementRate)
	}
	if u.GrowthRate != nil {
		c.stats.GrowthRate = *u.GrowthRate
	}
	if u.RetentionRate != nil {
		c.stats.RetentionRate = clamp01(*u.RetentionRate)
	}

	c.stats.LastCalculatedAt = now
	c.updatedAt = now
}

// Archive transitions the cluster to ARCHIVED. Membership changes are not
// expected afterwards, though the engine does not structurally prevent them.
func (c *Cluster) Archive() {
	c.status = StatusArchived
	c.updatedAt = timeNow()
}

// Activate transitions the cluster to ACTIVE. Permitted from any state,
// including ARCHIVED: archival is an explicit, revocable parking state.
func (c *Cluster) Activate() {
	c.status = StatusActive
	c.updatedAt = timeNow()
}

// Deactivate transitions the cluster to INACTIVE.
func (c *Cluster) Deactivate() {
	c.status = StatusInactive
	c.updatedAt = timeNow()
}

// IsStale reports whether the centroid recompute is overdue at the given
// time: true when the centroid has never been recomputed, or when the last
// recompute is older than the configured staleness threshold.
func (c *Cluster) IsStale(now time.Time) bool {
	if c.lastRecomputedAt.IsZero() {
		return true
	}
	return now.Sub(c.lastRecomputedAt) > c.config.StaleThreshold()
}

// QualityScore computes the weighted quality score in [0, 1]:
//
//	coherence*Wc + density*Wd + sizeScore*Ws + engagementScore*We
//
// The score is always derived on demand, never stored as an independent
// input, so it cannot drift from the metrics underneath it.
func (c *Cluster) QualityScore() float64 {
	cfg := c.config
	return c.coherence*cfg.CoherenceWeight +
		c.density*cfg.DensityWeight +
		c.sizeScore()*cfg.SizeWeight +
		c.engagementScore()*cfg.EngagementWeight
}

// sizeScore is 1.0 inside the optimal size range; outside it decays
// proportionally with a configured floor.
func (c *Cluster) sizeScore() float64 {
	cfg := c.config
	if c.size >= cfg.OptimalSizeMin && c.size <= cfg.OptimalSizeMax {
		return 1.0
	}

	var ratio float64
	if c.size < cfg.OptimalSizeMin {
		ratio = float64(c.size) / float64(cfg.OptimalSizeMin)
	} else {
		ratio = float64(cfg.OptimalSizeMax) / float64(c.size)
	}
	return math.Max(cfg.SizeScoreFloor, ratio)
}

func (c *Cluster) engagementScore() float64 {
	return math.Min(c.avgEngagement, c.config.EngagementCap)
}

// deriveQuality maps the quality score onto the configured level thresholds.
func (c *Cluster) deriveQuality() Quality {
	score := c.QualityScore()
	cfg := c.config
	switch {
	case score >= cfg.ExcellentQualityThreshold:
		return QualityExcellent
	case score >= cfg.HighQualityThreshold:
		return QualityHigh
	case score >= cfg.MediumQualityThreshold:
		return QualityMedium
	default:
		return QualityLow
	}
}

func validateDimension(dimension int, cfg Config) error {
	if dimension < cfg.MinDimension || dimension > cfg.MaxDimension {
		return fmt.Errorf("%w: dimension %d outside [%d, %d]", ErrValidation, dimension, cfg.MinDimension, cfg.MaxDimension)
	}
	return nil
}

func validateName(name string, cfg Config) error {
	if len(name) > cfg.MaxNameLength {
		return fmt.Errorf("%w: name length %d exceeds maximum %d", ErrValidation, len(name), cfg.MaxNameLength)
	}
	return nil
}

func validateDescription(description string, cfg Config) error {
	if len(description) > cfg.MaxDescriptionLength {
		return fmt.Errorf("%w: description length %d exceeds maximum %d", ErrValidation, len(description), cfg.MaxDescriptionLength)
	}
	return nil
}

// dedupeTopics removes duplicates preserving first occurrence. Empty strings
// are dropped.
func dedupeTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	seen := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// defaultDominantTopics derives the dominant set as the first three topics.
func defaultDominantTopics(topics []string) []string {
	n := len(topics)
	if n > 3 {
		n = 3
	}
	return append([]string(nil), topics[:n]...)
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

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
