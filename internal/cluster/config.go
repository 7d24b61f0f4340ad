package cluster

import (
	"fmt"
	"math"
	"time"
)

// Config holds the policy values injected into every cluster computation:
// size bounds, quality weights, analyzer thresholds, and assignment
// thresholds.
//
// The zero value is not usable; start from DefaultConfig and override fields.
// A Config attached to a cluster is a snapshot: changing the global defaults
// later does not affect clusters already carrying their own copy.
//
// The default values are load-bearing for deployments tuned against them;
// change them only alongside a migration of persisted clusters.
type Config struct {
	// MinDimension and MaxDimension bound the allowed centroid dimension.
	MinDimension int `koanf:"min_dimension" json:"min_dimension"`
	MaxDimension int `koanf:"max_dimension" json:"max_dimension"`

	// MaxCentroidMagnitude is the magnitude ceiling for stored centroids.
	// Vectors exceeding it are rescaled to unit magnitude.
	MaxCentroidMagnitude float64 `koanf:"max_centroid_magnitude" json:"max_centroid_magnitude"`

	// MaxTopics bounds the topic set size.
	MaxTopics int `koanf:"max_topics" json:"max_topics"`

	// MaxNameLength and MaxDescriptionLength bound display metadata.
	MaxNameLength        int `koanf:"max_name_length" json:"max_name_length"`
	MaxDescriptionLength int `koanf:"max_description_length" json:"max_description_length"`

	// OptimalSizeMin and OptimalSizeMax define the membership range scoring
	// a full 1.0 size score. Outside the range the score decays toward
	// SizeScoreFloor.
	OptimalSizeMin int     `koanf:"optimal_size_min" json:"optimal_size_min"`
	OptimalSizeMax int     `koanf:"optimal_size_max" json:"optimal_size_max"`
	SizeScoreFloor float64 `koanf:"size_score_floor" json:"size_score_floor"`

	// Quality score weights. Must sum to 1.0.
	CoherenceWeight  float64 `koanf:"coherence_weight" json:"coherence_weight"`
	DensityWeight    float64 `koanf:"density_weight" json:"density_weight"`
	SizeWeight       float64 `koanf:"size_weight" json:"size_weight"`
	EngagementWeight float64 `koanf:"engagement_weight" json:"engagement_weight"`

	// EngagementCap caps the engagement contribution to the quality score.
	EngagementCap float64 `koanf:"engagement_cap" json:"engagement_cap"`

	// Quality level thresholds: scores below MediumQualityThreshold map to
	// low, then medium, high, and excellent in ascending order.
	MediumQualityThreshold    float64 `koanf:"medium_quality_threshold" json:"medium_quality_threshold"`
	HighQualityThreshold      float64 `koanf:"high_quality_threshold" json:"high_quality_threshold"`
	ExcellentQualityThreshold float64 `koanf:"excellent_quality_threshold" json:"excellent_quality_threshold"`

	// Analyzer thresholds.
	LowCoherenceThreshold float64 `koanf:"low_coherence_threshold" json:"low_coherence_threshold"`
	LowDensityThreshold   float64 `koanf:"low_density_threshold" json:"low_density_threshold"`
	OversizedThreshold    int     `koanf:"oversized_threshold" json:"oversized_threshold"`
	UndersizedThreshold   int     `koanf:"undersized_threshold" json:"undersized_threshold"`

	// StaleThresholdHours is the age after which a centroid recompute is
	// considered overdue.
	StaleThresholdHours int `koanf:"stale_threshold_hours" json:"stale_threshold_hours"`

	// MaxIssues and MaxRecommendations truncate analyzer output, preserving
	// detection order.
	MaxIssues          int `koanf:"max_issues" json:"max_issues"`
	MaxRecommendations int `koanf:"max_recommendations" json:"max_recommendations"`

	// Assignment policy thresholds. Similarity at or above AutoAssignThreshold
	// auto-assigns; at or above ManualReviewThreshold it queues for review;
	// below that it is rejected.
	AutoAssignThreshold   float64 `koanf:"auto_assign_threshold" json:"auto_assign_threshold"`
	ManualReviewThreshold float64 `koanf:"manual_review_threshold" json:"manual_review_threshold"`
}

// DefaultConfig returns the engine's default policy values.
func DefaultConfig() Config {
	return Config{
		MinDimension:         32,
		MaxDimension:         512,
		MaxCentroidMagnitude: 1.0,
		MaxTopics:            20,
		MaxNameLength:        100,
		MaxDescriptionLength: 500,

		OptimalSizeMin: 10,
		OptimalSizeMax: 500,
		SizeScoreFloor: 0.2,

		CoherenceWeight:  0.35,
		DensityWeight:    0.25,
		SizeWeight:       0.20,
		EngagementWeight: 0.20,
		EngagementCap:    1.0,

		MediumQualityThreshold:    0.4,
		HighQualityThreshold:      0.6,
		ExcellentQualityThreshold: 0.8,

		LowCoherenceThreshold: 0.4,
		LowDensityThreshold:   0.2,
		OversizedThreshold:    800,
		UndersizedThreshold:   5,

		StaleThresholdHours: 72,

		MaxIssues:          10,
		MaxRecommendations: 5,

		AutoAssignThreshold:   0.8,
		ManualReviewThreshold: 0.6,
	}
}

// weightSumTolerance absorbs float accumulation error when checking that the
// quality weights sum to 1.0.
const weightSumTolerance = 1e-9

// Validate checks the config for internal consistency.
func (c Config) Validate() error {
	if c.MinDimension <= 0 {
		return fmt.Errorf("%w: min_dimension must be positive, got %d", ErrValidation, c.MinDimension)
	}
	if c.MaxDimension < c.MinDimension {
		return fmt.Errorf("%w: max_dimension %d below min_dimension %d", ErrValidation, c.MaxDimension, c.MinDimension)
	}
	if c.MaxCentroidMagnitude <= 0 {
		return fmt.Errorf("%w: max_centroid_magnitude must be positive", ErrValidation)
	}
	if c.MaxTopics <= 0 {
		return fmt.Errorf("%w: max_topics must be positive", ErrValidation)
	}
	if c.MaxNameLength <= 0 || c.MaxDescriptionLength <= 0 {
		return fmt.Errorf("%w: name/description length bounds must be positive", ErrValidation)
	}
	if c.OptimalSizeMin <= 0 || c.OptimalSizeMax < c.OptimalSizeMin {
		return fmt.Errorf("%w: optimal size range [%d, %d] is invalid", ErrValidation, c.OptimalSizeMin, c.OptimalSizeMax)
	}
	if c.SizeScoreFloor < 0 || c.SizeScoreFloor > 1 {
		return fmt.Errorf("%w: size_score_floor must be in [0, 1]", ErrValidation)
	}

	sum := c.CoherenceWeight + c.DensityWeight + c.SizeWeight + c.EngagementWeight
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: quality weights must sum to 1.0, got %f", ErrValidation, sum)
	}
	for _, w := range []float64{c.CoherenceWeight, c.DensityWeight, c.SizeWeight, c.EngagementWeight} {
		if w < 0 {
			return fmt.Errorf("%w: quality weights must be non-negative", ErrValidation)
		}
	}

	if c.EngagementCap <= 0 {
		return fmt.Errorf("%w: engagement_cap must be positive", ErrValidation)
	}

	if !(c.MediumQualityThreshold < c.HighQualityThreshold && c.HighQualityThreshold < c.ExcellentQualityThreshold) {
		return fmt.Errorf("%w: quality thresholds must be strictly ascending", ErrValidation)
	}
	for _, t := range []float64{c.MediumQualityThreshold, c.HighQualityThreshold, c.ExcellentQualityThreshold} {
		if t < 0 || t > 1 {
			return fmt.Errorf("%w: quality thresholds must be in [0, 1]", ErrValidation)
		}
	}

	if c.LowCoherenceThreshold < 0 || c.LowCoherenceThreshold > 1 {
		return fmt.Errorf("%w: low_coherence_threshold must be in [0, 1]", ErrValidation)
	}
	if c.LowDensityThreshold < 0 || c.LowDensityThreshold > 1 {
		return fmt.Errorf("%w: low_density_threshold must be in [0, 1]", ErrValidation)
	}
	if c.OversizedThreshold <= 0 || c.UndersizedThreshold < 0 {
		return fmt.Errorf("%w: size analyzer thresholds are invalid", ErrValidation)
	}
	if c.UndersizedThreshold >= c.OversizedThreshold {
		return fmt.Errorf("%w: undersized_threshold %d must be below oversized_threshold %d", ErrValidation, c.UndersizedThreshold, c.OversizedThreshold)
	}

	if c.StaleThresholdHours <= 0 {
		return fmt.Errorf("%w: stale_threshold_hours must be positive", ErrValidation)
	}
	if c.MaxIssues <= 0 || c.MaxRecommendations <= 0 {
		return fmt.Errorf("%w: analyzer output limits must be positive", ErrValidation)
	}

	if c.AutoAssignThreshold < 0 || c.AutoAssignThreshold > 1 {
		return fmt.Errorf("%w: auto_assign_threshold must be in [0, 1]", ErrValidation)
	}
	if c.ManualReviewThreshold < 0 || c.ManualReviewThreshold > c.AutoAssignThreshold {
		return fmt.Errorf("%w: manual_review_threshold must be in [0, auto_assign_threshold]", ErrValidation)
	}

	return nil
}

// StaleThreshold returns the staleness threshold as a duration.
func (c Config) StaleThreshold() time.Duration {
	return time.Duration(c.StaleThresholdHours) * time.Hour
}
