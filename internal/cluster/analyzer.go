package cluster

import (
	"fmt"
	"math"
	"time"
)

// IssueType identifies a detected cluster health problem.
type IssueType string

const (
	IssueLowCoherence IssueType = "low_coherence"
	IssueLowDensity   IssueType = "low_density"
	IssueOversized    IssueType = "oversized"
	IssueUndersized   IssueType = "undersized"
	IssueStale        IssueType = "stale"
)

// Severity grades an issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Issue is one detected health problem.
type Issue struct {
	Type     IssueType `json:"type"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// RecommendationType identifies a suggested remediation.
type RecommendationType string

const (
	RecommendMerge     RecommendationType = "merge"
	RecommendSplit     RecommendationType = "split"
	RecommendRecompute RecommendationType = "recompute"
	RecommendArchive   RecommendationType = "archive"
)

// Recommendation is one suggested remediation with a confidence in [0, 1].
type Recommendation struct {
	Type       RecommendationType `json:"type"`
	Confidence float64            `json:"confidence"`
	Reason     string             `json:"reason"`
}

// Analysis is the read-only health diagnosis of one cluster snapshot.
//
// Issues and recommendations are ordered by detection (coherence, density,
// size, staleness, archival) and truncated to the configured maxima. The four
// component scores are returned alongside so callers can track trends without
// re-deriving them.
type Analysis struct {
	ClusterID  string    `json:"cluster_id"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	Issues          []Issue          `json:"issues"`
	Recommendations []Recommendation `json:"recommendations"`

	CoherenceScore float64 `json:"coherence_score"`
	DensityScore   float64 `json:"density_score"`
	DiversityScore float64 `json:"diversity_score"`
	StabilityScore float64 `json:"stability_score"`
}

// Analyzer produces cluster health diagnostics. It is stateless and
// side-effect-free: the same cluster, config, and clock input always yield a
// byte-identical Analysis, which keeps health-check reruns idempotent.
type Analyzer struct{}

// NewAnalyzer returns an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze diagnoses the cluster at the given time. It never mutates the
// cluster; all checks are pure reads over the aggregate and its config.
func (a *Analyzer) Analyze(c *Cluster, now time.Time) Analysis {
	cfg := c.Config()
	stale := c.IsStale(now)

	var issues []Issue
	var recs []Recommendation

	// Coherence.
	if c.Coherence() < cfg.LowCoherenceThreshold {
		issues = append(issues, Issue{
			Type:     IssueLowCoherence,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("coherence %.2f below threshold %.2f", c.Coherence(), cfg.LowCoherenceThreshold),
		})
		confidence := 0.5
		if stale {
			confidence += 0.1
		}
		recs = append(recs, Recommendation{
			Type:       RecommendRecompute,
			Confidence: confidence,
			Reason:     "low coherence suggests the centroid no longer represents its members",
		})
	}

	// Density. No recommendation by itself: low interaction volume is a
	// signal, not something a recompute or split would fix.
	if c.Density() < cfg.LowDensityThreshold {
		issues = append(issues, Issue{
			Type:     IssueLowDensity,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("density %.2f below threshold %.2f", c.Density(), cfg.LowDensityThreshold),
		})
	}

	// Size. Undersized is only checked when not oversized.
	if c.Size() > cfg.OversizedThreshold {
		issues = append(issues, Issue{
			Type:     IssueOversized,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("size %d above threshold %d", c.Size(), cfg.OversizedThreshold),
		})
		recs = append(recs, Recommendation{
			Type:       RecommendSplit,
			Confidence: 0.6,
			Reason:     "oversized clusters dilute similarity and slow assignment",
		})
	} else if c.Size() < cfg.UndersizedThreshold {
		issues = append(issues, Issue{
			Type:     IssueUndersized,
			Severity: SeverityLow,
			Message:  fmt.Sprintf("size %d below threshold %d", c.Size(), cfg.UndersizedThreshold),
		})
		recs = append(recs, Recommendation{
			Type:       RecommendMerge,
			Confidence: 0.7,
			Reason:     "undersized clusters carry too little signal to stand alone",
		})
	}

	// Staleness.
	if stale {
		issues = append(issues, Issue{
			Type:     IssueStale,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("centroid not recomputed within %dh", cfg.StaleThresholdHours),
		})
		recs = append(recs, Recommendation{
			Type:       RecommendRecompute,
			Confidence: 0.6,
			Reason:     "centroid recompute is overdue",
		})
	}

	// Archival: an inactive cluster whose centroid has gone stale is no
	// longer earning its keep.
	if c.Status() == StatusInactive && stale {
		recs = append(recs, Recommendation{
			Type:       RecommendArchive,
			Confidence: 0.5,
			Reason:     "inactive and stale; archive until membership resumes",
		})
	}

	if len(issues) > cfg.MaxIssues {
		issues = issues[:cfg.MaxIssues]
	}
	if len(recs) > cfg.MaxRecommendations {
		recs = recs[:cfg.MaxRecommendations]
	}

	return Analysis{
		ClusterID:       c.ID(),
		AnalyzedAt:      now,
		Issues:          issues,
		Recommendations: recs,
		CoherenceScore:  c.Coherence(),
		DensityScore:    c.Density(),
		DiversityScore:  diversityScore(len(c.Topics()), cfg.MaxTopics),
		StabilityScore:  stabilityScore(c.CreatedAt(), now, c.Statistics().GrowthRate),
	}
}

// diversityScore rewards topic coverage: zero with no topics, otherwise a
// 0.2 base plus up to 0.8 proportional to how much of the topic budget is
// used.
func diversityScore(topicCount, maxTopics int) float64 {
	if topicCount == 0 {
		return 0
	}
	if maxTopics < 1 {
		maxTopics = 1
	}
	ratio := math.Min(float64(topicCount)/float64(maxTopics), 1.0)
	return ratio*0.8 + 0.2
}

// stabilityScore blends cluster age (saturating at 30 days) with growth
// volatility. The growth term floors at zero so extreme growth rates cannot
// drive the score negative.
func stabilityScore(createdAt, now time.Time, growthRate float64) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	ageTerm := math.Min(ageDays/30, 1.0)
	growthTerm := math.Max(0, 1-math.Abs(growthRate))
	return 0.5*ageTerm + 0.5*growthTerm
}
