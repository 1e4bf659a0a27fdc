package qa

import (
	"fmt"
	"math"

	"colorbook-backend/internal/taxonomy"
)

// Mode selects the acceptance policy.
type Mode string

const (
	// ModeStrict is the production policy: zero tolerance for major issues
	// and analyzer outages fail the attempt.
	ModeStrict Mode = "strict"
	// ModeLenient is the preview policy: a small number of major issues is
	// tolerated and analyzer outages degrade to an advisory pass.
	ModeLenient Mode = "lenient"
)

// Severity penalties for the fallback score when no dimension scores arrive.
const (
	penaltyCritical = 25.0
	penaltyMajor    = 10.0
	penaltyMinor    = 3.0
)

// Weights are the per-dimension contributions to the overall score. They must
// sum to 1.0.
type Weights struct {
	LineQuality          float64
	RegionIntegrity      float64
	Composition          float64
	AudienceAlignment    float64
	StyleCompliance      float64
	ComplexityCompliance float64
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{
		LineQuality:          0.25,
		RegionIntegrity:      0.25,
		StyleCompliance:      0.20,
		ComplexityCompliance: 0.10,
		AudienceAlignment:    0.10,
		Composition:          0.10,
	}
}

func (w Weights) sum() float64 {
	return w.LineQuality + w.RegionIntegrity + w.Composition +
		w.AudienceAlignment + w.StyleCompliance + w.ComplexityCompliance
}

// Validate checks the weights sum to 1.0 within floating tolerance.
func (w Weights) Validate() error {
	if math.Abs(w.sum()-1.0) > 1e-6 {
		return fmt.Errorf("dimension weights sum to %.6f, want 1.0", w.sum())
	}
	return nil
}

// Scorer computes scores and the pass/publishable verdict. Thresholds are
// policy, not structure, so they are fields rather than constants.
type Scorer struct {
	Mode             Mode
	Weights          Weights
	MinimumPassScore float64
	PublishThreshold float64
	MajorTolerance   int
}

// NewScorer returns a scorer with default policy for the given mode.
func NewScorer(mode Mode) *Scorer {
	tolerance := 0
	if mode == ModeLenient {
		tolerance = 2
	}
	return &Scorer{
		Mode:             mode,
		Weights:          DefaultWeights(),
		MinimumPassScore: 70,
		PublishThreshold: 85,
		MajorTolerance:   tolerance,
	}
}

// Score builds the full Result for one attempt from dimension scores (may be
// nil) and the normalized issue list.
func (s *Scorer) Score(requestID string, dims *DimensionScores, issues []Issue, recommendations []string) Result {
	critical, major, minor := CountBySeverity(issues)

	var score float64
	if dims != nil {
		score = s.weighted(dims)
	} else {
		score = PenaltyScore(issues)
	}
	score = clampScore(score)

	passed := critical == 0 && major <= s.MajorTolerance && score >= s.MinimumPassScore
	publishable := critical == 0 && major == 0 && score >= s.PublishThreshold

	result := Result{
		RequestID:       requestID,
		Passed:          passed,
		Score:           score,
		IsPublishable:   publishable,
		Issues:          issues,
		CriticalCount:   critical,
		MajorCount:      major,
		MinorCount:      minor,
		Dimensions:      dims,
		Recommendations: recommendations,
	}
	result.Summary = buildSummary(result)
	return result
}

func (s *Scorer) weighted(dims *DimensionScores) float64 {
	w := s.Weights
	if w.sum() == 0 {
		w = DefaultWeights()
	}
	return dims.LineQuality*w.LineQuality +
		dims.RegionIntegrity*w.RegionIntegrity +
		dims.Composition*w.Composition +
		dims.AudienceAlignment*w.AudienceAlignment +
		dims.StyleCompliance*w.StyleCompliance +
		dims.ComplexityCompliance*w.ComplexityCompliance
}

// PenaltyScore is the fallback when the analyzer supplies no dimension
// scores: start from 100 and subtract confidence-weighted severity penalties.
func PenaltyScore(issues []Issue) float64 {
	score := 100.0
	for _, issue := range issues {
		confidence := issue.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 1
		}
		switch issue.Severity {
		case taxonomy.SeverityCritical:
			score -= penaltyCritical * confidence
		case taxonomy.SeverityMajor:
			score -= penaltyMajor * confidence
		default:
			score -= penaltyMinor * confidence
		}
	}
	return clampScore(score)
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
