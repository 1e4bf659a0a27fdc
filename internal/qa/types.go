// Package qa holds the QA result model and the scoring policy applied to
// analyzed coloring pages.
package qa

import "colorbook-backend/internal/taxonomy"

// Issue is one detected problem on a generated page. Issues are created by the
// analyzer adapter and never mutated afterwards.
type Issue struct {
	Code           taxonomy.Code     `json:"code"`
	Severity       taxonomy.Severity `json:"severity"`
	Category       taxonomy.Category `json:"category"`
	Message        string            `json:"message"`
	Location       string            `json:"location,omitempty"`
	Confidence     float64           `json:"confidence"`
	AutoRepairable bool              `json:"autoRepairable"`
}

// DimensionScores are the per-dimension sub-scores (0-100) reported by the
// vision analyzer.
type DimensionScores struct {
	LineQuality          float64 `json:"lineQuality"`
	RegionIntegrity      float64 `json:"regionIntegrity"`
	Composition          float64 `json:"composition"`
	AudienceAlignment    float64 `json:"audienceAlignment"`
	StyleCompliance      float64 `json:"styleCompliance"`
	ComplexityCompliance float64 `json:"complexityCompliance"`
}

// Result is the scored verdict for one attempt. Immutable once produced.
type Result struct {
	RequestID       string           `json:"requestId"`
	Passed          bool             `json:"passed"`
	Score           float64          `json:"score"`
	IsPublishable   bool             `json:"isPublishable"`
	Issues          []Issue          `json:"issues"`
	CriticalCount   int              `json:"criticalCount"`
	MajorCount      int              `json:"majorCount"`
	MinorCount      int              `json:"minorCount"`
	Dimensions      *DimensionScores `json:"dimensions,omitempty"`
	Summary         string           `json:"summary"`
	Recommendations []string         `json:"recommendations,omitempty"`
}

// CountBySeverity tallies issues into critical/major/minor buckets.
func CountBySeverity(issues []Issue) (critical, major, minor int) {
	for _, issue := range issues {
		switch issue.Severity {
		case taxonomy.SeverityCritical:
			critical++
		case taxonomy.SeverityMajor:
			major++
		default:
			minor++
		}
	}
	return critical, major, minor
}
