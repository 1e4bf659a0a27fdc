package qa

import (
	"strings"
	"testing"

	"colorbook-backend/internal/taxonomy"
)

func issueFor(code taxonomy.Code, confidence float64) Issue {
	def := taxonomy.Lookup(code)
	return Issue{
		Code:           def.Code,
		Severity:       def.Severity,
		Category:       def.Category,
		Message:        def.Description,
		Confidence:     confidence,
		AutoRepairable: def.AutoRepairable,
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
}

func TestScoreZeroIssuesIsPerfect(t *testing.T) {
	scorer := NewScorer(ModeStrict)
	result := scorer.Score("req-1", nil, nil, nil)
	if !result.Passed {
		t.Fatalf("zero issues should pass, got %+v", result)
	}
	if result.Score != 100 {
		t.Fatalf("expected score 100, got %f", result.Score)
	}
	if !result.IsPublishable {
		t.Fatalf("perfect result should be publishable")
	}
}

func TestSeverityCountsMatchIssueLength(t *testing.T) {
	scorer := NewScorer(ModeStrict)
	issues := []Issue{
		issueFor(taxonomy.CodeColorDetected, 0.9),
		issueFor(taxonomy.CodeBrokenLines, 0.8),
		issueFor(taxonomy.CodeLineTooThin, 0.5),
		issueFor(taxonomy.CodeRegionTooSmall, 0.4),
	}
	result := scorer.Score("req-1", nil, issues, nil)
	if got := result.CriticalCount + result.MajorCount + result.MinorCount; got != len(issues) {
		t.Fatalf("severity counts %d != issues %d", got, len(issues))
	}
	if result.CriticalCount != 1 || result.MajorCount != 1 || result.MinorCount != 2 {
		t.Fatalf("unexpected counts: %d/%d/%d", result.CriticalCount, result.MajorCount, result.MinorCount)
	}
}

func TestCriticalIssueBlocksPassRegardlessOfScore(t *testing.T) {
	scorer := NewScorer(ModeStrict)
	dims := &DimensionScores{
		LineQuality: 95, RegionIntegrity: 95, Composition: 95,
		AudienceAlignment: 95, StyleCompliance: 95, ComplexityCompliance: 95,
	}
	issues := []Issue{issueFor(taxonomy.CodeColorDetected, 0.9)}
	result := scorer.Score("req-1", dims, issues, nil)
	if result.Passed {
		t.Fatalf("critical issue must block pass, got %+v", result)
	}
	if result.IsPublishable {
		t.Fatalf("critical issue must block publishability")
	}
}

func TestMajorToleranceByMode(t *testing.T) {
	dims := &DimensionScores{
		LineQuality: 90, RegionIntegrity: 90, Composition: 90,
		AudienceAlignment: 90, StyleCompliance: 90, ComplexityCompliance: 90,
	}
	issues := []Issue{
		issueFor(taxonomy.CodeBrokenLines, 0.8),
		issueFor(taxonomy.CodeTextInImage, 0.7),
	}

	strict := NewScorer(ModeStrict).Score("req-1", dims, issues, nil)
	if strict.Passed {
		t.Fatalf("strict mode should not tolerate major issues")
	}

	lenient := NewScorer(ModeLenient).Score("req-1", dims, issues, nil)
	if !lenient.Passed {
		t.Fatalf("lenient mode should tolerate two major issues, got %+v", lenient)
	}
	if lenient.IsPublishable {
		t.Fatalf("major issues must block publishability in any mode")
	}
}

func TestPassedWithoutPublishable(t *testing.T) {
	scorer := NewScorer(ModeStrict)
	dims := &DimensionScores{
		LineQuality: 75, RegionIntegrity: 75, Composition: 75,
		AudienceAlignment: 75, StyleCompliance: 75, ComplexityCompliance: 75,
	}
	result := scorer.Score("req-1", dims, nil, nil)
	if !result.Passed {
		t.Fatalf("score 75 with no issues should pass")
	}
	if result.IsPublishable {
		t.Fatalf("score 75 is below the publish threshold")
	}
}

func TestPenaltyFallbackScore(t *testing.T) {
	issues := []Issue{
		issueFor(taxonomy.CodeColorDetected, 0.9), // 25 * 0.9 = 22.5
		issueFor(taxonomy.CodeBrokenLines, 0.5),   // 10 * 0.5 = 5
		issueFor(taxonomy.CodeLineTooThin, 1.0),   // 3
	}
	got := PenaltyScore(issues)
	want := 100.0 - 22.5 - 5.0 - 3.0
	if got != want {
		t.Fatalf("penalty score = %f, want %f", got, want)
	}
}

func TestPenaltyScoreClampsToZero(t *testing.T) {
	issues := make([]Issue, 0, 6)
	for i := 0; i < 6; i++ {
		issues = append(issues, issueFor(taxonomy.CodeColorDetected, 1.0))
	}
	if got := PenaltyScore(issues); got != 0 {
		t.Fatalf("expected clamp to 0, got %f", got)
	}
}

func TestPenaltyScoreNormalizesBadConfidence(t *testing.T) {
	issues := []Issue{issueFor(taxonomy.CodeBrokenLines, 0)}
	if got := PenaltyScore(issues); got != 90 {
		t.Fatalf("zero confidence should count as full penalty, got %f", got)
	}
}

func TestWeightedScoreUsesConfiguredWeights(t *testing.T) {
	scorer := NewScorer(ModeStrict)
	dims := &DimensionScores{
		LineQuality:          80,
		RegionIntegrity:      60,
		Composition:          100,
		AudienceAlignment:    100,
		StyleCompliance:      50,
		ComplexityCompliance: 100,
	}
	result := scorer.Score("req-1", dims, nil, nil)
	want := 80*0.25 + 60*0.25 + 100*0.10 + 100*0.10 + 50*0.20 + 100*0.10
	if result.Score != want {
		t.Fatalf("weighted score = %f, want %f", result.Score, want)
	}
}

func TestSummaryMentionsWorstIssue(t *testing.T) {
	scorer := NewScorer(ModeStrict)
	issues := []Issue{
		issueFor(taxonomy.CodeLineTooThin, 0.5),
		issueFor(taxonomy.CodeColorDetected, 0.9),
	}
	result := scorer.Score("req-1", nil, issues, nil)
	if result.Summary == "" {
		t.Fatalf("expected non-empty summary")
	}
	worst := taxonomy.Lookup(taxonomy.CodeColorDetected).Description
	if !strings.Contains(result.Summary, worst) {
		t.Fatalf("summary %q should mention %q", result.Summary, worst)
	}
}
