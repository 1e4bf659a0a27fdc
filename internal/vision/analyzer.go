package vision

import (
	"context"
	"time"

	"colorbook-backend/internal/qa"
	"colorbook-backend/internal/shared/telemetry"
	"colorbook-backend/internal/taxonomy"
)

const defaultAnalyzeTimeout = 90 * time.Second

// Analyzer runs one analysis call and normalizes the response into a scored
// QA result. Transport and parse failures degrade to a fail-safe result;
// cancellation always propagates.
type Analyzer struct {
	Client  Client
	Scorer  *qa.Scorer
	Timeout time.Duration
}

// NewAnalyzer constructs an analyzer with the default timeout.
func NewAnalyzer(client Client, scorer *qa.Scorer) *Analyzer {
	return &Analyzer{Client: client, Scorer: scorer, Timeout: defaultAnalyzeTimeout}
}

// Analyze produces the QA result for one generated image. The only error it
// returns is the caller's own cancellation.
func (a *Analyzer) Analyze(ctx context.Context, input AnalyzeInput) (qa.Result, error) {
	if err := ctx.Err(); err != nil {
		return qa.Result{}, err
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = defaultAnalyzeTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := a.Client.AnalyzeImage(callCtx, input)
	if ctxErr := ctx.Err(); ctxErr != nil {
		// The caller cancelled; never coerce that into a QA verdict.
		return qa.Result{}, ctxErr
	}
	if err != nil {
		telemetry.Error("vision.analyze.failed", map[string]any{
			"request_id": input.RequestID,
			"error":      err.Error(),
		})
		return a.failSafe(input.RequestID), nil
	}

	return a.normalize(input.RequestID, raw), nil
}

// normalize converts raw analyzer output into a scored result, with every
// issue resolved against the taxonomy. The registry is authoritative for
// severity: unknown codes carry the default definition's severity no matter
// what the model reported.
func (a *Analyzer) normalize(requestID string, raw RawResult) qa.Result {
	issues := make([]qa.Issue, 0, len(raw.Issues))
	for _, ri := range raw.Issues {
		def := taxonomy.Lookup(taxonomy.Code(ri.Code))
		confidence := ri.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 1
		}
		message := ri.Description
		if message == "" {
			message = def.Description
		}
		issues = append(issues, qa.Issue{
			Code:           def.Code,
			Severity:       def.Severity,
			Category:       def.Category,
			Message:        message,
			Location:       ri.Location,
			Confidence:     confidence,
			AutoRepairable: def.AutoRepairable,
		})
	}

	var dims *qa.DimensionScores
	if raw.DimensionScores != nil {
		dims = &qa.DimensionScores{
			LineQuality:          raw.DimensionScores.LineQuality,
			RegionIntegrity:      raw.DimensionScores.RegionIntegrity,
			Composition:          raw.DimensionScores.Composition,
			AudienceAlignment:    raw.DimensionScores.AudienceAlignment,
			StyleCompliance:      raw.DimensionScores.StyleCompliance,
			ComplexityCompliance: raw.DimensionScores.ComplexityCompliance,
		}
	}

	return a.Scorer.Score(requestID, dims, issues, raw.Recommendations)
}

// failSafe builds the degraded result used when the analysis service is
// unreachable. Strict mode fails the attempt with a synthetic critical issue;
// lenient mode passes with a minor advisory, since blocking a preview on infra
// flakiness is worse than showing an unvalidated one.
func (a *Analyzer) failSafe(requestID string) qa.Result {
	if a.Scorer.Mode == qa.ModeLenient {
		def := taxonomy.Lookup(taxonomy.CodeAnalysisIncomplete)
		issue := qa.Issue{
			Code:           def.Code,
			Severity:       def.Severity,
			Category:       def.Category,
			Message:        def.Description,
			Confidence:     1,
			AutoRepairable: def.AutoRepairable,
		}
		return qa.Result{
			RequestID:     requestID,
			Passed:        true,
			Score:         qa.PenaltyScore([]qa.Issue{issue}),
			IsPublishable: false,
			Issues:        []qa.Issue{issue},
			MinorCount:    1,
			Summary:       "analysis unavailable; passed without validation",
		}
	}

	def := taxonomy.Lookup(taxonomy.CodeServiceError)
	issue := qa.Issue{
		Code:           def.Code,
		Severity:       def.Severity,
		Category:       def.Category,
		Message:        def.Description,
		Confidence:     1,
		AutoRepairable: def.AutoRepairable,
	}
	return qa.Result{
		RequestID:     requestID,
		Passed:        false,
		Score:         0,
		IsPublishable: false,
		Issues:        []qa.Issue{issue},
		CriticalCount: 1,
		Summary:       "analysis service failed; attempt treated as not validated",
	}
}
