// Package pipeline drives the generate, validate, repair loop for one
// coloring page until it passes QA or the attempt budget runs out.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"colorbook-backend/internal/imagegen"
	"colorbook-backend/internal/prompts"
	"colorbook-backend/internal/qa"
	"colorbook-backend/internal/repair"
	"colorbook-backend/internal/shared/telemetry"
	"colorbook-backend/internal/taxonomy"
	"colorbook-backend/internal/vision"
)

// Pipeline owns the collaborators for one or more runs. Each Run is an
// independent, strictly sequential, cancellable unit of work; no state is
// shared between concurrent runs.
type Pipeline struct {
	Generator imagegen.Client
	Vision    vision.Client
	Planner   *repair.Planner
	Config    Config
	Progress  ProgressFunc

	now func() time.Time
}

// New constructs a pipeline with the default planner and config.
func New(generator imagegen.Client, visionClient vision.Client) *Pipeline {
	return &Pipeline{
		Generator: generator,
		Vision:    visionClient,
		Planner:   repair.NewPlanner(),
		Config:    DefaultConfig(),
		now:       time.Now,
	}
}

// Run executes the attempt loop for one request. The returned error is
// non-nil only for cancellation and boundary validation; every other failure
// mode is expressed in the Result.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	cfg := p.Config.normalized()
	if err := req.Params.Validate(); err != nil {
		return Result{}, fmt.Errorf("generation parameters: %w", err)
	}
	planner := p.Planner
	if planner == nil {
		planner = repair.NewPlanner()
	}
	clock := p.now
	if clock == nil {
		clock = time.Now
	}
	analyzer := vision.NewAnalyzer(p.Vision, cfg.scorer())

	p.emit(Progress{Phase: PhaseInitializing, Percent: 0, MaxAttempts: cfg.MaxAttempts})

	rctx := repair.NewContext(req.StyleID, req.ComplexityID, req.AudienceID, req.Subject)
	params := ParametersUsed{
		StyleID:      req.StyleID,
		ComplexityID: req.ComplexityID,
		AudienceID:   req.AudienceID,
		Temperature:  req.Temperature,
	}

	var (
		attempts           []AttemptResult
		parameterChanges   []string
		repairInstructions []string
		negativeBoosts     []string
	)

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		rctx.AttemptNumber = attempt
		p.emit(p.progress(PhaseGenerating, attempt, cfg.MaxAttempts))

		built := prompts.Build(prompts.BuildInput{
			Subject:            req.Subject,
			StyleID:            params.StyleID,
			ComplexityID:       params.ComplexityID,
			AudienceID:         params.AudienceID,
			RepairInstructions: repairInstructions,
			NegativeBoosts:     negativeBoosts,
		})

		started := clock()
		genResult, err := p.Generator.Generate(ctx, imagegen.Request{
			PositivePrompt:    built.Positive,
			NegativePrompt:    built.Negative,
			StyleID:           params.StyleID,
			ComplexityID:      params.ComplexityID,
			AudienceID:        params.AudienceID,
			AspectRatio:       req.AspectRatio,
			ResolutionTier:    req.ResolutionTier,
			ReferenceImageURL: req.ReferenceImageURL,
			Temperature:       params.Temperature,
			Params:            req.Params,
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		if err != nil {
			genResult = imagegen.Result{Success: false, Error: err.Error(), PromptUsed: built.Positive}
		}

		record := AttemptResult{
			AttemptNumber: attempt,
			PromptUsed:    genResult.PromptUsed,
			Parameters:    params,
			DurationMs:    durationMs(started, clock()),
		}

		if !genResult.Success {
			// A failed generation is retried within the budget without
			// consuming a repair cycle.
			record.GenError = genResult.Error
			attempts = append(attempts, record)
			telemetry.Error("pipeline.generate.failed", map[string]any{
				"request_id": req.RequestID,
				"attempt":    attempt,
				"error":      genResult.Error,
			})
			continue
		}
		record.ImageURL = genResult.ImageURL

		if !cfg.EnableQA {
			attempts = append(attempts, record)
			p.emit(Progress{Phase: PhaseComplete, Percent: 100, Attempt: attempt, MaxAttempts: cfg.MaxAttempts})
			return Result{
				Success:          true,
				ImageURL:         genResult.ImageURL,
				TotalAttempts:    attempt,
				Attempts:         attempts,
				ParameterChanges: parameterChanges,
				Summary:          "accepted without validation (QA disabled)",
			}, nil
		}

		p.emit(p.progress(PhaseValidating, attempt, cfg.MaxAttempts))
		qaResult, err := analyzer.Analyze(ctx, vision.AnalyzeInput{
			ImageURL:       genResult.ImageURL,
			RequestID:      req.RequestID,
			StyleID:        params.StyleID,
			ComplexityID:   params.ComplexityID,
			AudienceID:     params.AudienceID,
			OriginalPrompt: built.Positive,
		})
		if err != nil {
			// Cancellation only; never coerced into a verdict.
			return Result{}, err
		}
		record.QA = &qaResult
		record.DurationMs = durationMs(started, clock())

		if qaResult.Passed {
			attempts = append(attempts, record)
			p.emit(Progress{Phase: PhaseComplete, Percent: 100, Attempt: attempt, MaxAttempts: cfg.MaxAttempts})
			return Result{
				Success:          true,
				ImageURL:         genResult.ImageURL,
				QualityScore:     qaResult.Score,
				IsPublishable:    qaResult.IsPublishable,
				TotalAttempts:    attempt,
				FinalQA:          &qaResult,
				Attempts:         attempts,
				ParameterChanges: parameterChanges,
				Summary:          qaResult.Summary,
			}, nil
		}

		plan := planner.BuildPlan(qaResult, rctx, cfg.MaxAttempts)
		record.Plan = &plan
		attempts = append(attempts, record)
		rctx.RecordIssues(issueCodes(qaResult.Issues)...)

		telemetry.Info("pipeline.attempt.failed_qa", map[string]any{
			"request_id":        req.RequestID,
			"attempt":           attempt,
			"score":             qaResult.Score,
			"critical":          qaResult.CriticalCount,
			"major":             qaResult.MajorCount,
			"minor":             qaResult.MinorCount,
			"can_auto_repair":   plan.CanAutoRepair,
			"should_regen":      plan.ShouldRegenerate,
			"repair_confidence": plan.OverallConfidence,
		})

		if !cfg.EnableAutoRetry || !plan.ShouldRegenerate {
			break
		}

		p.emit(p.progress(PhaseRepairing, attempt, cfg.MaxAttempts))
		repairInstructions = plan.PromptOverrides
		negativeBoosts = appendUnique(negativeBoosts, plan.NegativeBoosts)

		if cfg.AllowParameterEscalation && !plan.Parameters.Empty() {
			params, parameterChanges = applySuggestion(params, plan.Parameters, parameterChanges)
			rctx.StyleID = params.StyleID
			rctx.ComplexityID = params.ComplexityID
			rctx.AudienceID = params.AudienceID
		}
	}

	result := p.terminalFailure(req, attempts, parameterChanges, cfg)
	p.emit(Progress{Phase: PhaseFailed, Percent: 100, Attempt: len(attempts), MaxAttempts: cfg.MaxAttempts})
	return result, nil
}

// terminalFailure assembles the not-passed outcome: the best-scoring attempt
// with an image, full history, and a diagnosis summary.
func (p *Pipeline) terminalFailure(req Request, attempts []AttemptResult, parameterChanges []string, cfg Config) Result {
	best := bestAttempt(attempts)
	result := Result{
		Success:          false,
		TotalAttempts:    len(attempts),
		Attempts:         attempts,
		ParameterChanges: parameterChanges,
	}
	if best != nil {
		result.ImageURL = best.ImageURL
		result.FinalQA = best.QA
		if best.QA != nil {
			result.QualityScore = best.QA.Score
			result.IsPublishable = best.QA.IsPublishable
		}
	}

	switch {
	case best == nil || best.ImageURL == "":
		result.Summary = fmt.Sprintf("no image produced in %d attempts", len(attempts))
	case hasUnrepairable(attempts):
		result.Summary = fmt.Sprintf("stopped after %d attempts: unrepairable issues require manual review", len(attempts))
	default:
		result.Summary = fmt.Sprintf("attempt budget of %d exhausted; best score %.0f", cfg.MaxAttempts, result.QualityScore)
	}

	telemetry.Info("pipeline.terminal", map[string]any{
		"request_id": req.RequestID,
		"success":    false,
		"attempts":   len(attempts),
		"summary":    result.Summary,
	})
	return result
}

func (p *Pipeline) progress(phase Phase, attempt, maxAttempts int) Progress {
	window := 100.0 / float64(maxAttempts)
	var share float64
	switch phase {
	case PhaseGenerating:
		share = 0.1
	case PhaseValidating:
		share = 0.6
	case PhaseRepairing:
		share = 0.85
	}
	percent := int(float64(attempt-1)*window + share*window)
	if percent > 99 {
		percent = 99
	}
	return Progress{Phase: phase, Percent: percent, Attempt: attempt, MaxAttempts: maxAttempts}
}

func (p *Pipeline) emit(progress Progress) {
	if p.Progress != nil {
		p.Progress(progress)
	}
}

func bestAttempt(attempts []AttemptResult) *AttemptResult {
	var best *AttemptResult
	for i := range attempts {
		attempt := &attempts[i]
		if attempt.ImageURL == "" {
			continue
		}
		if best == nil {
			best = attempt
			continue
		}
		if attempt.QA != nil && (best.QA == nil || attempt.QA.Score > best.QA.Score) {
			best = attempt
		}
	}
	return best
}

func hasUnrepairable(attempts []AttemptResult) bool {
	for _, attempt := range attempts {
		if attempt.Plan != nil && len(attempt.Plan.Unrepairable) > 0 {
			return true
		}
	}
	return false
}

func issueCodes(issues []qa.Issue) []taxonomy.Code {
	codes := make([]taxonomy.Code, 0, len(issues))
	for _, issue := range issues {
		codes = append(codes, issue.Code)
	}
	return codes
}

func appendUnique(existing []string, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, term := range existing {
		seen[boostKey(term)] = true
	}
	for _, term := range extra {
		key := boostKey(term)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		existing = append(existing, term)
	}
	return existing
}

// boostKey matches the repair planner's dedup key so boosts carried across
// attempts do not reappear under different casing.
func boostKey(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func applySuggestion(params ParametersUsed, suggestion repair.ParameterSuggestion, changes []string) (ParametersUsed, []string) {
	if suggestion.StyleID != "" && suggestion.StyleID != params.StyleID {
		changes = append(changes, fmt.Sprintf("style: %s -> %s", params.StyleID, suggestion.StyleID))
		params.StyleID = suggestion.StyleID
	}
	if suggestion.ComplexityID != "" && suggestion.ComplexityID != params.ComplexityID {
		changes = append(changes, fmt.Sprintf("complexity: %s -> %s", params.ComplexityID, suggestion.ComplexityID))
		params.ComplexityID = suggestion.ComplexityID
	}
	if suggestion.AudienceID != "" && suggestion.AudienceID != params.AudienceID {
		changes = append(changes, fmt.Sprintf("audience: %s -> %s", params.AudienceID, suggestion.AudienceID))
		params.AudienceID = suggestion.AudienceID
	}
	if suggestion.Temperature != nil && *suggestion.Temperature != params.Temperature {
		changes = append(changes, fmt.Sprintf("temperature: %.2f -> %.2f", params.Temperature, *suggestion.Temperature))
		params.Temperature = *suggestion.Temperature
	}
	return params, changes
}

func durationMs(started, finished time.Time) float64 {
	return float64(finished.Sub(started).Microseconds()) / 1000.0
}
