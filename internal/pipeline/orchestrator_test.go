package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"colorbook-backend/internal/imagegen"
	"colorbook-backend/internal/vision"
)

type scriptedGenerator struct {
	results  []imagegen.Result
	requests []imagegen.Request
	calls    int
}

func (g *scriptedGenerator) Generate(ctx context.Context, req imagegen.Request) (imagegen.Result, error) {
	if err := ctx.Err(); err != nil {
		return imagegen.Result{}, err
	}
	g.requests = append(g.requests, req)
	idx := g.calls
	if idx >= len(g.results) {
		idx = len(g.results) - 1
	}
	g.calls++
	result := g.results[idx]
	if result.PromptUsed == "" {
		result.PromptUsed = req.PositivePrompt
	}
	return result, nil
}

type scriptedVision struct {
	results []vision.RawResult
	errs    []error
	cancel  context.CancelFunc
	calls   int
}

func (v *scriptedVision) AnalyzeImage(ctx context.Context, input vision.AnalyzeInput) (vision.RawResult, error) {
	idx := v.calls
	v.calls++
	if v.cancel != nil {
		// Simulate the caller cancelling while the analysis call is in
		// flight.
		v.cancel()
		return vision.RawResult{}, context.Canceled
	}
	if idx < len(v.errs) && v.errs[idx] != nil {
		return vision.RawResult{}, v.errs[idx]
	}
	if idx >= len(v.results) {
		idx = len(v.results) - 1
	}
	return v.results[idx], nil
}

func okGeneration() imagegen.Result {
	return imagegen.Result{Success: true, ImageURL: "https://img.example/p1.png"}
}

func cleanAnalysis() vision.RawResult {
	return vision.RawResult{
		DimensionScores: &vision.RawDimensionScores{
			LineQuality: 95, RegionIntegrity: 95, Composition: 95,
			AudienceAlignment: 95, StyleCompliance: 95, ComplexityCompliance: 95,
		},
	}
}

func colorIssueAnalysis() vision.RawResult {
	return vision.RawResult{
		Issues: []vision.RawIssue{
			{Code: "COLOR_DETECTED", Severity: "critical", Description: "colored fills present", Confidence: 0.9},
		},
	}
}

func testRequest() Request {
	return Request{
		RequestID:    "req-1",
		Subject:      "a friendly dragon",
		StyleID:      "classic",
		ComplexityID: "very-simple",
		AudienceID:   "kids",
		AspectRatio:  "portrait",
		Temperature:  0.7,
		Params: imagegen.ProviderParams{
			Provider: imagegen.ProviderOpenAI,
			OpenAI:   &imagegen.OpenAIParams{Model: "gpt-image-1"},
		},
	}
}

func newTestPipeline(gen *scriptedGenerator, vis *scriptedVision) *Pipeline {
	p := New(gen, vis)
	return p
}

func TestCleanFirstAttemptPasses(t *testing.T) {
	gen := &scriptedGenerator{results: []imagegen.Result{okGeneration()}}
	vis := &scriptedVision{results: []vision.RawResult{cleanAnalysis()}}
	p := newTestPipeline(gen, vis)

	result, err := p.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.QualityScore < 94.9 || result.QualityScore > 95.1 {
		t.Fatalf("expected score 95, got %f", result.QualityScore)
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("expected one attempt, got %d", len(result.Attempts))
	}
	if !result.IsPublishable {
		t.Fatalf("clean result should be publishable")
	}
}

func TestColorIssueTriggersRepairRegeneration(t *testing.T) {
	gen := &scriptedGenerator{results: []imagegen.Result{okGeneration()}}
	vis := &scriptedVision{results: []vision.RawResult{colorIssueAnalysis(), cleanAnalysis()}}
	p := newTestPipeline(gen, vis)
	p.Config.MaxAttempts = 3

	result, err := p.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Success {
		t.Fatalf("second attempt should succeed, got %+v", result)
	}
	if result.TotalAttempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", result.TotalAttempts)
	}

	firstPlan := result.Attempts[0].Plan
	if firstPlan == nil || !firstPlan.ShouldRegenerate {
		t.Fatalf("first attempt should plan a regeneration: %+v", firstPlan)
	}
	if len(firstPlan.Actions) != 1 || firstPlan.Actions[0].Priority != 1 {
		t.Fatalf("expected one priority-1 action, got %+v", firstPlan.Actions)
	}

	// The second generation request must carry the boosted exclusions and
	// the corrective instruction block.
	second := gen.requests[1]
	if !strings.Contains(second.NegativePrompt, "color") {
		t.Fatalf("merged negative prompt missing boost terms: %q", second.NegativePrompt)
	}
	if !strings.Contains(second.PositivePrompt, "Corrections from prior attempt:") {
		t.Fatalf("second prompt missing corrections block: %q", second.PositivePrompt)
	}
}

func TestTerminatesAtAttemptBudget(t *testing.T) {
	gen := &scriptedGenerator{results: []imagegen.Result{okGeneration()}}
	vis := &scriptedVision{results: []vision.RawResult{colorIssueAnalysis()}}
	p := newTestPipeline(gen, vis)
	p.Config.MaxAttempts = 3

	result, err := p.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Success {
		t.Fatalf("persistent critical issue should fail")
	}
	if len(result.Attempts) != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", len(result.Attempts))
	}
	if result.ImageURL == "" {
		t.Fatalf("failure should still return the best available image")
	}
	if result.FinalQA == nil || result.FinalQA.Passed {
		t.Fatalf("terminal result must carry a non-passing QA result")
	}
}

func TestUnrepairableIssueStopsImmediately(t *testing.T) {
	gen := &scriptedGenerator{results: []imagegen.Result{okGeneration()}}
	vis := &scriptedVision{results: []vision.RawResult{{
		Issues: []vision.RawIssue{
			{Code: "INAPPROPRIATE_CONTENT", Severity: "critical", Description: "unsuitable content", Confidence: 0.95},
		},
	}}}
	p := newTestPipeline(gen, vis)
	p.Config.MaxAttempts = 5

	result, err := p.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Success {
		t.Fatalf("policy violation must fail")
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("policy violation must not consume further attempts, got %d", len(result.Attempts))
	}
	plan := result.Attempts[0].Plan
	if plan == nil || plan.CanAutoRepair || plan.ShouldRegenerate {
		t.Fatalf("expected hard-stop plan, got %+v", plan)
	}
	if !strings.Contains(result.Summary, "manual review") {
		t.Fatalf("summary should call out manual review, got %q", result.Summary)
	}
}

func TestGenerationFailureRetriedWithoutRepairCycle(t *testing.T) {
	gen := &scriptedGenerator{results: []imagegen.Result{
		{Success: false, Error: "rate limited"},
		okGeneration(),
	}}
	vis := &scriptedVision{results: []vision.RawResult{cleanAnalysis()}}
	p := newTestPipeline(gen, vis)
	p.Config.MaxAttempts = 3

	result, err := p.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected recovery on second attempt, got %+v", result)
	}
	if len(result.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(result.Attempts))
	}
	if result.Attempts[0].Plan != nil {
		t.Fatalf("generation failure must not build a repair plan")
	}
	if result.Attempts[0].GenError == "" {
		t.Fatalf("failed attempt should record the generation error")
	}
}

func TestCancellationPropagatesAsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &scriptedGenerator{results: []imagegen.Result{okGeneration()}}
	vis := &scriptedVision{cancel: cancel}
	p := newTestPipeline(gen, vis)

	_, err := p.Run(ctx, testRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation must surface as context.Canceled, got %v", err)
	}
}

func TestQaDisabledAcceptsFirstImage(t *testing.T) {
	gen := &scriptedGenerator{results: []imagegen.Result{okGeneration()}}
	vis := &scriptedVision{}
	p := newTestPipeline(gen, vis)
	p.Config.EnableQA = false

	result, err := p.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Success {
		t.Fatalf("QA disabled should accept the first image")
	}
	if vis.calls != 0 {
		t.Fatalf("analyzer must not be called with QA disabled")
	}
	if result.IsPublishable {
		t.Fatalf("unvalidated image must not be publishable")
	}
}

func TestAutoRetryDisabledStopsAfterFirstFailure(t *testing.T) {
	gen := &scriptedGenerator{results: []imagegen.Result{okGeneration()}}
	vis := &scriptedVision{results: []vision.RawResult{colorIssueAnalysis()}}
	p := newTestPipeline(gen, vis)
	p.Config.EnableAutoRetry = false
	p.Config.MaxAttempts = 3

	result, err := p.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Success || len(result.Attempts) != 1 {
		t.Fatalf("auto-retry disabled should stop after one failed attempt, got %+v", result)
	}
}

func TestParameterEscalationAppliedOnRecurrence(t *testing.T) {
	gen := &scriptedGenerator{results: []imagegen.Result{okGeneration()}}
	// BROKEN_LINES recurs; the second plan escalates to the bold-outline
	// style, which the third generation request must use.
	brokenLines := vision.RawResult{Issues: []vision.RawIssue{
		{Code: "BROKEN_LINES", Severity: "major", Description: "outline gaps", Confidence: 0.8},
	}}
	vis := &scriptedVision{results: []vision.RawResult{brokenLines, brokenLines, cleanAnalysis()}}
	p := newTestPipeline(gen, vis)
	p.Config.MaxAttempts = 4

	result, err := p.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Success {
		t.Fatalf("third attempt should pass, got %+v", result)
	}
	if len(gen.requests) != 3 {
		t.Fatalf("expected 3 generation calls, got %d", len(gen.requests))
	}
	if gen.requests[2].StyleID != "bold-outline" {
		t.Fatalf("escalation should switch style on the third attempt, got %q", gen.requests[2].StyleID)
	}
	if len(result.ParameterChanges) == 0 {
		t.Fatalf("parameter changes should be recorded")
	}

	firstConfidence := result.Attempts[0].Plan.Actions[0].Confidence
	secondConfidence := result.Attempts[1].Plan.Actions[0].Confidence
	if secondConfidence >= firstConfidence {
		t.Fatalf("repair confidence must decay: %f then %f", firstConfidence, secondConfidence)
	}
}

func TestEscalationDisabledKeepsParameters(t *testing.T) {
	gen := &scriptedGenerator{results: []imagegen.Result{okGeneration()}}
	brokenLines := vision.RawResult{Issues: []vision.RawIssue{
		{Code: "BROKEN_LINES", Severity: "major", Description: "outline gaps", Confidence: 0.8},
	}}
	vis := &scriptedVision{results: []vision.RawResult{brokenLines, brokenLines, brokenLines}}
	p := newTestPipeline(gen, vis)
	p.Config.MaxAttempts = 3
	p.Config.AllowParameterEscalation = false

	result, err := p.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, req := range gen.requests {
		if req.StyleID != "classic" {
			t.Fatalf("escalation disabled must keep the requested style, got %q", req.StyleID)
		}
	}
	if len(result.ParameterChanges) != 0 {
		t.Fatalf("no parameter changes expected, got %v", result.ParameterChanges)
	}
}

func TestProgressPhasesEmitted(t *testing.T) {
	gen := &scriptedGenerator{results: []imagegen.Result{okGeneration()}}
	vis := &scriptedVision{results: []vision.RawResult{colorIssueAnalysis(), cleanAnalysis()}}
	p := newTestPipeline(gen, vis)
	p.Config.MaxAttempts = 3

	var phases []Phase
	p.Progress = func(progress Progress) {
		phases = append(phases, progress.Phase)
		if progress.Percent < 0 || progress.Percent > 100 {
			t.Errorf("percent out of range: %d", progress.Percent)
		}
	}

	if _, err := p.Run(context.Background(), testRequest()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []Phase{PhaseInitializing, PhaseGenerating, PhaseValidating, PhaseRepairing, PhaseGenerating, PhaseValidating, PhaseComplete}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phase[%d] = %s, want %s", i, phases[i], want[i])
		}
	}
}

func TestInvalidProviderParamsRejectedAtBoundary(t *testing.T) {
	p := newTestPipeline(&scriptedGenerator{results: []imagegen.Result{okGeneration()}}, &scriptedVision{})
	req := testRequest()
	req.Params = imagegen.ProviderParams{Provider: imagegen.ProviderOpenAI}

	if _, err := p.Run(context.Background(), req); err == nil {
		t.Fatalf("invalid provider params must be rejected before any attempt")
	}
}

func TestStrictAnalyzerOutageFailsRun(t *testing.T) {
	gen := &scriptedGenerator{results: []imagegen.Result{okGeneration()}}
	vis := &scriptedVision{errs: []error{errors.New("bad gateway"), errors.New("bad gateway")}, results: []vision.RawResult{{}, {}}}
	p := newTestPipeline(gen, vis)
	p.Config.MaxAttempts = 2

	result, err := p.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Success {
		t.Fatalf("strict mode outage must not pass")
	}
	// SERVICE_ERROR is not auto-repairable, so the run stops after the
	// first attempt instead of burning budget against a dead service.
	if len(result.Attempts) != 1 {
		t.Fatalf("expected a hard stop on the first outage, got %d attempts", len(result.Attempts))
	}
}

func TestAppendUniqueIgnoresCaseAndWhitespace(t *testing.T) {
	boosts := appendUnique([]string{"no color fills"}, []string{"No Color Fills", "  no color fills  ", "no shading"})
	want := []string{"no color fills", "no shading"}
	if len(boosts) != len(want) {
		t.Fatalf("boosts = %v, want %v", boosts, want)
	}
	for i := range want {
		if boosts[i] != want[i] {
			t.Fatalf("boosts = %v, want %v", boosts, want)
		}
	}
}
