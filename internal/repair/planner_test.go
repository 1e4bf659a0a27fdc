package repair

import (
	"strings"
	"testing"

	"colorbook-backend/internal/qa"
	"colorbook-backend/internal/taxonomy"
)

func qaIssue(code taxonomy.Code, confidence float64) qa.Issue {
	def := taxonomy.Lookup(code)
	return qa.Issue{
		Code:           def.Code,
		Severity:       def.Severity,
		Category:       def.Category,
		Message:        def.Description,
		Confidence:     confidence,
		AutoRepairable: def.AutoRepairable,
	}
}

func resultWith(issues ...qa.Issue) qa.Result {
	critical, major, minor := qa.CountBySeverity(issues)
	return qa.Result{
		RequestID:     "req-1",
		Issues:        issues,
		CriticalCount: critical,
		MajorCount:    major,
		MinorCount:    minor,
	}
}

func TestColorDetectedPlan(t *testing.T) {
	planner := NewPlanner()
	rctx := NewContext("classic", "simple", "kids", "a sailboat")
	result := resultWith(qaIssue(taxonomy.CodeColorDetected, 0.9))

	plan := planner.BuildPlan(result, rctx, 3)

	if !plan.ShouldRegenerate {
		t.Fatalf("critical repairable issue with budget left should regenerate: %+v", plan)
	}
	if !plan.CanAutoRepair {
		t.Fatalf("COLOR_DETECTED is auto-repairable")
	}
	if len(plan.Actions) != 1 || plan.Actions[0].Priority != 1 {
		t.Fatalf("expected one priority-1 action, got %+v", plan.Actions)
	}
	found := false
	for _, boost := range plan.NegativeBoosts {
		if boost == "color" {
			found = true
		}
	}
	if !found {
		t.Fatalf("negative boosts should include %q, got %v", "color", plan.NegativeBoosts)
	}
}

func TestInappropriateContentHardStop(t *testing.T) {
	planner := NewPlanner()
	rctx := NewContext("classic", "simple", "kids", "a castle")
	result := resultWith(qaIssue(taxonomy.CodeInappropriateContent, 0.95))

	plan := planner.BuildPlan(result, rctx, 5)

	if plan.CanAutoRepair {
		t.Fatalf("policy violations must not be auto-repairable")
	}
	if plan.ShouldRegenerate {
		t.Fatalf("policy violations must never trigger regeneration")
	}
	if len(plan.Unrepairable) != 1 || plan.Unrepairable[0].Code != taxonomy.CodeInappropriateContent {
		t.Fatalf("expected the issue in unrepairableIssues, got %+v", plan.Unrepairable)
	}
	if plan.Actions[0].Type != ActionManualReview {
		t.Fatalf("expected manual review action, got %s", plan.Actions[0].Type)
	}
}

func TestConfidenceDecaysOnRecurrence(t *testing.T) {
	planner := NewPlanner()
	rctx := NewContext("classic", "simple", "kids", "a sailboat")
	result := resultWith(qaIssue(taxonomy.CodeBrokenLines, 0.8))

	first := planner.BuildPlan(result, rctx, 4)
	rctx.RecordIssues(taxonomy.CodeBrokenLines)
	rctx.AttemptNumber = 2

	second := planner.BuildPlan(result, rctx, 4)

	if second.Actions[0].Confidence >= first.Actions[0].Confidence {
		t.Fatalf("confidence must strictly decay: first=%f second=%f",
			first.Actions[0].Confidence, second.Actions[0].Confidence)
	}
}

func TestEscalationReplacesBaseSuggestion(t *testing.T) {
	planner := NewPlanner()
	rctx := NewContext("classic", "simple", "kids", "a sailboat")
	result := resultWith(qaIssue(taxonomy.CodeBrokenLines, 0.8))

	first := planner.BuildPlan(result, rctx, 4)
	if first.Actions[0].Parameters != nil {
		t.Fatalf("first occurrence should be prompt-only, got %+v", first.Actions[0].Parameters)
	}

	rctx.RecordIssues(taxonomy.CodeBrokenLines)
	rctx.AttemptNumber = 2
	second := planner.BuildPlan(result, rctx, 4)

	if second.Actions[0].Parameters == nil {
		t.Fatalf("recurrence should escalate to a parameter change")
	}
	if second.Actions[0].Parameters.StyleID != "bold-outline" {
		t.Fatalf("escalation should switch style, got %+v", second.Actions[0].Parameters)
	}
	if second.Actions[0].Type != ActionParameterChange {
		t.Fatalf("escalated action should be a parameter change, got %s", second.Actions[0].Type)
	}
}

func TestPerCodeAttemptBudgetExhaustion(t *testing.T) {
	planner := NewPlanner()
	rctx := NewContext("classic", "simple", "kids", "a sailboat")
	result := resultWith(qaIssue(taxonomy.CodeOverlappingElements, 0.7))

	// OVERLAPPING_ELEMENTS allows 2 repair attempts.
	rctx.RecordIssues(taxonomy.CodeOverlappingElements, taxonomy.CodeOverlappingElements)
	rctx.AttemptNumber = 3

	plan := planner.BuildPlan(result, rctx, 10)

	if plan.CanAutoRepair {
		t.Fatalf("exhausted per-code budget should mark the issue unrepairable")
	}
	if len(plan.Unrepairable) != 1 {
		t.Fatalf("expected one unrepairable issue, got %+v", plan.Unrepairable)
	}
	if plan.ShouldRegenerate {
		t.Fatalf("no regeneration once the only issue is unrepairable")
	}
}

func TestUnrepairableIsSubsetOfIssues(t *testing.T) {
	planner := NewPlanner()
	rctx := NewContext("classic", "simple", "kids", "a sailboat")
	issues := []qa.Issue{
		qaIssue(taxonomy.CodeInappropriateContent, 0.9),
		qaIssue(taxonomy.CodeBrokenLines, 0.8),
		qaIssue(taxonomy.CodeLineTooThin, 0.5),
	}
	plan := planner.BuildPlan(resultWith(issues...), rctx, 3)

	inIssues := make(map[taxonomy.Code]bool)
	for _, issue := range issues {
		inIssues[issue.Code] = true
	}
	for _, u := range plan.Unrepairable {
		if !inIssues[u.Code] {
			t.Fatalf("unrepairable issue %s not in the attempt's issues", u.Code)
		}
		if u.AutoRepairable && planOccurrences(rctx, u.Code) == 0 {
			t.Fatalf("%s should not be unrepairable", u.Code)
		}
	}
}

func planOccurrences(rctx *Context, code taxonomy.Code) int {
	return rctx.Occurrences(code)
}

func TestActionsSortedBySeverityThenPriority(t *testing.T) {
	planner := NewPlanner()
	rctx := NewContext("classic", "moderate", "kids", "a farm scene")
	plan := planner.BuildPlan(resultWith(
		qaIssue(taxonomy.CodeMissingRestArea, 0.6),
		qaIssue(taxonomy.CodeColorDetected, 0.9),
		qaIssue(taxonomy.CodeTextInImage, 0.8),
	), rctx, 3)

	for i := 1; i < len(plan.Actions); i++ {
		if plan.Actions[i-1].Priority > plan.Actions[i].Priority {
			t.Fatalf("actions not priority-sorted: %+v", plan.Actions)
		}
	}
	if plan.Actions[0].IssueCode != taxonomy.CodeColorDetected {
		t.Fatalf("highest priority action should address COLOR_DETECTED, got %s", plan.Actions[0].IssueCode)
	}
}

func TestHigherPriorityParameterSuggestionWins(t *testing.T) {
	planner := NewPlanner()
	rctx := NewContext("classic", "moderate", "kids", "a farm scene")

	// Both codes escalate on recurrence: COMPLEXITY_TOO_HIGH (priority 2)
	// downgrades complexity, DETAIL_TOO_DENSE (priority 4) also downgrades.
	// COLOR_DETECTED (priority 1) escalates temperature.
	rctx.RecordIssues(taxonomy.CodeColorDetected, taxonomy.CodeComplexityTooHigh)
	rctx.AttemptNumber = 2

	plan := planner.BuildPlan(resultWith(
		qaIssue(taxonomy.CodeComplexityTooHigh, 0.8),
		qaIssue(taxonomy.CodeColorDetected, 0.9),
	), rctx, 5)

	if plan.Parameters.Temperature == nil || *plan.Parameters.Temperature != 0.2 {
		t.Fatalf("temperature escalation lost in merge: %+v", plan.Parameters)
	}
	if plan.Parameters.ComplexityID != "simple" {
		t.Fatalf("complexity downgrade lost in merge: %+v", plan.Parameters)
	}
	if len(plan.Parameters.Reasons) == 0 {
		t.Fatalf("merged suggestion should carry reasons")
	}
}

func TestNegativeBoostsDeduplicated(t *testing.T) {
	planner := NewPlanner()
	rctx := NewContext("classic", "simple", "kids", "a sailboat")
	plan := planner.BuildPlan(resultWith(
		qaIssue(taxonomy.CodeColorDetected, 0.9),
		qaIssue(taxonomy.CodeGradientFill, 0.7),
	), rctx, 3)

	seen := make(map[string]bool)
	for _, boost := range plan.NegativeBoosts {
		key := strings.ToLower(boost)
		if seen[key] {
			t.Fatalf("duplicate negative boost %q", boost)
		}
		seen[key] = true
	}
}

func TestNoRegenerationAtAttemptCeiling(t *testing.T) {
	planner := NewPlanner()
	rctx := NewContext("classic", "simple", "kids", "a sailboat")
	rctx.AttemptNumber = 3

	plan := planner.BuildPlan(resultWith(qaIssue(taxonomy.CodeColorDetected, 0.9)), rctx, 3)
	if plan.ShouldRegenerate {
		t.Fatalf("attempt %d of %d must not regenerate", rctx.AttemptNumber, 3)
	}
}

func TestMinorOnlyIssuesDoNotRegenerate(t *testing.T) {
	planner := NewPlanner()
	rctx := NewContext("classic", "simple", "kids", "a sailboat")

	plan := planner.BuildPlan(resultWith(qaIssue(taxonomy.CodeLineTooThin, 0.5)), rctx, 3)
	if plan.ShouldRegenerate {
		t.Fatalf("minor-only results must not consume a regeneration")
	}
	if !plan.CanAutoRepair {
		t.Fatalf("minor issues are still repairable")
	}
}

func TestUnknownCodeGetsFallbackStrategy(t *testing.T) {
	planner := NewPlanner()
	rctx := NewContext("classic", "simple", "kids", "a sailboat")
	issue := qa.Issue{
		Code:           taxonomy.Code("FUTURE_CODE"),
		Severity:       taxonomy.SeverityMajor,
		Category:       taxonomy.CategoryStyle,
		Message:        "new rubric finding",
		Confidence:     0.6,
		AutoRepairable: true,
	}
	plan := planner.BuildPlan(resultWith(issue), rctx, 3)
	if len(plan.Actions) != 1 {
		t.Fatalf("expected one action for unknown code, got %+v", plan.Actions)
	}
	if plan.Actions[0].PromptOverride == "" {
		t.Fatalf("fallback strategy should produce a prompt override")
	}
	if !plan.ShouldRegenerate {
		t.Fatalf("unknown major issue should still regenerate")
	}
}
