package repair

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"colorbook-backend/internal/qa"
)

// confidenceDecayPerOccurrence is subtracted from a strategy's base
// confidence for every prior attempt that reported the same code.
const confidenceDecayPerOccurrence = 10.0

// Planner turns one attempt's QA result into a repair plan, consulting the
// cross-attempt context for escalation.
type Planner struct {
	Registry *Registry
}

// NewPlanner constructs a planner over the default strategy registry.
func NewPlanner() *Planner {
	return &Planner{Registry: NewRegistry()}
}

// BuildPlan applies strategies in severity order and aggregates the result.
// The context is read-only here; the orchestrator records issues into it after
// the plan is built.
func (p *Planner) BuildPlan(result qa.Result, rctx *Context, maxAttempts int) Plan {
	plan := Plan{
		RepairID:      uuid.NewString(),
		AttemptNumber: rctx.AttemptNumber,
		MaxAttempts:   maxAttempts,
	}

	issues := append([]qa.Issue(nil), result.Issues...)
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity.Rank() < issues[j].Severity.Rank()
	})

	for _, issue := range issues {
		if !issue.AutoRepairable {
			plan.Unrepairable = append(plan.Unrepairable, issue)
			plan.Actions = append(plan.Actions, Action{
				IssueCode:  issue.Code,
				Type:       ActionManualReview,
				Priority:   1,
				Confidence: 0,
				Notes:      fmt.Sprintf("%s cannot be repaired automatically", issue.Code),
			})
			continue
		}

		strategy := p.Registry.Lookup(issue.Code)
		prior := rctx.Occurrences(issue.Code)
		if strategy.MaxAttempts > 0 && prior >= strategy.MaxAttempts {
			plan.Unrepairable = append(plan.Unrepairable, issue)
			plan.Actions = append(plan.Actions, Action{
				IssueCode:  issue.Code,
				Type:       ActionManualReview,
				Priority:   strategy.Priority,
				Confidence: 0,
				Notes:      fmt.Sprintf("%s failed %d repair attempts", issue.Code, prior),
			})
			continue
		}

		confidence := strategy.BaseConfidence - confidenceDecayPerOccurrence*float64(prior)
		if confidence < 0 {
			confidence = 0
		}

		action := Action{
			IssueCode:      issue.Code,
			Type:           ActionPromptAdjustment,
			Priority:       strategy.Priority,
			Confidence:     confidence,
			NegativeBoosts: strategy.NegativeBoosts,
		}
		if strategy.Override != nil {
			action.PromptOverride = strategy.Override(*rctx)
		}

		// Escalation replaces the base suggestion once the code has
		// recurred at least once.
		var suggestion *ParameterSuggestion
		if prior >= 1 && strategy.Escalate != nil {
			suggestion = strategy.Escalate(*rctx)
			action.Notes = "escalated after repeated failure"
		} else if strategy.Parameters != nil {
			suggestion = strategy.Parameters(*rctx)
		}
		if suggestion != nil && !suggestion.Empty() {
			action.Parameters = suggestion
			action.Type = ActionParameterChange
		}

		plan.Actions = append(plan.Actions, action)
	}

	sort.SliceStable(plan.Actions, func(i, j int) bool {
		return plan.Actions[i].Priority < plan.Actions[j].Priority
	})

	p.aggregate(&plan)

	plan.CanAutoRepair = len(plan.Unrepairable) == 0
	plan.ShouldRegenerate = plan.CanAutoRepair &&
		rctx.AttemptNumber < maxAttempts &&
		(result.CriticalCount > 0 || result.MajorCount > 0)

	return plan
}

// aggregate merges the individual actions into the plan-level override block,
// deduplicated boost list, and combined parameter suggestion.
func (p *Planner) aggregate(plan *Plan) {
	seenBoost := make(map[string]bool)
	var confidenceSum float64
	var repairable int

	// Walk lowest priority first so higher-priority suggestions are applied
	// last and win field conflicts.
	for i := len(plan.Actions) - 1; i >= 0; i-- {
		action := plan.Actions[i]
		if action.Type == ActionManualReview {
			continue
		}
		plan.Parameters.merge(action.Parameters)
	}

	for _, action := range plan.Actions {
		if action.Type == ActionManualReview {
			continue
		}
		repairable++
		confidenceSum += action.Confidence
		if strings.TrimSpace(action.PromptOverride) != "" {
			plan.PromptOverrides = append(plan.PromptOverrides, action.PromptOverride)
		}
		for _, boost := range action.NegativeBoosts {
			key := strings.ToLower(strings.TrimSpace(boost))
			if key == "" || seenBoost[key] {
				continue
			}
			seenBoost[key] = true
			plan.NegativeBoosts = append(plan.NegativeBoosts, boost)
		}
	}

	if repairable > 0 {
		plan.OverallConfidence = confidenceSum / float64(repairable)
	}
}
