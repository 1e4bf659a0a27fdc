// Package repair maps QA issues to corrective actions and builds the per
// attempt repair plan consumed by the generation pipeline.
package repair

import (
	"colorbook-backend/internal/qa"
	"colorbook-backend/internal/taxonomy"
)

// ActionType labels what kind of correction an action performs.
type ActionType string

const (
	ActionPromptAdjustment ActionType = "prompt_adjustment"
	ActionParameterChange  ActionType = "parameter_change"
	ActionManualReview     ActionType = "manual_review"
)

// ParameterSuggestion proposes generation parameter changes. Zero-value
// string fields mean "leave unchanged".
type ParameterSuggestion struct {
	StyleID      string   `json:"styleId,omitempty"`
	ComplexityID string   `json:"complexityId,omitempty"`
	AudienceID   string   `json:"audienceId,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Reasons      []string `json:"reasons,omitempty"`
}

// merge overlays other on top of s; fields set in other win.
func (s *ParameterSuggestion) merge(other *ParameterSuggestion) {
	if other == nil {
		return
	}
	if other.StyleID != "" {
		s.StyleID = other.StyleID
	}
	if other.ComplexityID != "" {
		s.ComplexityID = other.ComplexityID
	}
	if other.AudienceID != "" {
		s.AudienceID = other.AudienceID
	}
	if other.Temperature != nil {
		s.Temperature = other.Temperature
	}
	s.Reasons = append(s.Reasons, other.Reasons...)
}

// Empty reports whether the suggestion changes nothing.
func (s ParameterSuggestion) Empty() bool {
	return s.StyleID == "" && s.ComplexityID == "" && s.AudienceID == "" && s.Temperature == nil
}

// Action is the corrective step derived for one issue on one attempt.
type Action struct {
	IssueCode      taxonomy.Code        `json:"issueCode"`
	Type           ActionType           `json:"type"`
	Priority       int                  `json:"priority"`
	Confidence     float64              `json:"confidence"`
	PromptOverride string               `json:"promptOverride,omitempty"`
	NegativeBoosts []string             `json:"negativeBoosts,omitempty"`
	Parameters     *ParameterSuggestion `json:"parameters,omitempty"`
	Notes          string               `json:"notes,omitempty"`
}

// Plan aggregates all actions for one failed attempt. A new plan is built per
// cycle; only Context survives across attempts.
type Plan struct {
	RepairID          string              `json:"repairId"`
	CanAutoRepair     bool                `json:"canAutoRepair"`
	ShouldRegenerate  bool                `json:"shouldRegenerate"`
	OverallConfidence float64             `json:"overallConfidence"`
	Actions           []Action            `json:"actions"`
	PromptOverrides   []string            `json:"promptOverrides,omitempty"`
	NegativeBoosts    []string            `json:"negativeBoosts,omitempty"`
	Parameters        ParameterSuggestion `json:"parameters"`
	Unrepairable      []qa.Issue          `json:"unrepairableIssues,omitempty"`
	AttemptNumber     int                 `json:"attemptNumber"`
	MaxAttempts       int                 `json:"maxAttempts"`
}

// Context threads generation parameters and issue history through a pipeline
// run. PreviousIssues is append-only; occurrence counts drive escalation.
type Context struct {
	StyleID        string
	ComplexityID   string
	AudienceID     string
	AttemptNumber  int
	OriginalPrompt string
	PreviousIssues []taxonomy.Code

	occurrences map[taxonomy.Code]int
}

// NewContext builds the context for attempt 1.
func NewContext(styleID, complexityID, audienceID, originalPrompt string) *Context {
	return &Context{
		StyleID:        styleID,
		ComplexityID:   complexityID,
		AudienceID:     audienceID,
		AttemptNumber:  1,
		OriginalPrompt: originalPrompt,
		occurrences:    make(map[taxonomy.Code]int),
	}
}

// RecordIssues appends the attempt's issue codes to the history and bumps the
// per-code occurrence counters.
func (c *Context) RecordIssues(codes ...taxonomy.Code) {
	if c.occurrences == nil {
		c.occurrences = make(map[taxonomy.Code]int)
	}
	for _, code := range codes {
		c.PreviousIssues = append(c.PreviousIssues, code)
		c.occurrences[code]++
	}
}

// Occurrences returns how many prior attempts reported the code.
func (c *Context) Occurrences(code taxonomy.Code) int {
	return c.occurrences[code]
}
