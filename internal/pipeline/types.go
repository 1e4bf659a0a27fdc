package pipeline

import (
	"colorbook-backend/internal/imagegen"
	"colorbook-backend/internal/qa"
	"colorbook-backend/internal/repair"
)

// Phase labels the orchestrator's state for progress reporting.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseGenerating   Phase = "generating"
	PhaseValidating   Phase = "validating"
	PhaseRepairing    Phase = "repairing"
	PhaseComplete     Phase = "complete"
	PhaseFailed       Phase = "failed"
)

// Progress is delivered to the optional progress callback at phase
// transitions.
type Progress struct {
	Phase       Phase `json:"phase"`
	Percent     int   `json:"percent"`
	Attempt     int   `json:"attempt"`
	MaxAttempts int   `json:"maxAttempts"`
}

// ProgressFunc receives progress updates. It must not block.
type ProgressFunc func(Progress)

// Request describes one page to generate and validate.
type Request struct {
	RequestID         string
	Subject           string
	StyleID           string
	ComplexityID      string
	AudienceID        string
	AspectRatio       string
	ResolutionTier    string
	ReferenceImageURL string
	Temperature       float64
	Params            imagegen.ProviderParams
}

// ParametersUsed snapshots the generation parameters of one attempt, after
// any repairs were applied.
type ParametersUsed struct {
	StyleID      string  `json:"styleId"`
	ComplexityID string  `json:"complexityId"`
	AudienceID   string  `json:"audienceId"`
	Temperature  float64 `json:"temperature"`
}

// AttemptResult records one generate/validate/repair cycle. The history is
// append-only and returned in full for auditability.
type AttemptResult struct {
	AttemptNumber int             `json:"attemptNumber"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	QA            *qa.Result      `json:"qaResult,omitempty"`
	Plan          *repair.Plan    `json:"repairPlan,omitempty"`
	DurationMs    float64         `json:"durationMs"`
	PromptUsed    string          `json:"promptUsed"`
	Parameters    ParametersUsed  `json:"parametersUsed"`
	GenError      string          `json:"generationError,omitempty"`
}

// Result is the terminal outcome of one pipeline run.
type Result struct {
	Success          bool            `json:"success"`
	ImageURL         string          `json:"imageUrl,omitempty"`
	QualityScore     float64         `json:"qualityScore"`
	IsPublishable    bool            `json:"isPublishable"`
	TotalAttempts    int             `json:"totalAttempts"`
	FinalQA          *qa.Result      `json:"finalQaResult,omitempty"`
	Attempts         []AttemptResult `json:"attemptHistory"`
	ParameterChanges []string        `json:"parameterChanges,omitempty"`
	Summary          string          `json:"summary"`
}
