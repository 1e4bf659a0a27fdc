package pipeline

import "colorbook-backend/internal/qa"

// Config holds the caller-supplied policy knobs for one pipeline run. It is
// immutable for the duration of the run.
type Config struct {
	MaxAttempts              int
	EnableQA                 bool
	EnableAutoRetry          bool
	MinimumPassScore         float64
	PublishThreshold         float64
	AllowParameterEscalation bool
	Mode                     qa.Mode
}

// DefaultConfig returns the standard production policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:              3,
		EnableQA:                 true,
		EnableAutoRetry:          true,
		MinimumPassScore:         70,
		PublishThreshold:         85,
		AllowParameterEscalation: true,
		Mode:                     qa.ModeStrict,
	}
}

// normalized clamps nonsensical values so a zero-value config still runs.
func (c Config) normalized() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.Mode == "" {
		c.Mode = qa.ModeStrict
	}
	return c
}

// scorer builds the QA scorer for this run's policy.
func (c Config) scorer() *qa.Scorer {
	scorer := qa.NewScorer(c.Mode)
	if c.MinimumPassScore > 0 {
		scorer.MinimumPassScore = c.MinimumPassScore
	}
	if c.PublishThreshold > 0 {
		scorer.PublishThreshold = c.PublishThreshold
	}
	return scorer
}
