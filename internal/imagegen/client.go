// Package imagegen abstracts image-generation providers behind a closed set
// of request variants validated at the pipeline boundary.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider enumerates supported generation backends.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderStability Provider = "stability"
)

// OpenAIParams are the OpenAI-specific generation knobs.
type OpenAIParams struct {
	Model   string `json:"model"`
	Quality string `json:"quality,omitempty"`
}

// StabilityParams are the Stability-specific generation knobs.
type StabilityParams struct {
	Engine   string  `json:"engine"`
	Steps    int     `json:"steps,omitempty"`
	CFGScale float64 `json:"cfgScale,omitempty"`
}

// ProviderParams is a tagged union: exactly one variant must be set and it
// must match the Provider tag.
type ProviderParams struct {
	Provider  Provider         `json:"provider"`
	OpenAI    *OpenAIParams    `json:"openai,omitempty"`
	Stability *StabilityParams `json:"stability,omitempty"`
}

// Validate enforces the one-variant rule.
func (p ProviderParams) Validate() error {
	switch p.Provider {
	case ProviderOpenAI:
		if p.OpenAI == nil {
			return errors.New("openai provider requires openai parameters")
		}
		if p.Stability != nil {
			return errors.New("openai provider must not carry stability parameters")
		}
		if strings.TrimSpace(p.OpenAI.Model) == "" {
			return errors.New("openai model is required")
		}
	case ProviderStability:
		if p.Stability == nil {
			return errors.New("stability provider requires stability parameters")
		}
		if p.OpenAI != nil {
			return errors.New("stability provider must not carry openai parameters")
		}
		if strings.TrimSpace(p.Stability.Engine) == "" {
			return errors.New("stability engine is required")
		}
	default:
		return fmt.Errorf("unknown provider %q", p.Provider)
	}
	return nil
}

// Request carries everything needed for one generation call.
type Request struct {
	PositivePrompt    string
	NegativePrompt    string
	StyleID           string
	ComplexityID      string
	AudienceID        string
	AspectRatio       string
	ResolutionTier    string
	ReferenceImageURL string
	Temperature       float64
	Params            ProviderParams
}

// Result reports one generation call's outcome. A failed call is a Result
// with Success=false, not an error; errors are reserved for cancellation and
// programming mistakes.
type Result struct {
	Success    bool    `json:"success"`
	ImageURL   string  `json:"imageUrl,omitempty"`
	Error      string  `json:"error,omitempty"`
	PromptUsed string  `json:"promptUsed"`
	DurationMs float64 `json:"durationMs"`
}

// Client abstracts generation providers.
type Client interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("image generation not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Generate returns ErrNotImplemented.
func (PlaceholderClient) Generate(ctx context.Context, req Request) (Result, error) {
	_ = ctx
	_ = req
	return Result{}, ErrNotImplemented
}
