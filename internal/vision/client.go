// Package vision adapts an external vision-analysis capability into typed QA
// results for generated coloring pages.
package vision

import (
	"context"
	"errors"
)

// AnalyzeInput is the full context for one analysis call.
type AnalyzeInput struct {
	ImageURL       string
	RequestID      string
	StyleID        string
	ComplexityID   string
	AudienceID     string
	OriginalPrompt string
}

// RawIssue is one finding as reported by the vision model, before taxonomy
// normalization.
type RawIssue struct {
	Code        string  `json:"code"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Location    string  `json:"location,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// RawDimensionScores mirrors the analyzer response schema.
type RawDimensionScores struct {
	LineQuality          float64 `json:"lineQuality"`
	RegionIntegrity      float64 `json:"regionIntegrity"`
	Composition          float64 `json:"composition"`
	AudienceAlignment    float64 `json:"audienceAlignment"`
	StyleCompliance      float64 `json:"styleCompliance"`
	ComplexityCompliance float64 `json:"complexityCompliance"`
}

// RawResult is the parsed analyzer response before scoring.
type RawResult struct {
	DimensionScores *RawDimensionScores `json:"dimensionScores,omitempty"`
	Issues          []RawIssue          `json:"issues"`
	Recommendations []string            `json:"recommendations,omitempty"`
}

// Client abstracts vision-analysis providers.
type Client interface {
	AnalyzeImage(ctx context.Context, input AnalyzeInput) (RawResult, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("vision analysis not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// AnalyzeImage returns ErrNotImplemented.
func (PlaceholderClient) AnalyzeImage(ctx context.Context, input AnalyzeInput) (RawResult, error) {
	_ = ctx
	_ = input
	return RawResult{}, ErrNotImplemented
}
