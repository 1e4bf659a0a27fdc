// Package prompts owns the style, complexity, and audience specifications and
// turns them into generation prompts and analysis rubrics.
package prompts

import "strings"

// StyleSpec describes one line-art aesthetic.
type StyleSpec struct {
	ID              string
	Name            string
	LineWeight      string
	MinRegionSizeMM float64
	Descriptors     []string
	NegativeTerms   []string
}

// ComplexitySpec describes one complexity tier.
type ComplexitySpec struct {
	ID              string
	Name            string
	MinElements     int
	MaxElements     int
	RestAreaNeeded  bool
	DetailGuidance  string
	DowngradeID     string
}

// AudienceSpec describes one target audience.
type AudienceSpec struct {
	ID              string
	Name            string
	AgeRange        string
	Tone            string
	ForbiddenThemes []string
}

var styles = map[string]StyleSpec{
	"bold-outline": {
		ID:              "bold-outline",
		Name:            "Bold Outline",
		LineWeight:      "thick 4-6pt uniform strokes",
		MinRegionSizeMM: 10,
		Descriptors:     []string{"bold clean outlines", "large open shapes", "uniform stroke weight"},
		NegativeTerms:   []string{"thin lines", "fine detail", "crosshatching"},
	},
	"classic": {
		ID:              "classic",
		Name:            "Classic",
		LineWeight:      "medium 2-3pt strokes",
		MinRegionSizeMM: 6,
		Descriptors:     []string{"clean consistent outlines", "balanced detail", "smooth curves"},
		NegativeTerms:   []string{"sketch lines", "hatching"},
	},
	"fine-line": {
		ID:              "fine-line",
		Name:            "Fine Line",
		LineWeight:      "fine 1-2pt strokes",
		MinRegionSizeMM: 3,
		Descriptors:     []string{"delicate precise linework", "intricate patterns", "even stroke weight"},
		NegativeTerms:   []string{"blurry edges", "uneven strokes"},
	},
}

var complexities = map[string]ComplexitySpec{
	"very-simple": {
		ID:             "very-simple",
		Name:           "Very Simple",
		MinElements:    1,
		MaxElements:    3,
		RestAreaNeeded: false,
		DetailGuidance: "one large central subject, no background detail",
	},
	"simple": {
		ID:             "simple",
		Name:           "Simple",
		MinElements:    2,
		MaxElements:    5,
		RestAreaNeeded: false,
		DetailGuidance: "a central subject with minimal background elements",
		DowngradeID:    "very-simple",
	},
	"moderate": {
		ID:             "moderate",
		Name:           "Moderate",
		MinElements:    4,
		MaxElements:    10,
		RestAreaNeeded: true,
		DetailGuidance: "a scene with a clear focal point and at least one low-detail rest area",
		DowngradeID:    "simple",
	},
	"detailed": {
		ID:             "detailed",
		Name:           "Detailed",
		MinElements:    8,
		MaxElements:    18,
		RestAreaNeeded: true,
		DetailGuidance: "a rich scene with varied detail density and deliberate rest areas",
		DowngradeID:    "moderate",
	},
	"intricate": {
		ID:             "intricate",
		Name:           "Intricate",
		MinElements:    15,
		MaxElements:    40,
		RestAreaNeeded: true,
		DetailGuidance: "dense pattern work balanced by open rest areas",
		DowngradeID:    "detailed",
	},
}

var audiences = map[string]AudienceSpec{
	"toddler": {
		ID:              "toddler",
		Name:            "Toddlers",
		AgeRange:        "2-4",
		Tone:            "cheerful, friendly, rounded",
		ForbiddenThemes: []string{"scary imagery", "weapons", "sharp teeth", "violence"},
	},
	"kids": {
		ID:              "kids",
		Name:            "Kids",
		AgeRange:        "5-10",
		Tone:            "playful and adventurous",
		ForbiddenThemes: []string{"gore", "weapons", "horror"},
	},
	"teens": {
		ID:              "teens",
		Name:            "Teens",
		AgeRange:        "11-17",
		Tone:            "dynamic, expressive",
		ForbiddenThemes: []string{"gore", "explicit content"},
	},
	"adults": {
		ID:              "adults",
		Name:            "Adults",
		AgeRange:        "18+",
		Tone:            "sophisticated, meditative",
		ForbiddenThemes: []string{"explicit content"},
	},
}

// StyleByID returns the style spec, defaulting to classic for unknown ids.
func StyleByID(id string) StyleSpec {
	if spec, ok := styles[normalizeID(id)]; ok {
		return spec
	}
	return styles["classic"]
}

// ComplexityByID returns the complexity spec, defaulting to simple.
func ComplexityByID(id string) ComplexitySpec {
	if spec, ok := complexities[normalizeID(id)]; ok {
		return spec
	}
	return complexities["simple"]
}

// AudienceByID returns the audience spec, defaulting to kids.
func AudienceByID(id string) AudienceSpec {
	if spec, ok := audiences[normalizeID(id)]; ok {
		return spec
	}
	return audiences["kids"]
}

// KnownStyle reports whether the id maps to a registered style.
func KnownStyle(id string) bool {
	_, ok := styles[normalizeID(id)]
	return ok
}

// KnownComplexity reports whether the id maps to a registered tier.
func KnownComplexity(id string) bool {
	_, ok := complexities[normalizeID(id)]
	return ok
}

// KnownAudience reports whether the id maps to a registered audience.
func KnownAudience(id string) bool {
	_, ok := audiences[normalizeID(id)]
	return ok
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(id, " ", "-")))
}
