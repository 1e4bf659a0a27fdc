package prompts

import (
	"fmt"
	"strings"
)

// BuildInput carries everything needed to assemble one generation prompt pair.
type BuildInput struct {
	Subject            string
	StyleID            string
	ComplexityID       string
	AudienceID         string
	RepairInstructions []string
	NegativeBoosts     []string
}

// Prompts is the positive/negative prompt pair handed to the image generator.
type Prompts struct {
	Positive string
	Negative string
}

// baseNegativeTerms are excluded for every coloring page regardless of style.
var baseNegativeTerms = []string{
	"color", "colored fill", "shading", "grayscale", "gradient",
	"photorealistic", "texture", "watermark", "signature", "text", "lettering",
}

// Build assembles the prompt pair from the specs plus any repair directives
// accumulated by earlier attempts.
func Build(input BuildInput) Prompts {
	style := StyleByID(input.StyleID)
	complexity := ComplexityByID(input.ComplexityID)
	audience := AudienceByID(input.AudienceID)

	var b strings.Builder
	fmt.Fprintf(&b, "Black and white line art coloring page of %s.", strings.TrimSpace(input.Subject))
	fmt.Fprintf(&b, " Style: %s with %s.", style.Name, style.LineWeight)
	if len(style.Descriptors) > 0 {
		fmt.Fprintf(&b, " %s.", joinClause(style.Descriptors))
	}
	fmt.Fprintf(&b, " Complexity: %s — %s, between %d and %d distinct elements.",
		complexity.Name, complexity.DetailGuidance, complexity.MinElements, complexity.MaxElements)
	if complexity.RestAreaNeeded {
		b.WriteString(" Include at least one open low-detail rest area.")
	}
	fmt.Fprintf(&b, " Audience: %s (ages %s), tone %s.", audience.Name, audience.AgeRange, audience.Tone)
	fmt.Fprintf(&b, " Every region must be fully enclosed by lines and at least %.0fmm across. Pure white background, no fills.",
		style.MinRegionSizeMM)

	if len(input.RepairInstructions) > 0 {
		b.WriteString("\n\nCorrections from prior attempt:")
		for _, instruction := range input.RepairInstructions {
			if strings.TrimSpace(instruction) == "" {
				continue
			}
			b.WriteString("\n- ")
			b.WriteString(strings.TrimSpace(instruction))
		}
	}

	return Prompts{
		Positive: b.String(),
		Negative: buildNegative(style, audience, input.NegativeBoosts),
	}
}

func buildNegative(style StyleSpec, audience AudienceSpec, boosts []string) string {
	seen := make(map[string]bool)
	terms := make([]string, 0, len(baseNegativeTerms)+len(style.NegativeTerms)+len(boosts))
	appendTerm := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || seen[term] {
			return
		}
		seen[term] = true
		terms = append(terms, term)
	}
	for _, term := range baseNegativeTerms {
		appendTerm(term)
	}
	for _, term := range style.NegativeTerms {
		appendTerm(term)
	}
	for _, theme := range audience.ForbiddenThemes {
		appendTerm(theme)
	}
	for _, term := range boosts {
		appendTerm(term)
	}
	return strings.Join(terms, ", ")
}

func joinClause(parts []string) string {
	joined := strings.Join(parts, ", ")
	if joined == "" {
		return joined
	}
	return strings.ToUpper(joined[:1]) + joined[1:]
}
