package prompts

import (
	"fmt"
	"strings"
)

// RubricInput carries the generation context the analyzer needs to judge a page.
type RubricInput struct {
	StyleID        string
	ComplexityID   string
	AudienceID     string
	OriginalPrompt string
}

// BuildRubric renders the checklist the vision model scores a page against.
// The response contract (dimension scores + issue list) is stated inline so
// the model returns machine-parseable JSON.
func BuildRubric(input RubricInput) string {
	style := StyleByID(input.StyleID)
	complexity := ComplexityByID(input.ComplexityID)
	audience := AudienceByID(input.AudienceID)

	var b strings.Builder
	b.WriteString("Evaluate this coloring page image against the following contract.\n\n")

	b.WriteString("Checklist:\n")
	fmt.Fprintf(&b, "1. Pure two-tone line art: black lines on white only. No color, gray shading, gradients, or textures.\n")
	fmt.Fprintf(&b, "2. Line quality: %s, crisp edges, single clean strokes, no sketchiness.\n", style.LineWeight)
	fmt.Fprintf(&b, "3. Region integrity: every colorable region fully enclosed and at least %.0fmm across.\n", style.MinRegionSizeMM)
	fmt.Fprintf(&b, "4. Complexity (%s): %d-%d distinct elements, %s.\n",
		complexity.Name, complexity.MinElements, complexity.MaxElements, complexity.DetailGuidance)
	if complexity.RestAreaNeeded {
		b.WriteString("5. Composition: subject centered, nothing cropped at the edge, at least one low-detail rest area.\n")
	} else {
		b.WriteString("5. Composition: subject centered, nothing cropped at the edge.\n")
	}
	fmt.Fprintf(&b, "6. Audience (%s, ages %s): tone %s; forbidden: %s.\n",
		audience.Name, audience.AgeRange, audience.Tone, strings.Join(audience.ForbiddenThemes, ", "))
	b.WriteString("7. No rendered text, lettering, watermarks, or signatures.\n")

	if strings.TrimSpace(input.OriginalPrompt) != "" {
		fmt.Fprintf(&b, "\nThe page was generated from this request:\n%s\n", input.OriginalPrompt)
	}

	b.WriteString(`
Respond with JSON only, matching exactly:
{
  "dimensionScores": {
    "lineQuality": 0-100,
    "regionIntegrity": 0-100,
    "composition": 0-100,
    "audienceAlignment": 0-100,
    "styleCompliance": 0-100,
    "complexityCompliance": 0-100
  },
  "issues": [
    {"code": "ISSUE_CODE", "severity": "critical|major|minor", "description": "...", "location": "optional", "confidence": 0.0-1.0}
  ],
  "recommendations": ["..."]
}
Known issue codes: COLOR_DETECTED, GRAYSCALE_SHADING, GRADIENT_FILL, TEXTURE_NOISE,
BROKEN_LINES, LINE_TOO_THIN, SKETCHY_LINES, BLURRY_LINES, OPEN_REGIONS, REGION_TOO_SMALL,
OVERLAPPING_ELEMENTS, UNBALANCED_COMPOSITION, MISSING_REST_AREA, EDGE_CUTOFF,
DETAIL_TOO_DENSE, COMPLEXITY_TOO_HIGH, COMPLEXITY_TOO_LOW, INAPPROPRIATE_CONTENT,
SCARY_CONTENT, AUDIENCE_MISMATCH, TEXT_IN_IMAGE, WATERMARK_ARTIFACT, STYLE_MISMATCH,
SUBJECT_MISMATCH.
`)
	return b.String()
}
