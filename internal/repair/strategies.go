package repair

import (
	"fmt"

	"colorbook-backend/internal/prompts"
	"colorbook-backend/internal/taxonomy"
)

// Strategy defines how one issue code is repaired: a prompt directive, terms
// to strengthen in the negative prompt, an optional parameter change, and the
// stronger escalation applied once the same code has recurred.
type Strategy struct {
	Priority       int
	BaseConfidence float64
	MaxAttempts    int
	Override       func(Context) string
	NegativeBoosts []string
	Parameters     func(Context) *ParameterSuggestion
	Escalate       func(Context) *ParameterSuggestion
}

// Registry maps issue codes to strategies.
type Registry struct {
	strategies map[taxonomy.Code]Strategy
}

// Lookup returns the strategy for a code, falling back to a generic
// prompt-only strategy for codes added to the taxonomy later.
func (r *Registry) Lookup(code taxonomy.Code) Strategy {
	if s, ok := r.strategies[code]; ok {
		return s
	}
	return Strategy{
		Priority:       3,
		BaseConfidence: 50,
		MaxAttempts:    2,
		Override: func(ctx Context) string {
			return fmt.Sprintf("Resolve the reported %s issue while keeping everything else unchanged.", code)
		},
	}
}

func staticOverride(text string) func(Context) string {
	return func(Context) string { return text }
}

func lowerTemperature(value float64, reason string) func(Context) *ParameterSuggestion {
	return func(Context) *ParameterSuggestion {
		temp := value
		return &ParameterSuggestion{Temperature: &temp, Reasons: []string{reason}}
	}
}

func switchStyle(styleID, reason string) func(Context) *ParameterSuggestion {
	return func(ctx Context) *ParameterSuggestion {
		if ctx.StyleID == styleID {
			return nil
		}
		return &ParameterSuggestion{StyleID: styleID, Reasons: []string{reason}}
	}
}

func downgradeComplexity(reason string) func(Context) *ParameterSuggestion {
	return func(ctx Context) *ParameterSuggestion {
		tier := prompts.ComplexityByID(ctx.ComplexityID)
		if tier.DowngradeID == "" {
			return nil
		}
		return &ParameterSuggestion{ComplexityID: tier.DowngradeID, Reasons: []string{reason}}
	}
}

// NewRegistry builds the default strategy table covering every repairable
// code in the taxonomy.
func NewRegistry() *Registry {
	return &Registry{strategies: map[taxonomy.Code]Strategy{
		taxonomy.CodeColorDetected: {
			Priority:       1,
			BaseConfidence: 85,
			MaxAttempts:    3,
			Override:       staticOverride("Render strictly as black ink lines on a pure white background. Absolutely no colored fills anywhere on the page."),
			NegativeBoosts: []string{"color", "colored pencil", "vivid colors", "rainbow", "painted"},
			Escalate:       lowerTemperature(0.2, "color keeps appearing; reduce sampling temperature"),
		},
		taxonomy.CodeGrayscaleShading: {
			Priority:       2,
			BaseConfidence: 80,
			MaxAttempts:    3,
			Override:       staticOverride("Use only solid black lines. Remove every gray tone, shadow, and tonal rendering."),
			NegativeBoosts: []string{"shading", "gray tones", "airbrush", "soft shadows"},
			Escalate:       lowerTemperature(0.3, "shading recurred; reduce sampling temperature"),
		},
		taxonomy.CodeGradientFill: {
			Priority:       2,
			BaseConfidence: 80,
			MaxAttempts:    3,
			Override:       staticOverride("Leave every enclosed region completely white inside. No gradients or soft fills."),
			NegativeBoosts: []string{"gradient", "soft fill", "airbrushed"},
			Escalate:       lowerTemperature(0.3, "gradient fills recurred; reduce sampling temperature"),
		},
		taxonomy.CodeTextureNoise: {
			Priority:       2,
			BaseConfidence: 75,
			MaxAttempts:    3,
			Override:       staticOverride("Remove all stippling, hatching, and texture. Surfaces stay plain white inside their outlines."),
			NegativeBoosts: []string{"stippling", "hatching", "noise", "grain"},
			Escalate:       switchStyle("bold-outline", "texture recurred; bold outline style leaves no room for texture"),
		},
		taxonomy.CodeBrokenLines: {
			Priority:       2,
			BaseConfidence: 75,
			MaxAttempts:    3,
			Override:       staticOverride("Every outline must be continuous with no gaps. Each shape fully sealed so it can hold color."),
			NegativeBoosts: []string{"broken lines", "gaps", "dashed lines"},
			Escalate:       switchStyle("bold-outline", "line gaps recurred; thicker strokes close more reliably"),
		},
		taxonomy.CodeLineTooThin: {
			Priority:       4,
			BaseConfidence: 70,
			MaxAttempts:    2,
			Override: func(ctx Context) string {
				style := prompts.StyleByID(ctx.StyleID)
				return fmt.Sprintf("Draw all outlines at %s. No hairline strokes.", style.LineWeight)
			},
			NegativeBoosts: []string{"thin lines", "hairlines"},
			Escalate:       switchStyle("bold-outline", "thin lines recurred; switch to the bold outline style"),
		},
		taxonomy.CodeSketchyLine: {
			Priority:       3,
			BaseConfidence: 75,
			MaxAttempts:    3,
			Override:       staticOverride("Use single deliberate strokes. No overlapping sketch lines or construction marks."),
			NegativeBoosts: []string{"sketch", "rough draft", "pencil sketch", "scribble"},
			Escalate:       lowerTemperature(0.3, "sketchiness recurred; reduce sampling temperature"),
		},
		taxonomy.CodeBlurryLines: {
			Priority:       3,
			BaseConfidence: 70,
			MaxAttempts:    3,
			Override:       staticOverride("All edges must be sharp and crisp, as if drawn with a pen. No blur or soft focus."),
			NegativeBoosts: []string{"blur", "soft focus", "out of focus"},
			Escalate:       lowerTemperature(0.3, "blur recurred; reduce sampling temperature"),
		},
		taxonomy.CodeOpenRegions: {
			Priority:       1,
			BaseConfidence: 80,
			MaxAttempts:    3,
			Override: func(ctx Context) string {
				style := prompts.StyleByID(ctx.StyleID)
				return fmt.Sprintf("Close every region completely: outlines must connect so each area of at least %.0fmm can be colored without bleeding.", style.MinRegionSizeMM)
			},
			NegativeBoosts: []string{"open shapes", "unfinished outlines"},
			Escalate:       switchStyle("bold-outline", "open regions recurred; bold outlines enclose regions more reliably"),
		},
		taxonomy.CodeRegionTooSmall: {
			Priority:       4,
			BaseConfidence: 70,
			MaxAttempts:    2,
			Override: func(ctx Context) string {
				style := prompts.StyleByID(ctx.StyleID)
				return fmt.Sprintf("Make every colorable region at least %.0fmm across. Merge or drop tiny slivers.", style.MinRegionSizeMM)
			},
			NegativeBoosts: []string{"tiny details", "micro patterns"},
			Escalate:       downgradeComplexity("tiny regions recurred; drop one complexity tier"),
		},
		taxonomy.CodeOverlappingElements: {
			Priority:       3,
			BaseConfidence: 65,
			MaxAttempts:    2,
			Override:       staticOverride("Separate all elements clearly. No overlapping shapes that create ambiguous regions."),
			NegativeBoosts: []string{"overlapping objects", "cluttered"},
			Escalate:       downgradeComplexity("overlap recurred; fewer elements reduce collisions"),
		},
		taxonomy.CodeUnbalancedComposition: {
			Priority:       5,
			BaseConfidence: 60,
			MaxAttempts:    2,
			Override:       staticOverride("Center the composition and distribute elements evenly across the page."),
		},
		taxonomy.CodeMissingRestArea: {
			Priority:       5,
			BaseConfidence: 65,
			MaxAttempts:    2,
			Override:       staticOverride("Reserve at least one open low-detail rest area, for example plain sky or ground."),
		},
		taxonomy.CodeEdgeCutoff: {
			Priority:       3,
			BaseConfidence: 75,
			MaxAttempts:    2,
			Override:       staticOverride("Keep the full subject inside the page with a clear margin. Nothing touches or crosses the edge."),
			NegativeBoosts: []string{"cropped", "cut off"},
		},
		taxonomy.CodeDetailTooDense: {
			Priority:       4,
			BaseConfidence: 65,
			MaxAttempts:    2,
			Override:       staticOverride("Reduce detail density: spread fine detail out and keep large areas simple."),
			NegativeBoosts: []string{"dense detail", "busy background"},
			Escalate:       downgradeComplexity("dense detail recurred; drop one complexity tier"),
		},
		taxonomy.CodeComplexityTooHigh: {
			Priority:       2,
			BaseConfidence: 70,
			MaxAttempts:    2,
			Override: func(ctx Context) string {
				tier := prompts.ComplexityByID(ctx.ComplexityID)
				return fmt.Sprintf("Simplify to the %s tier: at most %d distinct elements, %s.", tier.Name, tier.MaxElements, tier.DetailGuidance)
			},
			NegativeBoosts: []string{"intricate detail", "complex background"},
			Escalate:       downgradeComplexity("tier overshoot recurred; generate at the lower tier directly"),
		},
		taxonomy.CodeComplexityTooLow: {
			Priority:       4,
			BaseConfidence: 60,
			MaxAttempts:    2,
			Override: func(ctx Context) string {
				tier := prompts.ComplexityByID(ctx.ComplexityID)
				return fmt.Sprintf("Add content up to the %s tier: at least %d distinct elements.", tier.Name, tier.MinElements)
			},
		},
		taxonomy.CodeScaryContent: {
			Priority:       1,
			BaseConfidence: 70,
			MaxAttempts:    2,
			Override: func(ctx Context) string {
				audience := prompts.AudienceByID(ctx.AudienceID)
				return fmt.Sprintf("Make the imagery %s and friendly. Soften anything frightening: round shapes, smiling expressions.", audience.Tone)
			},
			NegativeBoosts: []string{"scary", "menacing", "sharp teeth", "horror"},
			Escalate:       lowerTemperature(0.2, "frightening imagery recurred; reduce sampling temperature"),
		},
		taxonomy.CodeAudienceMismatch: {
			Priority:       2,
			BaseConfidence: 65,
			MaxAttempts:    2,
			Override: func(ctx Context) string {
				audience := prompts.AudienceByID(ctx.AudienceID)
				return fmt.Sprintf("Match the %s audience (ages %s): tone %s.", audience.Name, audience.AgeRange, audience.Tone)
			},
		},
		taxonomy.CodeTextInImage: {
			Priority:       2,
			BaseConfidence: 80,
			MaxAttempts:    3,
			Override:       staticOverride("No text, letters, numbers, or symbols anywhere in the artwork."),
			NegativeBoosts: []string{"text", "letters", "words", "typography", "numbers"},
			Escalate:       lowerTemperature(0.3, "rendered text recurred; reduce sampling temperature"),
		},
		taxonomy.CodeWatermarkArtifact: {
			Priority:       2,
			BaseConfidence: 80,
			MaxAttempts:    3,
			Override:       staticOverride("No watermarks, signatures, or logos anywhere on the page."),
			NegativeBoosts: []string{"watermark", "signature", "logo", "stamp"},
		},
		taxonomy.CodeStyleMismatch: {
			Priority:       2,
			BaseConfidence: 70,
			MaxAttempts:    3,
			Override: func(ctx Context) string {
				style := prompts.StyleByID(ctx.StyleID)
				return fmt.Sprintf("Follow the %s style exactly: %s.", style.Name, style.LineWeight)
			},
			Escalate: lowerTemperature(0.1, "style drift recurred; minimize sampling temperature"),
		},
		taxonomy.CodeSubjectMismatch: {
			Priority:       2,
			BaseConfidence: 60,
			MaxAttempts:    2,
			Override: func(ctx Context) string {
				return fmt.Sprintf("The page must depict exactly this subject: %s.", ctx.OriginalPrompt)
			},
			Escalate: lowerTemperature(0.2, "subject drift recurred; reduce sampling temperature"),
		},
	}}
}
