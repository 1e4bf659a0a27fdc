package taxonomy

// definitions is the authoritative issue registry. It is written once at init
// and only read afterwards.
var definitions = map[Code]Definition{
	CodeColorDetected: {
		Code:           CodeColorDetected,
		Severity:       SeverityCritical,
		Category:       CategoryColor,
		AutoRepairable: true,
		Description:    "page contains colored fills instead of pure black-on-white line art",
	},
	CodeGrayscaleShading: {
		Code:           CodeGrayscaleShading,
		Severity:       SeverityMajor,
		Category:       CategoryColor,
		AutoRepairable: true,
		Description:    "gray shading or tonal rendering present",
	},
	CodeGradientFill: {
		Code:           CodeGradientFill,
		Severity:       SeverityMajor,
		Category:       CategoryColor,
		AutoRepairable: true,
		Description:    "gradient or soft fill inside a region",
	},
	CodeTextureNoise: {
		Code:           CodeTextureNoise,
		Severity:       SeverityMajor,
		Category:       CategoryColor,
		AutoRepairable: true,
		Description:    "stippling, hatching, or photographic texture",
	},
	CodeBrokenLines: {
		Code:           CodeBrokenLines,
		Severity:       SeverityMajor,
		Category:       CategoryLine,
		AutoRepairable: true,
		Description:    "outlines have gaps that leak fill color when colored",
	},
	CodeLineTooThin: {
		Code:           CodeLineTooThin,
		Severity:       SeverityMinor,
		Category:       CategoryLine,
		AutoRepairable: true,
		Description:    "line weight below the style minimum",
	},
	CodeSketchyLine: {
		Code:           CodeSketchyLine,
		Severity:       SeverityMajor,
		Category:       CategoryLine,
		AutoRepairable: true,
		Description:    "multiple overlapping sketch strokes instead of single clean outlines",
	},
	CodeBlurryLines: {
		Code:           CodeBlurryLines,
		Severity:       SeverityMajor,
		Category:       CategoryLine,
		AutoRepairable: true,
		Description:    "soft or anti-aliased edges instead of crisp lines",
	},
	CodeOpenRegions: {
		Code:           CodeOpenRegions,
		Severity:       SeverityCritical,
		Category:       CategoryRegion,
		AutoRepairable: true,
		Description:    "colorable regions are not fully enclosed",
	},
	CodeRegionTooSmall: {
		Code:           CodeRegionTooSmall,
		Severity:       SeverityMinor,
		Category:       CategoryRegion,
		AutoRepairable: true,
		Description:    "regions smaller than the style's minimum colorable size",
	},
	CodeOverlappingElements: {
		Code:           CodeOverlappingElements,
		Severity:       SeverityMajor,
		Category:       CategoryRegion,
		AutoRepairable: true,
		Description:    "elements overlap and create ambiguous regions",
	},
	CodeUnbalancedComposition: {
		Code:           CodeUnbalancedComposition,
		Severity:       SeverityMinor,
		Category:       CategoryComposition,
		AutoRepairable: true,
		Description:    "subject crowded into one part of the page",
	},
	CodeMissingRestArea: {
		Code:           CodeMissingRestArea,
		Severity:       SeverityMinor,
		Category:       CategoryComposition,
		AutoRepairable: true,
		Description:    "no low-detail rest area at a tier that requires one",
	},
	CodeEdgeCutoff: {
		Code:           CodeEdgeCutoff,
		Severity:       SeverityMajor,
		Category:       CategoryComposition,
		AutoRepairable: true,
		Description:    "subject cropped at the page edge",
	},
	CodeDetailTooDense: {
		Code:           CodeDetailTooDense,
		Severity:       SeverityMinor,
		Category:       CategoryComposition,
		AutoRepairable: true,
		Description:    "detail density exceeds what the tier allows in one area",
	},
	CodeComplexityTooHigh: {
		Code:           CodeComplexityTooHigh,
		Severity:       SeverityMajor,
		Category:       CategoryComplexity,
		AutoRepairable: true,
		Description:    "more elements or finer detail than the requested tier",
	},
	CodeComplexityTooLow: {
		Code:           CodeComplexityTooLow,
		Severity:       SeverityMinor,
		Category:       CategoryComplexity,
		AutoRepairable: true,
		Description:    "too sparse for the requested tier",
	},
	CodeInappropriateContent: {
		Code:           CodeInappropriateContent,
		Severity:       SeverityCritical,
		Category:       CategoryContent,
		AutoRepairable: false,
		Description:    "content unsuitable for any audience; requires manual review",
	},
	CodeScaryContent: {
		Code:           CodeScaryContent,
		Severity:       SeverityCritical,
		Category:       CategoryContent,
		AutoRepairable: true,
		Description:    "frightening imagery for the selected audience",
	},
	CodeAudienceMismatch: {
		Code:           CodeAudienceMismatch,
		Severity:       SeverityMajor,
		Category:       CategoryContent,
		AutoRepairable: true,
		Description:    "theme or tone does not fit the selected audience",
	},
	CodeTextInImage: {
		Code:           CodeTextInImage,
		Severity:       SeverityMajor,
		Category:       CategoryContent,
		AutoRepairable: true,
		Description:    "rendered text or lettering in the artwork",
	},
	CodeWatermarkArtifact: {
		Code:           CodeWatermarkArtifact,
		Severity:       SeverityMajor,
		Category:       CategoryContent,
		AutoRepairable: true,
		Description:    "watermark or signature artifact",
	},
	CodeStyleMismatch: {
		Code:           CodeStyleMismatch,
		Severity:       SeverityMajor,
		Category:       CategoryStyle,
		AutoRepairable: true,
		Description:    "rendering does not match the requested line-art style",
	},
	CodeSubjectMismatch: {
		Code:           CodeSubjectMismatch,
		Severity:       SeverityMajor,
		Category:       CategoryStyle,
		AutoRepairable: true,
		Description:    "image does not depict the requested subject",
	},
	CodeServiceError: {
		Code:           CodeServiceError,
		Severity:       SeverityCritical,
		Category:       CategoryService,
		AutoRepairable: false,
		Description:    "analysis service failed; result is fail-safe, not a verdict on the image",
	},
	CodeAnalysisIncomplete: {
		Code:           CodeAnalysisIncomplete,
		Severity:       SeverityMinor,
		Category:       CategoryService,
		AutoRepairable: false,
		Description:    "analysis unavailable; page passed without validation",
	},
}

// Lookup returns the definition for a code. Unknown codes get a safe default
// (major, auto-repairable) so responses from newer rubric revisions are still
// counted rather than rejected.
func Lookup(code Code) Definition {
	if def, ok := definitions[code]; ok {
		return def
	}
	return Definition{
		Code:           code,
		Severity:       SeverityMajor,
		Category:       CategoryStyle,
		AutoRepairable: true,
		Description:    "unrecognized issue code",
	}
}

// Known reports whether the code is in the registry.
func Known(code Code) bool {
	_, ok := definitions[code]
	return ok
}

// All returns every registered definition. The slice is a copy.
func All() []Definition {
	out := make([]Definition, 0, len(definitions))
	for _, def := range definitions {
		out = append(out, def)
	}
	return out
}
