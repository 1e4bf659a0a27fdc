// Package taxonomy defines the fixed registry of QA issue codes detected on
// generated coloring pages, with their severity, category, and repairability.
package taxonomy

// Severity classifies how strongly an issue blocks acceptance.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Rank orders severities for sorting, critical first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityMajor:
		return 1
	case SeverityMinor:
		return 2
	default:
		return 3
	}
}

// Valid reports whether the severity is one of the known values.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return true
	}
	return false
}

// Category groups issue codes by the part of the visual contract they violate.
type Category string

const (
	CategoryColor       Category = "color"
	CategoryLine        Category = "line"
	CategoryRegion      Category = "region"
	CategoryComposition Category = "composition"
	CategoryComplexity  Category = "complexity"
	CategoryContent     Category = "content"
	CategoryStyle       Category = "style"
	CategoryService     Category = "service"
)

// Code identifies a single QA issue kind. Codes not listed in the registry are
// still accepted; Lookup falls back to a default definition so analyzer
// responses from newer rubric revisions keep flowing.
type Code string

const (
	// Color and texture contract.
	CodeColorDetected    Code = "COLOR_DETECTED"
	CodeGrayscaleShading Code = "GRAYSCALE_SHADING"
	CodeGradientFill     Code = "GRADIENT_FILL"
	CodeTextureNoise     Code = "TEXTURE_NOISE"

	// Line quality.
	CodeBrokenLines Code = "BROKEN_LINES"
	CodeLineTooThin Code = "LINE_TOO_THIN"
	CodeSketchyLine Code = "SKETCHY_LINES"
	CodeBlurryLines Code = "BLURRY_LINES"

	// Region integrity.
	CodeOpenRegions         Code = "OPEN_REGIONS"
	CodeRegionTooSmall      Code = "REGION_TOO_SMALL"
	CodeOverlappingElements Code = "OVERLAPPING_ELEMENTS"

	// Composition.
	CodeUnbalancedComposition Code = "UNBALANCED_COMPOSITION"
	CodeMissingRestArea       Code = "MISSING_REST_AREA"
	CodeEdgeCutoff            Code = "EDGE_CUTOFF"
	CodeDetailTooDense        Code = "DETAIL_TOO_DENSE"

	// Complexity tier compliance.
	CodeComplexityTooHigh Code = "COMPLEXITY_TOO_HIGH"
	CodeComplexityTooLow  Code = "COMPLEXITY_TOO_LOW"

	// Audience and content.
	CodeInappropriateContent Code = "INAPPROPRIATE_CONTENT"
	CodeScaryContent         Code = "SCARY_CONTENT"
	CodeAudienceMismatch     Code = "AUDIENCE_MISMATCH"
	CodeTextInImage          Code = "TEXT_IN_IMAGE"
	CodeWatermarkArtifact    Code = "WATERMARK_ARTIFACT"

	// Style and subject.
	CodeStyleMismatch   Code = "STYLE_MISMATCH"
	CodeSubjectMismatch Code = "SUBJECT_MISMATCH"

	// Synthetic codes produced by the analyzer adapter itself.
	CodeServiceError       Code = "SERVICE_ERROR"
	CodeAnalysisIncomplete Code = "ANALYSIS_INCOMPLETE"
)

// Definition is the static description of one issue code.
type Definition struct {
	Code           Code
	Severity       Severity
	Category       Category
	AutoRepairable bool
	Description    string
}
