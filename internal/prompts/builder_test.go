package prompts

import (
	"strings"
	"testing"
)

func TestBuildIncludesSubjectAndSpecs(t *testing.T) {
	built := Build(BuildInput{
		Subject:      "a friendly dragon",
		StyleID:      "bold-outline",
		ComplexityID: "very-simple",
		AudienceID:   "toddler",
	})
	if !strings.Contains(built.Positive, "a friendly dragon") {
		t.Fatalf("positive prompt missing subject: %q", built.Positive)
	}
	if !strings.Contains(built.Positive, "Bold Outline") {
		t.Fatalf("positive prompt missing style name: %q", built.Positive)
	}
	if !strings.Contains(built.Positive, "Very Simple") {
		t.Fatalf("positive prompt missing complexity name: %q", built.Positive)
	}
	if !strings.Contains(built.Negative, "color") {
		t.Fatalf("negative prompt missing base exclusions: %q", built.Negative)
	}
	if !strings.Contains(built.Negative, "scary imagery") {
		t.Fatalf("negative prompt missing audience exclusions: %q", built.Negative)
	}
}

func TestBuildMergesRepairInstructions(t *testing.T) {
	built := Build(BuildInput{
		Subject:            "a sailboat",
		StyleID:            "classic",
		ComplexityID:       "simple",
		AudienceID:         "kids",
		RepairInstructions: []string{"Close all outline gaps", "Remove all gray shading"},
		NegativeBoosts:     []string{"color", "colour wash"},
	})
	if !strings.Contains(built.Positive, "Corrections from prior attempt:") {
		t.Fatalf("expected corrections block, got %q", built.Positive)
	}
	if !strings.Contains(built.Positive, "Close all outline gaps") {
		t.Fatalf("missing repair instruction: %q", built.Positive)
	}
	if !strings.Contains(built.Negative, "colour wash") {
		t.Fatalf("missing boosted negative term: %q", built.Negative)
	}
	if strings.Count(built.Negative, "color,") > 1 {
		t.Fatalf("negative terms not deduplicated: %q", built.Negative)
	}
}

func TestSpecLookupDefaults(t *testing.T) {
	if got := StyleByID("no-such-style").ID; got != "classic" {
		t.Fatalf("unknown style should default to classic, got %s", got)
	}
	if got := ComplexityByID("").ID; got != "simple" {
		t.Fatalf("empty complexity should default to simple, got %s", got)
	}
	if got := AudienceByID("???").ID; got != "kids" {
		t.Fatalf("unknown audience should default to kids, got %s", got)
	}
	if got := ComplexityByID("Very Simple").ID; got != "very-simple" {
		t.Fatalf("display-name lookup should normalize, got %s", got)
	}
}

func TestRubricContainsContractAndSchema(t *testing.T) {
	rubric := BuildRubric(RubricInput{
		StyleID:        "fine-line",
		ComplexityID:   "intricate",
		AudienceID:     "adults",
		OriginalPrompt: "mandala of leaves",
	})
	for _, want := range []string{"dimensionScores", "COLOR_DETECTED", "rest area", "mandala of leaves"} {
		if !strings.Contains(rubric, want) {
			t.Fatalf("rubric missing %q", want)
		}
	}
}

func TestComplexityDowngradeChain(t *testing.T) {
	tier := ComplexityByID("intricate")
	seen := map[string]bool{}
	for tier.DowngradeID != "" {
		if seen[tier.ID] {
			t.Fatalf("downgrade cycle at %s", tier.ID)
		}
		seen[tier.ID] = true
		tier = ComplexityByID(tier.DowngradeID)
	}
	if tier.ID != "very-simple" {
		t.Fatalf("downgrade chain should bottom out at very-simple, got %s", tier.ID)
	}
}
