package repair

import (
	"testing"

	"colorbook-backend/internal/taxonomy"
)

func TestRegistryCoversRepairableCodes(t *testing.T) {
	registry := NewRegistry()
	for _, def := range taxonomy.All() {
		if !def.AutoRepairable {
			continue
		}
		if _, ok := registry.strategies[def.Code]; !ok {
			t.Fatalf("no strategy registered for repairable code %s", def.Code)
		}
	}
}

func TestStrategyShapes(t *testing.T) {
	registry := NewRegistry()
	ctx := Context{StyleID: "classic", ComplexityID: "moderate", AudienceID: "kids", OriginalPrompt: "a fox"}
	for code, strategy := range registry.strategies {
		if strategy.Priority < 1 || strategy.Priority > 5 {
			t.Fatalf("%s priority %d out of range", code, strategy.Priority)
		}
		if strategy.BaseConfidence <= 0 || strategy.BaseConfidence > 100 {
			t.Fatalf("%s base confidence %f out of range", code, strategy.BaseConfidence)
		}
		if strategy.MaxAttempts <= 0 {
			t.Fatalf("%s has no per-code attempt budget", code)
		}
		if strategy.Override == nil {
			t.Fatalf("%s has no prompt override generator", code)
		}
		if strategy.Override(ctx) == "" {
			t.Fatalf("%s produced an empty override", code)
		}
	}
}

func TestCriticalCodesHaveTopPriority(t *testing.T) {
	registry := NewRegistry()
	for _, code := range []taxonomy.Code{taxonomy.CodeColorDetected, taxonomy.CodeOpenRegions, taxonomy.CodeScaryContent} {
		if got := registry.Lookup(code).Priority; got != 1 {
			t.Fatalf("%s should have priority 1, got %d", code, got)
		}
	}
}

func TestLookupFallbackForUnknownCode(t *testing.T) {
	registry := NewRegistry()
	strategy := registry.Lookup(taxonomy.Code("NEWLY_MINTED"))
	if strategy.Override == nil {
		t.Fatalf("fallback strategy must generate an override")
	}
	ctx := Context{OriginalPrompt: "a fox"}
	if strategy.Override(ctx) == "" {
		t.Fatalf("fallback override should not be empty")
	}
}

func TestSwitchStyleNoOpWhenAlreadyThere(t *testing.T) {
	suggest := switchStyle("bold-outline", "test")
	if got := suggest(Context{StyleID: "bold-outline"}); got != nil {
		t.Fatalf("style switch to current style should be nil, got %+v", got)
	}
	if got := suggest(Context{StyleID: "classic"}); got == nil || got.StyleID != "bold-outline" {
		t.Fatalf("expected bold-outline suggestion, got %+v", got)
	}
}

func TestDowngradeComplexityStopsAtFloor(t *testing.T) {
	suggest := downgradeComplexity("test")
	if got := suggest(Context{ComplexityID: "very-simple"}); got != nil {
		t.Fatalf("lowest tier should not downgrade, got %+v", got)
	}
	if got := suggest(Context{ComplexityID: "detailed"}); got == nil || got.ComplexityID != "moderate" {
		t.Fatalf("expected downgrade to moderate, got %+v", got)
	}
}
