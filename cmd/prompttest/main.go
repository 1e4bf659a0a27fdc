package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"colorbook-backend/internal/prompts"
)

// Prints the exact prompt pair and QA rubric the pipeline would use for a
// given page request, so prompt changes can be reviewed without burning
// generation credits.

func main() {
	subject := flag.String("subject", "", "Page subject (required)")
	styleID := flag.String("style", "classic", "Style id")
	complexityID := flag.String("complexity", "simple", "Complexity id")
	audienceID := flag.String("audience", "kids", "Audience id")
	repairs := flag.String("repairs", "", "Semicolon-separated repair instructions to append")
	boosts := flag.String("negative-boosts", "", "Semicolon-separated extra negative terms")
	showRubric := flag.Bool("rubric", false, "Also print the vision QA rubric")
	asJSON := flag.Bool("json", false, "Emit JSON instead of plain text")
	outPath := flag.String("out", "", "Path to write the output (optional)")
	flag.Parse()

	if strings.TrimSpace(*subject) == "" {
		exitErr("subject is required")
	}
	if !prompts.KnownStyle(*styleID) {
		exitErr(fmt.Sprintf("unknown style: %s", *styleID))
	}
	if !prompts.KnownComplexity(*complexityID) {
		exitErr(fmt.Sprintf("unknown complexity: %s", *complexityID))
	}
	if !prompts.KnownAudience(*audienceID) {
		exitErr(fmt.Sprintf("unknown audience: %s", *audienceID))
	}

	built := prompts.Build(prompts.BuildInput{
		Subject:            *subject,
		StyleID:            *styleID,
		ComplexityID:       *complexityID,
		AudienceID:         *audienceID,
		RepairInstructions: splitList(*repairs),
		NegativeBoosts:     splitList(*boosts),
	})

	rubric := ""
	if *showRubric {
		rubric = prompts.BuildRubric(prompts.RubricInput{
			StyleID:        *styleID,
			ComplexityID:   *complexityID,
			AudienceID:     *audienceID,
			OriginalPrompt: built.Positive,
		})
	}

	var output []byte
	if *asJSON {
		payload := map[string]string{
			"positivePrompt": built.Positive,
			"negativePrompt": built.Negative,
		}
		if rubric != "" {
			payload["rubric"] = rubric
		}
		encoded, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			exitErr(fmt.Sprintf("encode json: %v", err))
		}
		output = encoded
	} else {
		var b strings.Builder
		b.WriteString("=== Positive prompt ===\n")
		b.WriteString(built.Positive)
		b.WriteString("\n\n=== Negative prompt ===\n")
		b.WriteString(built.Negative)
		if rubric != "" {
			b.WriteString("\n\n=== QA rubric ===\n")
			b.WriteString(rubric)
		}
		output = []byte(b.String())
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, output, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(output); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(output) == 0 || output[len(output)-1] != '\n' {
		_, _ = os.Stdout.Write([]byte("\n"))
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
