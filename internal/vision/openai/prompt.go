package openai

import (
	"encoding/json"

	"colorbook-backend/internal/prompts"
	"colorbook-backend/internal/vision"
)

const (
	systemPromptAnalysis = "You are a coloring page QA engine. Inspect the image against the checklist. Respond with JSON only. Never omit keys. Output must match the schema exactly."
	systemPromptFixJSON  = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."
)

// buildAnalysisMessages assembles the rubric text plus the image reference.
func buildAnalysisMessages(input vision.AnalyzeInput) []chatMessage {
	rubric := prompts.BuildRubric(prompts.RubricInput{
		StyleID:        input.StyleID,
		ComplexityID:   input.ComplexityID,
		AudienceID:     input.AudienceID,
		OriginalPrompt: input.OriginalPrompt,
	})

	return []chatMessage{
		{
			Role:    "system",
			Content: []contentPart{{Type: "text", Text: systemPromptAnalysis}},
		},
		{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: rubric},
				{Type: "image_url", ImageURL: &imageRef{URL: input.ImageURL}},
			},
		},
	}
}

func buildFixMessages(raw json.RawMessage) []chatMessage {
	return []chatMessage{
		{
			Role:    "system",
			Content: []contentPart{{Type: "text", Text: systemPromptFixJSON}},
		},
		{
			Role:    "user",
			Content: []contentPart{{Type: "text", Text: "Fix this into valid JSON matching the analysis schema:\n" + string(raw)}},
		},
	}
}
