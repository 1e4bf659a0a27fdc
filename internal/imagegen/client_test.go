package imagegen

import "testing"

func TestProviderParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  ProviderParams
		wantErr bool
	}{
		{
			name:   "valid openai",
			params: ProviderParams{Provider: ProviderOpenAI, OpenAI: &OpenAIParams{Model: "gpt-image-1"}},
		},
		{
			name:   "valid stability",
			params: ProviderParams{Provider: ProviderStability, Stability: &StabilityParams{Engine: "sd3"}},
		},
		{
			name:    "openai missing params",
			params:  ProviderParams{Provider: ProviderOpenAI},
			wantErr: true,
		},
		{
			name:    "openai missing model",
			params:  ProviderParams{Provider: ProviderOpenAI, OpenAI: &OpenAIParams{}},
			wantErr: true,
		},
		{
			name: "mixed variants",
			params: ProviderParams{
				Provider:  ProviderOpenAI,
				OpenAI:    &OpenAIParams{Model: "gpt-image-1"},
				Stability: &StabilityParams{Engine: "sd3"},
			},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			params:  ProviderParams{Provider: Provider("midjourney")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
