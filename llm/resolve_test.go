package llm

import (
	"errors"
	"testing"
)

func TestResolveModel(t *testing.T) {
	tests := []struct {
		provider ProviderType
		name     string
		want     string
	}{
		{ProviderOpenAI, "gpt-4o", ModelOpenAIGPT4o},
		{ProviderOpenAI, "gpt-4.1", ModelOpenAIGPT41},
		{ProviderOpenAI, "o4", ModelOpenAIO4Mini},
		{ProviderOpenAI, "", ProviderOpenAI.DefaultModel()},
		{ProviderAnthropic, "claude-3-5-h", ModelAnthropicClaudeHaiku35},
		{ProviderAnthropic, "claude-opus", ModelAnthropicClaudeOpus4},
		{ProviderGemini, "gemini-2.5-f", ModelGeminiFlash25},
		{ProviderBedrock, "anthropic.claude-3-7", ModelBedrockClaudeSonnet37},
		{ProviderBedrock, "us.anthropic.claude-3-5-haiku", crossRegionModelID(ModelBedrockClaudeHaiku35)},
	}

	for _, tt := range tests {
		got, err := ResolveModel(tt.provider, tt.name)
		if err != nil {
			t.Errorf("ResolveModel(%s, %q) error = %v", tt.provider, tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveModel(%s, %q) = %q, want %q", tt.provider, tt.name, got, tt.want)
		}
	}
}

func TestResolveModelErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider ProviderType
		model    string
		sentinel error
	}{
		{"ambiguous prefix", ProviderAnthropic, "claude-3", ErrConfig},
		{"unknown model", ProviderOpenAI, "davinci", ErrConfig},
		{"cross-provider id", ProviderGemini, ModelOpenAIGPT4o, ErrConfig},
		{"unknown provider", ProviderType("mistral"), "mistral-large", ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveModel(tt.provider, tt.model)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v, got %v", tt.sentinel, err)
			}
		})
	}
}
