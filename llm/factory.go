// LLM Provider Factory - creates and validates providers by type.
//
// Quick Start:
//
//	cfg := llm.Config{Credentials: llm.Credentials{APIKey: os.Getenv("OPENAI_API_KEY")}}
//	if err := llm.ValidateConfig(llm.ProviderOpenAI, cfg); err != nil {
//	    return err
//	}
//	provider, err := llm.CreateProvider(llm.ProviderOpenAI, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := provider.Initialize(ctx, cfg.Credentials); err != nil {
//	    return err
//	}
//	result, err := provider.Chat(ctx, []llm.ChatMessage{llm.UserMessage("Hello")}, llm.ChatOptions{})

package llm

import (
	"fmt"
	"strings"
)

// ProviderType identifies a supported LLM provider.
type ProviderType string

const (
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic ProviderType = "anthropic"
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI ProviderType = "openai"
	// ProviderBedrock is AWS Bedrock fronting Claude models.
	ProviderBedrock ProviderType = "bedrock"
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini ProviderType = "gemini"
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	return string(p)
}

// EnvVar returns the environment variable holding this provider's primary
// secret. Bedrock also reads AWS_SECRET_ACCESS_KEY and friends.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderBedrock:
		return "AWS_ACCESS_KEY_ID"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return ModelOpenAIGPT4o
	case ProviderAnthropic:
		return ModelAnthropicClaudeSonnet4
	case ProviderBedrock:
		return ModelBedrockClaudeSonnet4
	case ProviderGemini:
		return ModelGeminiFlash25
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "bedrock", "aws":
		return ProviderBedrock, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return "", unknownProviderError(s)
	}
}

func unknownProviderError(s string) *Error {
	return &Error{
		Kind:    KindUnknownProvider,
		Message: fmt.Sprintf("Provider type '%s' not implemented yet", s),
	}
}

// CreateProvider constructs the adapter for providerType. cfg is passed to the
// adapter unmodified; no network call is made and no validation runs.
func CreateProvider(providerType ProviderType, cfg Config, opts ...Option) (Provider, error) {
	switch providerType {
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg, opts...), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg, opts...), nil
	case ProviderBedrock:
		return NewBedrockProvider(cfg, opts...), nil
	case ProviderGemini:
		return NewGeminiProvider(cfg, opts...), nil
	default:
		return nil, unknownProviderError(string(providerType))
	}
}

// AvailableProviders returns the static provider catalog in a fixed order.
// Each call returns fresh slices.
func AvailableProviders() []ProviderDescriptor {
	return []ProviderDescriptor{
		anthropicDescriptor(),
		openAIDescriptor(),
		bedrockDescriptor(),
		geminiDescriptor(),
	}
}

// ValidateConfig runs the offline credential rules for providerType.
// It returns a *Error of kind config (missing field) or auth (malformed
// credential), or unknown_provider.
func ValidateConfig(providerType ProviderType, cfg Config) error {
	rule, ok := credentialRules[providerType]
	if !ok {
		return &Error{
			Kind:    KindUnknownProvider,
			Message: fmt.Sprintf("Unknown provider type: %s", providerType),
		}
	}
	return rule(cfg.Credentials)
}
