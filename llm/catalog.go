package llm

import "strings"

// ProviderDescriptor is the static catalog entry for one provider.
type ProviderDescriptor struct {
	ID                     ProviderType `json:"id"`
	Name                   string       `json:"name"`
	Description            string       `json:"description"`
	RequiresAPIKey         bool         `json:"requiresApiKey"`
	RequiresAWSCredentials bool         `json:"requiresAwsCredentials,omitempty"`
	SupportsVision         bool         `json:"supportsVision,omitempty"`
	SupportsCrossRegion    bool         `json:"supportsCrossRegion,omitempty"`
	Models                 []string     `json:"models"`
	CrossRegionModels      []string     `json:"crossRegionModels,omitempty"`
	Regions                []string     `json:"regions,omitempty"`
}

// Model identifier constants for all supported providers.

// Anthropic model identifiers
const (
	ModelAnthropicClaudeOpus4    = "claude-opus-4-20250514"
	ModelAnthropicClaudeSonnet4  = "claude-sonnet-4-20250514"
	ModelAnthropicClaudeSonnet37 = "claude-3-7-sonnet-20250219"
	ModelAnthropicClaudeSonnet35 = "claude-3-5-sonnet-20241022"
	ModelAnthropicClaudeHaiku35  = "claude-3-5-haiku-20241022"
)

// OpenAI model identifiers
const (
	ModelOpenAIO4Mini    = "o4-mini"
	ModelOpenAIGPT4o     = "gpt-4o"
	ModelOpenAIGPT41     = "gpt-4.1"
	ModelOpenAIGPT41Mini = "gpt-4.1-mini"
)

// Bedrock model identifiers (Claude via AWS)
const (
	ModelBedrockClaudeOpus4    = "anthropic.claude-opus-4-20250514-v1:0"
	ModelBedrockClaudeSonnet4  = "anthropic.claude-sonnet-4-20250514-v1:0"
	ModelBedrockClaudeSonnet37 = "anthropic.claude-3-7-sonnet-20250219-v1:0"
	ModelBedrockClaudeSonnet35 = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	ModelBedrockClaudeHaiku35  = "anthropic.claude-3-5-haiku-20241022-v1:0"
)

// Gemini model identifiers
const (
	ModelGeminiPro25     = "gemini-2.5-pro"
	ModelGeminiFlash25   = "gemini-2.5-flash"
	ModelGeminiPro15     = "gemini-1.5-pro"
	ModelGeminiFlash15   = "gemini-1.5-flash"
	ModelGeminiPro       = "gemini-pro"
	ModelGeminiProVision = "gemini-pro-vision"
)

var (
	anthropicModels = []string{
		ModelAnthropicClaudeOpus4,
		ModelAnthropicClaudeSonnet4,
		ModelAnthropicClaudeSonnet37,
		ModelAnthropicClaudeSonnet35,
		ModelAnthropicClaudeHaiku35,
	}
	openAIModels = []string{
		ModelOpenAIO4Mini,
		ModelOpenAIGPT4o,
		ModelOpenAIGPT41,
		ModelOpenAIGPT41Mini,
	}
	bedrockModels = []string{
		ModelBedrockClaudeOpus4,
		ModelBedrockClaudeSonnet4,
		ModelBedrockClaudeSonnet37,
		ModelBedrockClaudeSonnet35,
		ModelBedrockClaudeHaiku35,
	}
	geminiModels = []string{
		ModelGeminiPro25,
		ModelGeminiFlash25,
		ModelGeminiPro15,
		ModelGeminiFlash15,
		ModelGeminiPro,
		ModelGeminiProVision,
	}
	bedrockRegions = []string{
		"us-east-1",
		"us-west-2",
		"eu-west-1",
		"eu-central-1",
		"ap-northeast-1",
		"ap-southeast-1",
		"ap-southeast-2",
	}
)

// DefaultBedrockRegion is used when neither config nor credentials name a region.
const DefaultBedrockRegion = "us-east-1"

// crossRegionPrefix routes Bedrock requests through the US inference profile.
const crossRegionPrefix = "us."

// crossRegionModelID returns the inference-profile id for a Bedrock model id.
func crossRegionModelID(model string) string {
	if strings.HasPrefix(model, crossRegionPrefix) {
		return model
	}
	return crossRegionPrefix + model
}

// crossRegionModelIDs derives the cross-region list from the base list so the
// two can never drift apart.
func crossRegionModelIDs(models []string) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = crossRegionModelID(m)
	}
	return out
}

func anthropicDescriptor() ProviderDescriptor {
	return ProviderDescriptor{
		ID:             ProviderAnthropic,
		Name:           "Anthropic Claude",
		Description:    "Claude AI by Anthropic",
		RequiresAPIKey: true,
		Models:         clone(anthropicModels),
	}
}

func openAIDescriptor() ProviderDescriptor {
	return ProviderDescriptor{
		ID:             ProviderOpenAI,
		Name:           "OpenAI",
		Description:    "GPT models by OpenAI",
		RequiresAPIKey: true,
		Models:         clone(openAIModels),
	}
}

func bedrockDescriptor() ProviderDescriptor {
	return ProviderDescriptor{
		ID:                     ProviderBedrock,
		Name:                   "AWS Bedrock",
		Description:            "Claude models via AWS Bedrock",
		RequiresAPIKey:         true,
		RequiresAWSCredentials: true,
		SupportsCrossRegion:    true,
		Models:                 clone(bedrockModels),
		CrossRegionModels:      crossRegionModelIDs(bedrockModels),
		Regions:                clone(bedrockRegions),
	}
}

func geminiDescriptor() ProviderDescriptor {
	return ProviderDescriptor{
		ID:             ProviderGemini,
		Name:           "Google Gemini",
		Description:    "Gemini AI models by Google",
		RequiresAPIKey: true,
		SupportsVision: true,
		Models:         clone(geminiModels),
	}
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
