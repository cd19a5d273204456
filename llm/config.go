package llm

import (
	"regexp"
	"slices"
	"strings"
)

// Credentials carries the secrets a provider needs. Only the fields relevant
// to the target vendor are read. Values are kept in memory only.
type Credentials struct {
	APIKey          string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	AccessKeyID     string `json:"accessKeyId,omitempty" yaml:"accessKeyId,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty" yaml:"secretAccessKey,omitempty"`
	SessionToken    string `json:"sessionToken,omitempty" yaml:"sessionToken,omitempty"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
}

// IsZero reports whether no credential field is set.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// Config is the caller-supplied configuration for one provider instance.
type Config struct {
	Credentials `yaml:",inline"`

	Model                   string `json:"model,omitempty" yaml:"model,omitempty"`
	UseCrossRegionInference bool   `json:"useCrossRegionInference,omitempty" yaml:"useCrossRegionInference,omitempty"`
}

// IsZero reports whether cfg carries no settings at all.
func (c Config) IsZero() bool {
	return c == Config{}
}

// bedrockAccessKeyPattern accepts long-term (AKIA) and temporary (ASIA) keys
// with exactly 16 upper-case alphanumerics after the prefix. Keys outside this
// shape are rejected even if AWS would accept them.
var bedrockAccessKeyPattern = regexp.MustCompile(`^(AKIA|ASIA)[0-9A-Z]{16}$`)

// credentialRule checks the offline shape of a provider's credentials.
// The factory and the adapters' Initialize share these so both gates agree.
// A missing field is a config error; a present but malformed one is an auth
// error, at either gate.
type credentialRule func(Credentials) error

var credentialRules = map[ProviderType]credentialRule{
	ProviderAnthropic: checkAnthropicCredentials,
	ProviderOpenAI:    checkOpenAICredentials,
	ProviderBedrock:   checkBedrockCredentials,
	ProviderGemini:    checkGeminiCredentials,
}

func checkAnthropicCredentials(c Credentials) error {
	if c.APIKey == "" {
		return configError("anthropic", "apiKey", "Anthropic API key is required")
	}
	return nil
}

func checkOpenAICredentials(c Credentials) error {
	if c.APIKey == "" {
		return configError("openai", "apiKey", "OpenAI API key is required")
	}
	if !strings.HasPrefix(c.APIKey, "sk-") {
		return authError("openai", "apiKey", "Invalid OpenAI API key format")
	}
	return nil
}

func checkGeminiCredentials(c Credentials) error {
	if c.APIKey == "" {
		return configError("gemini", "apiKey", "Google AI API key is required for Gemini")
	}
	if !strings.HasPrefix(c.APIKey, "AIza") {
		return authError("gemini", "apiKey", "Invalid Google AI API key format for Gemini")
	}
	return nil
}

func checkBedrockCredentials(c Credentials) error {
	if c.AccessKeyID == "" {
		return configError("bedrock", "accessKeyId", "AWS Access Key ID is required for Bedrock")
	}
	if c.SecretAccessKey == "" {
		return configError("bedrock", "secretAccessKey", "AWS Secret Access Key is required for Bedrock")
	}
	if !bedrockAccessKeyPattern.MatchString(c.AccessKeyID) {
		return authError("bedrock", "accessKeyId",
			"Invalid AWS Access Key format for Bedrock. Should start with AKIA or ASIA followed by 16 characters")
	}
	return nil
}

// validateInstanceConfig is the shared body of every adapter's ValidateConfig.
// regions is nil for providers that are not region scoped.
func validateInstanceConfig(rule credentialRule, cfg Config, models, regions []string) bool {
	if cfg.IsZero() {
		return false
	}
	if rule(cfg.Credentials) != nil {
		return false
	}
	if cfg.Region != "" && regions != nil && !slices.Contains(regions, cfg.Region) {
		return false
	}
	if cfg.Model != "" && !slices.Contains(models, cfg.Model) {
		return false
	}
	return true
}
