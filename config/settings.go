// Package config provides application settings loaded from environment
// variables, optionally overridden by a YAML file.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific credential and model lookup

package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/richinex/llmbridge/llm"
)

// Settings holds all application configuration.
type Settings struct {
	LLM       LLMConfig
	Providers map[llm.ProviderType]llm.Config
	Server    ServerConfig
	Storage   StorageConfig
}

// LLMConfig holds the active provider and default chat options.
type LLMConfig struct {
	Provider    llm.ProviderType
	Model       string
	MaxTokens   int
	Temperature float64
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	Path string
}

// providerInfo holds the environment variables for a specific LLM provider.
type providerInfo struct {
	modelEnv  string
	apiKeyEnv string
}

// Supported providers and their configuration. Bedrock credentials come
// from the standard AWS variables instead of a single API key.
var providers = map[llm.ProviderType]providerInfo{
	llm.ProviderOpenAI:    {"OPENAI_MODEL", "OPENAI_API_KEY"},
	llm.ProviderAnthropic: {"ANTHROPIC_MODEL", "ANTHROPIC_API_KEY"},
	llm.ProviderGemini:    {"GEMINI_MODEL", "GEMINI_API_KEY"},
	llm.ProviderBedrock:   {"BEDROCK_MODEL", ""},
}

// New creates settings for the specified provider, loading values from environment variables.
// Returns an error if the provider is unknown or environment variables contain invalid values.
// Missing credentials are not an error here; they surface when a provider is initialized.
func New(provider string) (Settings, error) {
	pt, err := normalizeProvider(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvInt("LLM_MAX_TOKENS", llm.DefaultMaxTokens)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", llm.DefaultTemperature)
	if err != nil {
		return Settings{}, err
	}

	readTimeout, err := getEnvDuration("LLMBRIDGE_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return Settings{}, err
	}

	// Memo extraction on long pages can take a while.
	writeTimeout, err := getEnvDuration("LLMBRIDGE_WRITE_TIMEOUT", 120*time.Second)
	if err != nil {
		return Settings{}, err
	}

	configs := make(map[llm.ProviderType]llm.Config, len(providers))
	for p := range providers {
		cfg, err := providerConfigFromEnv(p)
		if err != nil {
			return Settings{}, err
		}
		configs[p] = cfg
	}

	return Settings{
		LLM: LLMConfig{
			Provider:    pt,
			Model:       configs[pt].Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Providers: configs,
		Server: ServerConfig{
			Addr:            getEnv("LLMBRIDGE_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Path: getEnv("LLMBRIDGE_DB", "llmbridge.db"),
		},
	}, nil
}

// ProviderConfig returns the configuration for the active provider.
func (s Settings) ProviderConfig() llm.Config {
	return s.Providers[s.LLM.Provider]
}

// ChatOptions returns the default per-call options.
func (s Settings) ChatOptions() llm.ChatOptions {
	return llm.ChatOptions{
		Model:       s.LLM.Model,
		MaxTokens:   s.LLM.MaxTokens,
		Temperature: llm.Float(s.LLM.Temperature),
	}
}

// Configured returns the providers that have any credentials set, sorted by name.
func (s Settings) Configured() []llm.ProviderType {
	var result []llm.ProviderType
	for pt, cfg := range s.Providers {
		if !cfg.Credentials.IsZero() {
			result = append(result, pt)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// normalizeProvider converts provider names and aliases to a ProviderType.
// An empty name selects LLM_PROVIDER, then openai.
func normalizeProvider(provider string) (llm.ProviderType, error) {
	if provider == "" {
		provider = getEnv("LLM_PROVIDER", llm.ProviderOpenAI.String())
	}
	pt, err := llm.ParseProviderType(provider)
	if err != nil {
		return "", fmt.Errorf("unknown provider: %q", provider)
	}
	return pt, nil
}

// providerConfigFromEnv reads one provider's credentials and model.
func providerConfigFromEnv(pt llm.ProviderType) (llm.Config, error) {
	info := providers[pt]
	cfg := llm.Config{Model: expandModel(pt, getEnv(info.modelEnv, pt.DefaultModel()))}

	if pt != llm.ProviderBedrock {
		cfg.APIKey = os.Getenv(info.apiKeyEnv)
		return cfg, nil
	}

	crossRegion, err := getEnvBool("BEDROCK_CROSS_REGION", false)
	if err != nil {
		return llm.Config{}, err
	}
	cfg.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	cfg.SessionToken = os.Getenv("AWS_SESSION_TOKEN")
	cfg.Region = os.Getenv("AWS_REGION")
	cfg.UseCrossRegionInference = crossRegion
	return cfg, nil
}

// expandModel resolves a model shorthand such as "claude-3-5-h" to its
// catalog id. Names that do not resolve are kept so the adapter reports them.
func expandModel(pt llm.ProviderType, model string) string {
	if resolved, err := llm.ResolveModel(pt, model); err == nil {
		return resolved
	}
	return model
}

// CredentialsFor returns the credentials for a provider from environment variables.
func CredentialsFor(provider string) (llm.Credentials, error) {
	pt, err := normalizeProvider(provider)
	if err != nil {
		return llm.Credentials{}, err
	}

	cfg, err := providerConfigFromEnv(pt)
	if err != nil {
		return llm.Credentials{}, err
	}
	if cfg.Credentials.IsZero() {
		return llm.Credentials{}, fmt.Errorf("%s environment variable not set", pt.EnvVar())
	}
	return cfg.Credentials, nil
}

// SupportedProviders returns the sorted list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for pt := range providers {
		result = append(result, pt.String())
	}
	sort.Strings(result)
	return result
}

// Environment variable helpers with proper error handling

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return d, nil
}
