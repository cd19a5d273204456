// Google Gemini Provider implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - Request/response format for Gemini API
// - System instruction handling via config

package llm

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

const geminiCharsPerToken = 4.0

// geminiGenerator is the subset of the SDK's Models service the provider uses.
type geminiGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func newGeminiClient(ctx context.Context, apiKey string) (geminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	adapterBase
	models    geminiGenerator
	newClient func(ctx context.Context, apiKey string) (geminiGenerator, error)
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(cfg Config, opts ...Option) *GeminiProvider {
	model := cfg.Model
	if model == "" {
		model = ProviderGemini.DefaultModel()
	}
	return &GeminiProvider{
		adapterBase: newAdapterBase(ProviderGemini.String(), model, geminiCharsPerToken, opts),
		newClient:   newGeminiClient,
	}
}

// Initialize validates the API key, creates the client and sends a probe.
func (p *GeminiProvider) Initialize(ctx context.Context, creds Credentials) error {
	if err := checkGeminiCredentials(creds); err != nil {
		return err
	}

	p.initialized = false
	p.models = nil

	models, err := p.newClient(ctx, creds.APIKey)
	if err != nil {
		return &Error{
			Kind:     KindConfig,
			Provider: p.name,
			Message:  "failed to initialize Gemini client",
			Err:      err,
		}
	}

	p.logger.Debug("probing provider", "model", p.model)
	_, err = models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(probePrompt, genai.RoleUser)},
		&genai.GenerateContentConfig{MaxOutputTokens: probeMaxTokens},
	)
	if err != nil {
		p.logger.Debug("probe failed", "error", err)
		return classifyGeminiError(phaseProbe, err)
	}

	p.models = models
	p.initialized = true
	p.logger.Debug("provider initialized", "model", p.model)
	return nil
}

// Chat sends a chat completion request.
func (p *GeminiProvider) Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (ChatResult, error) {
	if err := p.requireInitialized(); err != nil {
		return ChatResult{}, err
	}

	contents, systemInstruction := convertToGeminiMessages(messages)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.temperature())),
		MaxOutputTokens: int32(opts.maxTokens()),
	}
	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}

	model := opts.model(p.model)
	p.logger.Debug("chat request", "model", model, "messages", len(contents))

	response, err := p.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return ChatResult{}, classifyGeminiError(phaseCall, err)
	}

	content := response.Text()
	if content == "" {
		return ChatResult{}, parseError(p.name, "empty response from Gemini", nil)
	}

	var usage Usage
	if response.UsageMetadata != nil {
		usage = newUsage(
			int(response.UsageMetadata.PromptTokenCount),
			int(response.UsageMetadata.CandidatesTokenCount),
		)
	}

	return ChatResult{Success: true, Reply: content, Usage: usage}, nil
}

// ProcessMemo extracts a structured memo from content.
func (p *GeminiProvider) ProcessMemo(ctx context.Context, content string, opts ChatOptions) (MemoResult, error) {
	return processMemo(ctx, &p.adapterBase, p.Chat, content, opts)
}

// AvailableModels returns the supported Gemini models.
func (p *GeminiProvider) AvailableModels() []string {
	return clone(geminiModels)
}

// ProviderInfo returns the catalog entry.
func (p *GeminiProvider) ProviderInfo() ProviderDescriptor {
	return geminiDescriptor()
}

// ValidateConfig checks the API key and, if set, the model.
func (p *GeminiProvider) ValidateConfig(cfg Config) bool {
	return validateInstanceConfig(checkGeminiCredentials, cfg, geminiModels, nil)
}

// convertToGeminiMessages converts our ChatMessage to Gemini format.
// Extracts system messages and returns them separately.
func convertToGeminiMessages(messages []ChatMessage) ([]*genai.Content, string) {
	systemInstruction, conversation := splitSystem(messages)

	contents := make([]*genai.Content, 0, len(conversation))
	for _, msg := range conversation {
		role := genai.RoleModel
		if normalizeRole(msg.Role) == RoleUser {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	return contents, systemInstruction
}

func classifyGeminiError(ph phase, err error) *Error {
	category := CategoryUnknown
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		category = classifyStatus(apiErr.Code)
	case errors.As(err, &apiErrPtr):
		category = classifyStatus(apiErrPtr.Code)
	}
	return vendorError(ProviderGemini.String(), ph, category, httpVendorMessage("Gemini", ph, category), err)
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
