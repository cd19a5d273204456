// OpenAI Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for OpenAI Chat Completions API
// - Reasoning-model parameter differences

package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

const openAICharsPerToken = 4.0

// openAIClient is the subset of *openai.Client the provider uses.
type openAIClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

func newOpenAIClient(apiKey string) openAIClient {
	return openai.NewClient(apiKey)
}

// OpenAIProvider implements the Provider interface for OpenAI.
type OpenAIProvider struct {
	adapterBase
	client    openAIClient
	newClient func(apiKey string) openAIClient
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg Config, opts ...Option) *OpenAIProvider {
	model := cfg.Model
	if model == "" {
		model = ProviderOpenAI.DefaultModel()
	}
	return &OpenAIProvider{
		adapterBase: newAdapterBase(ProviderOpenAI.String(), model, openAICharsPerToken, opts),
		newClient:   newOpenAIClient,
	}
}

// Initialize validates the API key, creates the client and probes it by
// listing models, which authenticates without spending tokens.
func (p *OpenAIProvider) Initialize(ctx context.Context, creds Credentials) error {
	if err := checkOpenAICredentials(creds); err != nil {
		return err
	}

	p.initialized = false
	p.client = nil

	client := p.newClient(creds.APIKey)
	p.logger.Debug("probing provider", "model", p.model)

	if _, err := client.ListModels(ctx); err != nil {
		p.logger.Debug("probe failed", "error", err)
		return classifyOpenAIError(phaseProbe, err)
	}

	p.client = client
	p.initialized = true
	p.logger.Debug("provider initialized", "model", p.model)
	return nil
}

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (ChatResult, error) {
	if err := p.requireInitialized(); err != nil {
		return ChatResult{}, err
	}

	model := opts.model(p.model)
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: convertToOpenAIMessages(messages),
	}
	// Reasoning models reject max_tokens and any temperature but the default.
	if isReasoningModel(model) {
		req.MaxCompletionTokens = opts.maxTokens()
	} else {
		req.MaxTokens = opts.maxTokens()
		req.Temperature = float32(opts.temperature())
	}

	p.logger.Debug("chat request", "model", model, "messages", len(messages))

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return ChatResult{}, classifyOpenAIError(phaseCall, err)
	}
	if len(resp.Choices) == 0 {
		return ChatResult{}, parseError(p.name, "OpenAI response contained no choices", nil)
	}

	return ChatResult{
		Success: true,
		Reply:   resp.Choices[0].Message.Content,
		Usage:   newUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
	}, nil
}

// ProcessMemo extracts a structured memo from content.
func (p *OpenAIProvider) ProcessMemo(ctx context.Context, content string, opts ChatOptions) (MemoResult, error) {
	return processMemo(ctx, &p.adapterBase, p.Chat, content, opts)
}

// AvailableModels returns the supported OpenAI models.
func (p *OpenAIProvider) AvailableModels() []string {
	return clone(openAIModels)
}

// ProviderInfo returns the catalog entry.
func (p *OpenAIProvider) ProviderInfo() ProviderDescriptor {
	return openAIDescriptor()
}

// ValidateConfig checks the API key and, if set, the model.
func (p *OpenAIProvider) ValidateConfig(cfg Config) bool {
	return validateInstanceConfig(checkOpenAICredentials, cfg, openAIModels, nil)
}

// isReasoningModel reports whether model is an o-series reasoning model.
func isReasoningModel(model string) bool {
	return len(model) > 1 && model[0] == 'o' && model[1] >= '0' && model[1] <= '9'
}

// convertToOpenAIMessages converts our ChatMessage to openai.ChatCompletionMessage
func convertToOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		role := msg.Role
		if role != openai.ChatMessageRoleSystem {
			role = normalizeRole(role)
		}
		result[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		}
	}
	return result
}

func classifyOpenAIError(ph phase, err error) *Error {
	category := CategoryUnknown
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		category = classifyStatus(apiErr.HTTPStatusCode)
	case errors.As(err, &reqErr):
		category = classifyStatus(reqErr.HTTPStatusCode)
	}
	return vendorError(ProviderOpenAI.String(), ph, category, httpVendorMessage("OpenAI", ph, category), err)
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
