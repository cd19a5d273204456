// Anthropic Provider implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - HTTP status classification of SDK errors

package llm

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicMessages is the slice of the SDK's MessageService the provider uses.
type anthropicMessages interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

func newAnthropicClient(apiKey string) anthropicMessages {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return &client.Messages
}

// AnthropicProvider implements the Provider interface for Anthropic Claude.
type AnthropicProvider struct {
	adapterBase
	messages  anthropicMessages
	newClient func(apiKey string) anthropicMessages
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg Config, opts ...Option) *AnthropicProvider {
	model := cfg.Model
	if model == "" {
		model = ProviderAnthropic.DefaultModel()
	}
	return &AnthropicProvider{
		adapterBase: newAdapterBase(ProviderAnthropic.String(), model, claudeCharsPerToken, opts),
		newClient:   newAnthropicClient,
	}
}

// Initialize validates the API key, creates the client and sends a probe.
func (p *AnthropicProvider) Initialize(ctx context.Context, creds Credentials) error {
	if err := checkAnthropicCredentials(creds); err != nil {
		return err
	}

	p.initialized = false
	p.messages = nil

	client := p.newClient(creds.APIKey)
	p.logger.Debug("probing provider", "model", p.model)

	_, err := client.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: probeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(probePrompt)),
		},
	})
	if err != nil {
		p.logger.Debug("probe failed", "error", err)
		return classifyAnthropicError(phaseProbe, err)
	}

	p.messages = client
	p.initialized = true
	p.logger.Debug("provider initialized", "model", p.model)
	return nil
}

// Chat sends a chat completion request.
func (p *AnthropicProvider) Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (ChatResult, error) {
	if err := p.requireInitialized(); err != nil {
		return ChatResult{}, err
	}

	system, conversation := splitSystem(messages)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(opts.model(p.model)),
		MaxTokens:   int64(opts.maxTokens()),
		Messages:    convertToAnthropicMessages(conversation),
		Temperature: anthropic.Float(opts.temperature()),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	p.logger.Debug("chat request", "model", params.Model, "messages", len(conversation))

	message, err := p.messages.New(ctx, params)
	if err != nil {
		return ChatResult{}, classifyAnthropicError(phaseCall, err)
	}

	content := ""
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += variant.Text
		}
	}

	return ChatResult{
		Success: true,
		Reply:   content,
		Usage:   newUsage(int(message.Usage.InputTokens), int(message.Usage.OutputTokens)),
	}, nil
}

// ProcessMemo extracts a structured memo from content.
func (p *AnthropicProvider) ProcessMemo(ctx context.Context, content string, opts ChatOptions) (MemoResult, error) {
	return processMemo(ctx, &p.adapterBase, p.Chat, content, opts)
}

// AvailableModels returns the supported Claude models.
func (p *AnthropicProvider) AvailableModels() []string {
	return clone(anthropicModels)
}

// ProviderInfo returns the catalog entry.
func (p *AnthropicProvider) ProviderInfo() ProviderDescriptor {
	return anthropicDescriptor()
}

// ValidateConfig checks the API key and, if set, the model.
func (p *AnthropicProvider) ValidateConfig(cfg Config) bool {
	return validateInstanceConfig(checkAnthropicCredentials, cfg, anthropicModels, nil)
}

// convertToAnthropicMessages converts our ChatMessage to Anthropic format.
// System messages must already be split out.
func convertToAnthropicMessages(messages []ChatMessage) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		if normalizeRole(msg.Role) == RoleUser {
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		} else {
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return result
}

func classifyAnthropicError(ph phase, err error) *Error {
	category := CategoryUnknown
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		category = classifyStatus(apiErr.StatusCode)
	}
	return vendorError(ProviderAnthropic.String(), ph, category, httpVendorMessage("Anthropic", ph, category), err)
}

// Verify AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)
