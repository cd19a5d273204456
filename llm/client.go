// LLMClient - Simple wrapper around providers.

package llm

import (
	"context"
)

// Client wraps a Provider with default options and a simple interface.
type Client struct {
	provider Provider
	defaults ChatOptions
}

// NewClient creates a new LLM client from a provider. defaults fill any
// option a call leaves unset.
func NewClient(provider Provider, defaults ChatOptions) *Client {
	return &Client{provider: provider, defaults: defaults}
}

// Chat sends a chat completion request and returns just the reply.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	result, err := c.provider.Chat(ctx, messages, c.defaults)
	if err != nil {
		return "", err
	}
	return result.Reply, nil
}

// ChatWithUsage sends a chat completion request and returns the reply with token usage.
func (c *Client) ChatWithUsage(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, Usage, error) {
	result, err := c.provider.Chat(ctx, messages, c.merge(opts))
	if err != nil {
		return "", Usage{}, err
	}
	return result.Reply, result.Usage, nil
}

// Memo extracts a structured memo from content. The default temperature is
// not applied, so the provider's lower memo temperature wins unless opts sets one.
func (c *Client) Memo(ctx context.Context, content string, opts ChatOptions) (MemoResult, error) {
	temperature := opts.Temperature
	opts = c.merge(opts)
	opts.Temperature = temperature
	return c.provider.ProcessMemo(ctx, content, opts)
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}

func (c *Client) merge(opts ChatOptions) ChatOptions {
	if opts.Model == "" {
		opts.Model = c.defaults.Model
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = c.defaults.MaxTokens
	}
	if opts.Temperature == nil {
		opts.Temperature = c.defaults.Temperature
	}
	return opts
}
