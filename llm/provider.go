// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - Vendor client creation and authentication
// - Request/response format conversion
// - Vendor-specific error classification
// - Token estimation heuristics
//
// Providers have an explicit two-phase lifecycle. A freshly constructed
// provider is configured but not live; only a successful Initialize creates
// the vendor client. Retries, rate limiting and streaming are left to callers.

package llm

import (
	"context"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide provider-specific details while exposing
// a consistent interface for chat completions and memo extraction.
//
// A Provider is meant for one caller at a time. Concurrent Chat calls on a
// live provider are passed straight to the vendor client.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the model used when ChatOptions.Model is empty.
	Model() string

	// Initialize validates and stores credentials, creates the vendor client
	// and runs one connectivity probe. Calling it again replaces the
	// previous credentials and client.
	Initialize(ctx context.Context, creds Credentials) error

	// Initialized reports whether Initialize has succeeded.
	Initialized() bool

	// Chat sends a single request/response exchange.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (ChatResult, error)

	// ProcessMemo extracts a MemoResult from free-form (usually HTML) content.
	ProcessMemo(ctx context.Context, content string, opts ChatOptions) (MemoResult, error)

	// CalculateTokens estimates the token count of text without a network call.
	CalculateTokens(text string) int

	// AvailableModels returns the model ids this provider accepts, in order.
	AvailableModels() []string

	// ProviderInfo returns this provider's catalog entry.
	ProviderInfo() ProviderDescriptor

	// ValidateConfig reports whether cfg is acceptable. It has no side effects.
	ValidateConfig(cfg Config) bool
}

// RegionalProvider is implemented by providers whose endpoints are region scoped.
type RegionalProvider interface {
	Provider

	// AvailableRegions returns the regions the provider may be pointed at.
	AvailableRegions() []string
}
