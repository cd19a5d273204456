// Shared adapter behaviour: lifecycle bookkeeping, logging, token estimation
// and the content helpers every vendor relies on.

package llm

import (
	"log/slog"
	"math"
	"unicode/utf8"

	"github.com/richinex/llmbridge/internal/text"
)

// Option configures an adapter at construction time.
type Option func(*adapterBase)

// WithLogger sets the logger used for lifecycle and request debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(b *adapterBase) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// adapterBase holds the state every adapter shares. Embedded by value.
type adapterBase struct {
	name          string
	model         string
	charsPerToken float64
	initialized   bool
	logger        *slog.Logger
}

func newAdapterBase(name, model string, charsPerToken float64, opts []Option) adapterBase {
	b := adapterBase{
		name:          name,
		model:         model,
		charsPerToken: charsPerToken,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	b.logger = b.logger.With("provider", name)
	return b
}

// Name returns the provider name.
func (b *adapterBase) Name() string {
	return b.name
}

// Model returns the current model.
func (b *adapterBase) Model() string {
	return b.model
}

// Initialized reports whether Initialize has succeeded.
func (b *adapterBase) Initialized() bool {
	return b.initialized
}

// CalculateTokens estimates tokens as ceil(runes / charsPerToken).
func (b *adapterBase) CalculateTokens(s string) int {
	if s == "" {
		return 0
	}
	return int(math.Ceil(float64(utf8.RuneCountInString(s)) / b.charsPerToken))
}

func (b *adapterBase) requireInitialized() error {
	if !b.initialized {
		return notInitializedError(b.name)
	}
	return nil
}

// SanitizeContent strips markup from content before it is sent to a vendor.
func SanitizeContent(content string) string {
	return text.Sanitize(content)
}

// MemoWordCount returns the number of words across a memo's prose fields.
func MemoWordCount(m MemoResult) int {
	return text.CountWords(m.Title) + text.CountWords(m.Summary) + text.CountWords(m.Narrative)
}

// splitSystem separates system messages from the conversation. Multiple
// system messages are joined in order.
func splitSystem(messages []ChatMessage) (system string, rest []ChatMessage) {
	rest = make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}

// normalizeRole maps anything that is not a user turn onto assistant, the
// only other role vendor chat APIs accept in the message list.
func normalizeRole(role string) string {
	if role == RoleUser {
		return RoleUser
	}
	return RoleAssistant
}
