// Package llm provides shared data models for LLM providers.
package llm

// Role names accepted in ChatMessage.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Defaults applied when the caller leaves ChatOptions fields unset.
const (
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7

	// memoTemperature biases memo extraction toward deterministic JSON.
	memoTemperature = 0.3
)

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleSystem,
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleAssistant,
		Content: content,
	}
}

// ChatOptions tunes a single Chat call. Zero values fall back to the
// adapter's configured model, DefaultMaxTokens and DefaultTemperature.
type ChatOptions struct {
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Float returns a pointer to v, for ChatOptions.Temperature.
func Float(v float64) *float64 {
	return &v
}

func (o ChatOptions) maxTokens() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return DefaultMaxTokens
}

func (o ChatOptions) temperature() float64 {
	if o.Temperature != nil {
		return *o.Temperature
	}
	return DefaultTemperature
}

func (o ChatOptions) model(fallback string) string {
	if o.Model != "" {
		return o.Model
	}
	return fallback
}

// Usage contains token usage statistics for one exchange.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

func newUsage(input, output int) Usage {
	return Usage{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
	}
}

// ChatResult is the outcome of a successful Chat call.
type ChatResult struct {
	Success bool   `json:"success"`
	Reply   string `json:"reply"`
	Usage   Usage  `json:"usage"`
}

// Tag classifies a processed memo.
type Tag string

const (
	TagArticle       Tag = "article"
	TagResearch      Tag = "research"
	TagNews          Tag = "news"
	TagTutorial      Tag = "tutorial"
	TagReference     Tag = "reference"
	TagDocumentation Tag = "documentation"
	TagBlog          Tag = "blog"
	TagSocial        Tag = "social"
	TagProduct       Tag = "product"
	TagCompany       Tag = "company"
	TagPerson        Tag = "person"
	TagEvent         Tag = "event"
	TagOther         Tag = "other"
)

// Tags lists every memo tag in prompt order.
var Tags = []Tag{
	TagArticle, TagResearch, TagNews, TagTutorial, TagReference, TagDocumentation,
	TagBlog, TagSocial, TagProduct, TagCompany, TagPerson, TagEvent, TagOther,
}

// Valid reports whether t is one of Tags.
func (t Tag) Valid() bool {
	for _, known := range Tags {
		if t == known {
			return true
		}
	}
	return false
}

// MemoResult is the structured extraction produced by ProcessMemo.
// All five fields are always populated; absent fields default to empty.
type MemoResult struct {
	Title          string         `json:"title"`
	Summary        string         `json:"summary"`
	Narrative      string         `json:"narrative"`
	StructuredData map[string]any `json:"structuredData"`
	SelectedTag    Tag            `json:"selectedTag"`
}
