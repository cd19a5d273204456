package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/richinex/llmbridge/internal/jsonutil"
)

// memoInstruction is the fixed structured-extraction prompt.
var memoInstruction = fmt.Sprintf(`You are an AI assistant that processes web content into structured memos.
Extract key information from the provided HTML content and return a JSON object with the following structure:
{
    "title": "Main title or heading of the content",
    "summary": "A concise 2-3 sentence summary of the main points",
    "narrative": "A more detailed description of the content and its significance",
    "structuredData": {
        "key": "value pairs of important structured information"
    },
    "selectedTag": "A single relevant tag from: %s"
}

Return only valid JSON without any additional text or formatting.`, joinTags())

func joinTags() string {
	names := make([]string, len(Tags))
	for i, t := range Tags {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// memoSchemaJSON checks the types of whichever memo fields are present.
// Presence is not required; absent or null fields are defaulted.
const memoSchemaJSON = `{
	"type": "object",
	"properties": {
		"title":          {"type": ["string", "null"]},
		"summary":        {"type": ["string", "null"]},
		"narrative":      {"type": ["string", "null"]},
		"selectedTag":    {"type": ["string", "null"]},
		"structuredData": {"type": ["object", "null"]}
	}
}`

var memoSchema = mustCompileSchema("memo.json", memoSchemaJSON)

func mustCompileSchema(name, doc string) *jsonschema.Schema {
	var schemaDoc interface{}
	if err := json.Unmarshal([]byte(doc), &schemaDoc); err != nil {
		panic(fmt.Sprintf("llm: invalid JSON schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("llm: invalid JSON schema %s: %v", name, err))
	}
	sch, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("llm: compiling JSON schema %s: %v", name, err))
	}
	return sch
}

// memoMessages wraps sanitized content in the extraction instruction.
func memoMessages(content string) []ChatMessage {
	return []ChatMessage{
		SystemMessage(memoInstruction),
		UserMessage("Content to process:\n" + SanitizeContent(content)),
	}
}

type chatFunc func(ctx context.Context, messages []ChatMessage, opts ChatOptions) (ChatResult, error)

// processMemo is the vendor-independent body of ProcessMemo.
func processMemo(ctx context.Context, b *adapterBase, chat chatFunc, content string, opts ChatOptions) (MemoResult, error) {
	if err := b.requireInitialized(); err != nil {
		return MemoResult{}, err
	}
	if opts.Temperature == nil {
		opts.Temperature = Float(memoTemperature)
	}

	result, err := chat(ctx, memoMessages(content), opts)
	if err != nil {
		return MemoResult{}, err
	}
	return parseMemo(b.name, result.Reply)
}

// parseMemo turns a model reply into a MemoResult. Individually missing
// fields are defaulted; a reply that is not a memo-shaped object is an error.
func parseMemo(provider, reply string) (MemoResult, error) {
	obj, err := jsonutil.ExtractObject(reply)
	if err != nil {
		return MemoResult{}, parseError(provider, "Failed to parse response as JSON", err)
	}
	if err := memoSchema.Validate(obj); err != nil {
		return MemoResult{}, parseError(provider, "Response does not match the memo structure", err)
	}

	memo := MemoResult{
		Title:          stringField(obj, "title"),
		Summary:        stringField(obj, "summary"),
		Narrative:      stringField(obj, "narrative"),
		StructuredData: map[string]any{},
	}
	if data, ok := obj["structuredData"].(map[string]any); ok {
		memo.StructuredData = data
	}

	// Tags outside the enum are folded into "other"; a missing tag stays empty.
	tag := Tag(strings.ToLower(strings.TrimSpace(stringField(obj, "selectedTag"))))
	if tag != "" && !tag.Valid() {
		tag = TagOther
	}
	memo.SelectedTag = tag

	return memo, nil
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
