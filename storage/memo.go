package storage

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/richinex/llmbridge/llm"
)

// MemoRecord is a processed memo together with where it came from.
type MemoRecord struct {
	ID        string         `json:"id"`
	Provider  string         `json:"provider"`
	Model     string         `json:"model"`
	SourceURL string         `json:"sourceUrl,omitempty"`
	Memo      llm.MemoResult `json:"memo"`
	WordCount int            `json:"wordCount"`
	// ContentHash identifies the source content; see ContentHash.
	ContentHash string    `json:"contentHash,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewMemoRecord creates a record with a fresh ID and the memo's word count.
func NewMemoRecord(provider, model, sourceURL string, memo llm.MemoResult) MemoRecord {
	return MemoRecord{
		ID:        uuid.NewString(),
		Provider:  provider,
		Model:     model,
		SourceURL: sourceURL,
		Memo:      memo,
		WordCount: llm.MemoWordCount(memo),
		CreatedAt: time.Now().UTC(),
	}
}

// ContentHash returns a hex xxHash of content after markup is stripped, so
// the same page captured twice hashes equally.
func ContentHash(content string) string {
	h := xxhash.Sum64String(llm.SanitizeContent(content))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h)
	return hex.EncodeToString(buf[:])
}
