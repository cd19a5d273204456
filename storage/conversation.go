// Package storage provides conversation and memo storage abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures and protocols

package storage

import (
	"context"
	"time"

	"github.com/richinex/llmbridge/llm"
)

// SessionInfo summarizes one stored conversation.
type SessionInfo struct {
	ID        string    `json:"id"`
	Messages  int       `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConversationStorage persists chat history by session ID.
type ConversationStorage interface {
	// Save replaces the stored history of a session.
	Save(ctx context.Context, sessionID string, history []llm.ChatMessage) error

	// Load returns a session's history, or an empty slice for an unknown session.
	Load(ctx context.Context, sessionID string) ([]llm.ChatMessage, error)

	// Delete removes a session and reports whether it existed.
	Delete(ctx context.Context, sessionID string) (bool, error)

	// ListSessions returns every session, most recently updated first.
	ListSessions(ctx context.Context) ([]SessionInfo, error)

	// Exists reports whether a session has been saved.
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// MemoStorage defines the interface for storing processed memos.
type MemoStorage interface {
	// SaveMemo stores a memo record, replacing any record with the same ID.
	SaveMemo(ctx context.Context, record MemoRecord) error

	// GetMemo returns the record with id, or nil, nil if there is none.
	GetMemo(ctx context.Context, id string) (*MemoRecord, error)

	// FindMemo returns the newest record a provider produced for content
	// with the given ContentHash, or nil, nil if there is none.
	FindMemo(ctx context.Context, provider, contentHash string) (*MemoRecord, error)

	// ListMemos returns up to limit records, newest first.
	ListMemos(ctx context.Context, limit int) ([]MemoRecord, error)

	// DeleteMemo removes a record and reports whether it existed.
	DeleteMemo(ctx context.Context, id string) (bool, error)
}

// Store is a backend that persists both conversations and memos.
type Store interface {
	ConversationStorage
	MemoStorage
	Close() error
}
