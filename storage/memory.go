// Package storage provides in-memory conversation and memo storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/richinex/llmbridge/llm"
)

// InMemoryStorage implements ConversationStorage and MemoStorage using
// in-memory maps. Data is lost when process terminates.
type InMemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string]session
	memos    map[string]MemoRecord
	now      func() time.Time
}

type session struct {
	history   []llm.ChatMessage
	updatedAt time.Time
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		sessions: make(map[string]session),
		memos:    make(map[string]MemoRecord),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Close is a no-op.
func (s *InMemoryStorage) Close() error {
	return nil
}

// Save replaces a session's history with a copy of history.
func (s *InMemoryStorage) Save(ctx context.Context, sessionID string, history []llm.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = session{
		history:   append([]llm.ChatMessage(nil), history...),
		updatedAt: s.now(),
	}
	return nil
}

// Load returns a copy of a session's history.
func (s *InMemoryStorage) Load(ctx context.Context, sessionID string) ([]llm.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]llm.ChatMessage{}, s.sessions[sessionID].history...), nil
}

// Delete removes a session.
func (s *InMemoryStorage) Delete(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	return ok, nil
}

// ListSessions returns every session, most recently updated first. Ties
// are broken by ID.
func (s *InMemoryStorage) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(s.sessions))
	for id, sess := range s.sessions {
		infos = append(infos, SessionInfo{ID: id, Messages: len(sess.history), UpdatedAt: sess.updatedAt})
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// Exists reports whether a session has been saved.
func (s *InMemoryStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[sessionID]
	return ok, nil
}

// SaveMemo stores a memo record.
func (s *InMemoryStorage) SaveMemo(ctx context.Context, record MemoRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.memos[record.ID] = record
	return nil
}

// GetMemo returns a memo record by ID, or nil if not found.
func (s *InMemoryStorage) GetMemo(ctx context.Context, id string) (*MemoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.memos[id]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// FindMemo returns the newest record for provider and contentHash, or nil.
func (s *InMemoryStorage) FindMemo(ctx context.Context, provider, contentHash string) (*MemoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *MemoRecord
	for _, record := range s.memos {
		if record.Provider != provider || record.ContentHash == "" || record.ContentHash != contentHash {
			continue
		}
		if found == nil || record.CreatedAt.After(found.CreatedAt) {
			r := record
			found = &r
		}
	}
	return found, nil
}

// ListMemos returns up to limit records, newest first.
func (s *InMemoryStorage) ListMemos(ctx context.Context, limit int) ([]MemoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]MemoRecord, 0, len(s.memos))
	for _, record := range s.memos {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// DeleteMemo removes a memo record.
func (s *InMemoryStorage) DeleteMemo(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.memos[id]
	delete(s.memos, id)
	return ok, nil
}

// Verify InMemoryStorage implements Store
var _ Store = (*InMemoryStorage)(nil)
