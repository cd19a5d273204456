// Package storage provides SQLite conversation and memo storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/richinex/llmbridge/llm"
)

// SqliteStorage implements ConversationStorage and MemoStorage using SQLite.
// Stores conversation history and processed memos in a SQLite database file.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Foreign keys are off by default in SQLite; sessions cascade to messages.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			message_index INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE,
			UNIQUE(session_id, message_index)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session
		ON messages(session_id, message_index);

		CREATE TABLE IF NOT EXISTS memos (
			id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			source_url TEXT,
			title TEXT NOT NULL,
			summary TEXT NOT NULL,
			narrative TEXT NOT NULL,
			structured_data TEXT NOT NULL,
			selected_tag TEXT NOT NULL,
			word_count INTEGER NOT NULL,
			content_hash TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_memos_created
		ON memos(created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_memos_content
		ON memos(provider, content_hash);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SqliteStorage) ensureSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO sessions (session_id) VALUES (?)",
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure session: %w", err)
	}
	return nil
}

// Save saves conversation history for a session.
func (s *SqliteStorage) Save(ctx context.Context, sessionID string, history []llm.ChatMessage) error {
	if err := s.ensureSession(ctx, sessionID); err != nil {
		return err
	}

	// Start transaction
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	// Clear existing messages for this session
	_, err = tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear old messages: %w", err)
	}

	// Insert all messages
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO messages (session_id, message_index, role, content) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, msg := range history {
		_, err = stmt.ExecContext(ctx, sessionID, i, msg.Role, msg.Content)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	// Update session timestamp
	_, err = tx.ExecContext(ctx,
		"UPDATE sessions SET updated_at = datetime('now') WHERE session_id = ?",
		sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Load loads conversation history for a session.
// Returns empty slice if session doesn't exist.
func (s *SqliteStorage) Load(ctx context.Context, sessionID string) ([]llm.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content FROM messages WHERE session_id = ? ORDER BY message_index ASC",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []llm.ChatMessage{} // Start with empty slice, not nil
	for rows.Next() {
		var msg llm.ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// Delete removes a session; its messages go with it through the cascade.
func (s *SqliteStorage) Delete(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return affected(res)
}

// sqliteDateTime is the layout of datetime('now').
const sqliteDateTime = "2006-01-02 15:04:05"

// ListSessions returns every session with its message count, most recently
// updated first.
func (s *SqliteStorage) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.session_id, s.updated_at, COUNT(m.id)
		FROM sessions s
		LEFT JOIN messages m ON m.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.updated_at DESC, s.session_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	infos := []SessionInfo{}
	for rows.Next() {
		var (
			info    SessionInfo
			updated string
		)
		if err := rows.Scan(&info.ID, &updated, &info.Messages); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if info.UpdatedAt, err = time.Parse(sqliteDateTime, updated); err != nil {
			return nil, fmt.Errorf("failed to parse session timestamp %q: %w", updated, err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return infos, nil
}

// Exists reports whether a session has been saved.
func (s *SqliteStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM sessions WHERE session_id = ?)", sessionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return exists, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// MemoStorage implementation

// SaveMemo stores a memo record.
func (s *SqliteStorage) SaveMemo(ctx context.Context, record MemoRecord) error {
	data := record.Memo.StructuredData
	if data == nil {
		data = map[string]any{}
	}
	structured, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode structured data: %w", err)
	}

	// Convert empty strings to NULL for optional fields
	var sourceURL, contentHash interface{}
	if record.SourceURL != "" {
		sourceURL = record.SourceURL
	}
	if record.ContentHash != "" {
		contentHash = record.ContentHash
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO memos
		(id, provider, model, source_url, title, summary, narrative, structured_data, selected_tag, word_count, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Provider,
		record.Model,
		sourceURL,
		record.Memo.Title,
		record.Memo.Summary,
		record.Memo.Narrative,
		string(structured),
		string(record.Memo.SelectedTag),
		record.WordCount,
		contentHash,
		record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to store memo: %w", err)
	}
	return nil
}

const memoColumns = `id, provider, model, source_url, title, summary, narrative, structured_data, selected_tag, word_count, content_hash, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanMemoRow scans a single memo row.
func scanMemoRow(row rowScanner) (MemoRecord, error) {
	var record MemoRecord
	var sourceURL, contentHash sql.NullString
	var structured, tag string
	var createdAt int64

	err := row.Scan(
		&record.ID,
		&record.Provider,
		&record.Model,
		&sourceURL,
		&record.Memo.Title,
		&record.Memo.Summary,
		&record.Memo.Narrative,
		&structured,
		&tag,
		&record.WordCount,
		&contentHash,
		&createdAt,
	)
	if err != nil {
		return MemoRecord{}, err
	}

	if sourceURL.Valid {
		record.SourceURL = sourceURL.String
	}
	if contentHash.Valid {
		record.ContentHash = contentHash.String
	}
	if err := json.Unmarshal([]byte(structured), &record.Memo.StructuredData); err != nil {
		return MemoRecord{}, fmt.Errorf("invalid structured data for memo %s: %w", record.ID, err)
	}
	if record.Memo.StructuredData == nil {
		record.Memo.StructuredData = map[string]any{}
	}
	record.Memo.SelectedTag = llm.Tag(tag)
	record.CreatedAt = time.UnixMilli(createdAt).UTC()

	return record, nil
}

// GetMemo gets a memo by ID. Returns nil, nil if not found.
func (s *SqliteStorage) GetMemo(ctx context.Context, id string) (*MemoRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memoColumns+" FROM memos WHERE id = ?", id)

	record, err := scanMemoRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memo: %w", err)
	}
	return &record, nil
}

// FindMemo returns the newest memo a provider produced for content with the
// given hash. Returns nil, nil if there is none.
func (s *SqliteStorage) FindMemo(ctx context.Context, provider, contentHash string) (*MemoRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+memoColumns+" FROM memos WHERE provider = ? AND content_hash = ? ORDER BY created_at DESC, rowid DESC LIMIT 1",
		provider, contentHash,
	)

	record, err := scanMemoRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find memo: %w", err)
	}
	return &record, nil
}

// ListMemos returns up to limit memos, newest first. A limit <= 0 returns all.
func (s *SqliteStorage) ListMemos(ctx context.Context, limit int) ([]MemoRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memoColumns+" FROM memos ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query memos: %w", err)
	}
	defer rows.Close()

	records := []MemoRecord{} // Start with empty slice, not nil
	for rows.Next() {
		record, err := scanMemoRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memo: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memos: %w", err)
	}

	return records, nil
}

// DeleteMemo removes a memo record.
func (s *SqliteStorage) DeleteMemo(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM memos WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete memo: %w", err)
	}
	return affected(res)
}

// Verify SqliteStorage implements Store
var _ Store = (*SqliteStorage)(nil)
