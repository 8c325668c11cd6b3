package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Maksimnp/TelegramBotQwen/internal/history"
)

// SQLiteStore is a single-file alternative backend with the same
// user_context schema and upsert semantics as the Postgres store.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path,
// ensuring the parent directory and the user_context table exist.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS user_context (
			chat_id INTEGER PRIMARY KEY,
			context TEXT NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure user_context table: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Load fetches the stored history for chatID. A missing row is an empty
// history; query and decode failures are returned to the caller.
func (s *SQLiteStore) Load(ctx context.Context, chatID int64) (history.History, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT context FROM user_context WHERE chat_id = ?", chatID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("no context found", zap.Int64("chat_id", chatID))
		return history.History{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch context for chat %d: %w", chatID, err)
	}

	h, err := history.Unmarshal(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode context for chat %d: %w", chatID, err)
	}
	s.logger.Debug("context loaded", zap.Int64("chat_id", chatID), zap.Int("turns", len(h)))
	return h, nil
}

// Save upserts the full history for chatID, replacing any prior value.
func (s *SQLiteStore) Save(ctx context.Context, chatID int64, h history.History) error {
	blob, err := history.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to encode context for chat %d: %w", chatID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_context (chat_id, context) VALUES (?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET context = excluded.context`,
		chatID, string(blob),
	)
	if err != nil {
		return fmt.Errorf("failed to save context for chat %d: %w", chatID, err)
	}
	s.logger.Debug("context saved", zap.Int64("chat_id", chatID), zap.Int("turns", len(h)))
	return nil
}

// Delete removes the record for chatID. Deleting a missing record succeeds.
func (s *SQLiteStore) Delete(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM user_context WHERE chat_id = ?", chatID)
	if err != nil {
		return fmt.Errorf("failed to delete context for chat %d: %w", chatID, err)
	}
	s.logger.Debug("context deleted", zap.Int64("chat_id", chatID))
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() {
	s.db.Close()
}
