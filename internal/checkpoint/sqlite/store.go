package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/modchat/modchat/internal/checkpoint"
	"github.com/modchat/modchat/internal/domain"
)

// Store keeps checkpoints in a local SQLite file.
type Store struct {
	db *sql.DB
}

// New opens the checkpoint database, creating the file and its directory
// when missing. The DSN is a file path, optionally prefixed with sqlite://.
func New(ctx context.Context, dsn string) (checkpoint.Store, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			thread_key TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create checkpoints table: %w", err)
	}

	return &Store{db: db}, nil
}

// Get loads the message list stored under a thread key.
func (s *Store) Get(ctx context.Context, threadKey string) ([]domain.Message, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM checkpoints WHERE thread_key = ?`, threadKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, checkpoint.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return checkpoint.DecodeState([]byte(raw))
}

// Put stores the message list under a thread key, replacing prior state.
func (s *Store) Put(ctx context.Context, threadKey string, messages []domain.Message) error {
	raw, err := checkpoint.EncodeState(messages)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_key, state, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (thread_key) DO UPDATE SET
			state = excluded.state,
			updated_at = CURRENT_TIMESTAMP
	`, threadKey, string(raw))
	if err != nil {
		return fmt.Errorf("failed to persist checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
