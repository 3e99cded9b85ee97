package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/modchat/modchat/internal/checkpoint"
	"github.com/modchat/modchat/internal/domain"
)

// Store keeps checkpoints in a PostgreSQL table with a JSONB state column.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and ensures the checkpoints table exists.
func New(ctx context.Context, dsn string) (checkpoint.Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}
	config.MaxConns = 5
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			thread_key TEXT PRIMARY KEY,
			state JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create checkpoints table: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Get(ctx context.Context, threadKey string) ([]domain.Message, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM checkpoints WHERE thread_key = $1`, threadKey,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, checkpoint.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return checkpoint.DecodeState(raw)
}

func (s *Store) Put(ctx context.Context, threadKey string, messages []domain.Message) error {
	raw, err := checkpoint.EncodeState(messages)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint state: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO checkpoints (thread_key, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (thread_key) DO UPDATE SET
			state = EXCLUDED.state,
			updated_at = NOW()
	`, threadKey, raw)
	if err != nil {
		return fmt.Errorf("failed to persist checkpoint: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
