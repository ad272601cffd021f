package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// KVStore keeps opaque values under string keys in the kv_entries table.
type KVStore struct {
	db *sql.DB
}

func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

// Get returns found=false with a nil error when the key was never written.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM kv_entries WHERE key = ?
	`, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %q: %w", key, err)
	}

	return []byte(value), true, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}

	return nil
}
