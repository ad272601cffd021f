package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DatasetCacheStore remembers the last successfully fetched body of each
// dataset so a restart without network still has something to show.
type DatasetCacheStore struct {
	db *sql.DB
}

func NewDatasetCacheStore(db *sql.DB) *DatasetCacheStore {
	return &DatasetCacheStore{db: db}
}

func (s *DatasetCacheStore) Put(ctx context.Context, collection string, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dataset_cache (collection, body, fetched_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection) DO UPDATE SET body = excluded.body, fetched_at = CURRENT_TIMESTAMP
	`, collection, body)
	if err != nil {
		return fmt.Errorf("failed to cache dataset %s: %w", collection, err)
	}
	return nil
}

// Get returns a nil body and zero time when nothing is cached.
func (s *DatasetCacheStore) Get(ctx context.Context, collection string) ([]byte, time.Time, error) {
	var (
		body      []byte
		fetchedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT body, fetched_at FROM dataset_cache WHERE collection = ?
	`, collection).Scan(&body, &fetchedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read cached dataset %s: %w", collection, err)
	}
	return body, fetchedAt, nil
}
