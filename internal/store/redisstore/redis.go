// Package redisstore keeps saved-item lists in Redis, one string key each.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

type Store struct {
	client *redis.Client
	prefix string
}

// New wraps an existing client. prefix is prepended to every key so several
// deployments can share one Redis database.
func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Dial connects to addr and checks the connection with PING.
func Dial(ctx context.Context, addr, prefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return New(client, prefix), nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
