package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// ErrSuperseded is returned by a Refresh whose result was discarded because
// a newer Refresh started while it was in flight.
var ErrSuperseded = errors.New("refresh superseded")

// Cache persists the last good raw body of each dataset.
type Cache interface {
	Put(ctx context.Context, collection string, body []byte) error
	Get(ctx context.Context, collection string) ([]byte, time.Time, error)
}

// Snapshot holds the latest successfully fetched copy of a dataset. Each
// Refresh replaces the whole array; a failed Refresh leaves the previous one
// in place.
type Snapshot[T any] struct {
	name   string
	src    Source[T]
	cache  Cache
	logger *slog.Logger

	mu        sync.RWMutex
	items     []T
	loaded    bool
	fetchedAt time.Time
	gen       uint64
	installed uint64
	cancel    context.CancelFunc

	// cacheMu orders cache writes so an older body never lands after a
	// newer one.
	cacheMu sync.Mutex
}

type SnapshotOption func(*snapshotOptions)

type snapshotOptions struct {
	cache Cache
}

// WithCache stores every good body in c and lets Restore read it back.
// Only sources that implement RawSource are cached.
func WithCache(c Cache) SnapshotOption {
	return func(o *snapshotOptions) { o.cache = c }
}

func NewSnapshot[T any](name string, src Source[T], logger *slog.Logger, opts ...SnapshotOption) *Snapshot[T] {
	var o snapshotOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Snapshot[T]{
		name:   name,
		src:    src,
		cache:  o.cache,
		logger: logger,
		items:  []T{},
	}
}

func (s *Snapshot[T]) Name() string { return s.name }

// Refresh fetches the dataset again. Starting a Refresh cancels any Refresh
// still in flight, and only the newest one may install its result.
func (s *Snapshot[T]) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	items, raw, err := s.fetch(fetchCtx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded refresh", "collection", s.name, "generation", gen)
		return ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("dataset refresh failed, keeping previous snapshot",
			"collection", s.name, "generation", gen, "error", err)
		return fmt.Errorf("refresh %s: %w", s.name, err)
	}
	s.items = items
	s.loaded = true
	s.fetchedAt = time.Now()
	s.installed = gen
	s.mu.Unlock()

	s.logger.Info("dataset refreshed", "collection", s.name, "generation", gen, "count", len(items))

	if raw != nil {
		s.storeCache(ctx, gen, raw)
	}
	return nil
}

// storeCache writes raw only while gen is still the installed generation.
func (s *Snapshot[T]) storeCache(ctx context.Context, gen uint64, raw []byte) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.mu.RLock()
	current := gen == s.installed
	s.mu.RUnlock()
	if !current {
		s.logger.Debug("skipping cache write for replaced snapshot", "collection", s.name, "generation", gen)
		return
	}
	if err := s.cache.Put(ctx, s.name, raw); err != nil {
		s.logger.Warn("failed to cache dataset", "collection", s.name, "error", err)
	}
}

func (s *Snapshot[T]) fetch(ctx context.Context) ([]T, []byte, error) {
	rs, ok := s.src.(RawSource)
	if !ok || s.cache == nil {
		items, err := s.src.FetchAll(ctx)
		return items, nil, err
	}
	raw, err := rs.FetchRaw(ctx)
	if err != nil {
		return nil, nil, err
	}
	items, err := decodeArray[T](raw)
	if err != nil {
		return nil, nil, err
	}
	return items, raw, nil
}

// Restore seeds an empty snapshot from the cache. It reports whether
// anything was restored. A snapshot that already holds fetched data is left
// alone.
func (s *Snapshot[T]) Restore(ctx context.Context) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	body, fetchedAt, err := s.cache.Get(ctx, s.name)
	if err != nil {
		return false, err
	}
	if body == nil {
		return false, nil
	}
	items, err := decodeArray[T](body)
	if err != nil {
		return false, fmt.Errorf("cached %s: %w", s.name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return false, nil
	}
	s.items = items
	s.loaded = true
	s.fetchedAt = fetchedAt
	return true, nil
}

// Items returns a copy of the current array. Before the first successful
// fetch it is empty.
func (s *Snapshot[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Loaded reports whether any fetch or restore has succeeded.
func (s *Snapshot[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Snapshot[T]) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}
