// Package saved persists the sets of item IDs a user has liked or saved.
//
// Each set lives under its own key as a JSON array. Mutations on a key are
// serialized so two concurrent toggles cannot overwrite each other's
// read-modify-write.
package saved

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/wastebuster/wastebuster/internal/domain"
)

const (
	// EventsKey holds the IDs of liked events.
	EventsKey = "wastebuster:likedEventIds"
	// IdeasKey holds the IDs of saved ideas.
	IdeasKey = "wastebuster:savedIdeaIds"
)

// kvStore is the durable storage the saved store needs. Set replaces the
// value wholesale.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type Store struct {
	kv     kvStore
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(kv kvStore, logger *slog.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// SavedIDs returns the persisted IDs in insertion order. It never fails: a
// missing key, a storage error or an undecodable value all read as empty.
func (s *Store) SavedIDs(ctx context.Context, key string) []domain.ItemID {
	ids, err := s.read(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read saved ids", "key", key, "error", err)
		return []domain.ItemID{}
	}
	return ids
}

// Save adds id to the set under key. Saving an ID that is already present
// does not write.
func (s *Store) Save(ctx context.Context, key string, id domain.ItemID) error {
	if id.IsZero() {
		return domain.ErrInvalidID
	}
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()

	ids, err := s.read(ctx, key)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	return s.write(ctx, key, append(ids, id))
}

// Remove deletes id from the set under key. Removing an absent ID does not
// write.
func (s *Store) Remove(ctx context.Context, key string, id domain.ItemID) error {
	if id.IsZero() {
		return domain.ErrInvalidID
	}
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()

	ids, err := s.read(ctx, key)
	if err != nil {
		return err
	}
	i := slices.Index(ids, id)
	if i < 0 {
		return nil
	}
	return s.write(ctx, key, slices.Delete(ids, i, i+1))
}

// Toggle removes id when saved and saves it otherwise. It reports whether
// id is saved afterwards.
func (s *Store) Toggle(ctx context.Context, key string, id domain.ItemID) (bool, error) {
	if id.IsZero() {
		return false, domain.ErrInvalidID
	}
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()

	ids, err := s.read(ctx, key)
	if err != nil {
		return false, err
	}
	if i := slices.Index(ids, id); i >= 0 {
		if err := s.write(ctx, key, slices.Delete(ids, i, i+1)); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.write(ctx, key, append(ids, id)); err != nil {
		return false, err
	}
	return true, nil
}

// read fails only on storage errors. A value that does not decode is logged
// and read as empty so the next write repairs it.
func (s *Store) read(ctx context.Context, key string) ([]domain.ItemID, error) {
	data, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found || len(data) == 0 {
		return []domain.ItemID{}, nil
	}

	var ids []domain.ItemID
	if err := json.Unmarshal(data, &ids); err != nil {
		s.logger.Warn("discarding undecodable saved ids", "key", key, "error", err)
		return []domain.ItemID{}, nil
	}

	// Drop nulls and duplicates left by older writers.
	out := make([]domain.ItemID, 0, len(ids))
	seen := make(domain.IDSet, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen.Has(id) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func (s *Store) write(ctx context.Context, key string, ids []domain.ItemID) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode saved ids: %w", err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		s.logger.Error("failed to persist saved ids", "key", key, "error", err)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
