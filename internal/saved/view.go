package saved

import (
	"context"
	"slices"
	"sync"

	"github.com/wastebuster/wastebuster/internal/domain"
)

// View is a consumer's cached copy of one saved set. Reads never touch
// storage. Toggle updates the cache before the durable write returns and
// rolls the change back if the write fails.
type View struct {
	store *Store
	key   string

	mu  sync.RWMutex
	ids []domain.ItemID
}

func (s *Store) View(key string) *View {
	return &View{store: s, key: key}
}

func (v *View) Key() string { return v.key }

// Load replaces the cache with the persisted set.
func (v *View) Load(ctx context.Context) {
	ids := v.store.SavedIDs(ctx, v.key)
	v.mu.Lock()
	v.ids = ids
	v.mu.Unlock()
}

func (v *View) Has(id domain.ItemID) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Contains(v.ids, id)
}

// IDs returns a copy of the cached IDs in insertion order.
func (v *View) IDs() []domain.ItemID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.ids)
}

func (v *View) Set() domain.IDSet {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return domain.NewIDSet(v.ids...)
}

// Toggle flips id in the cache, then persists the flip. It reports whether id
// is saved afterwards. On a failed write the cache change is reverted and the
// error returned.
func (v *View) Toggle(ctx context.Context, id domain.ItemID) (bool, error) {
	if id.IsZero() {
		return false, domain.ErrInvalidID
	}
	v.mu.Lock()
	want := !slices.Contains(v.ids, id)
	v.mu.Unlock()
	if err := v.apply(ctx, id, want); err != nil {
		return !want, err
	}
	return want, nil
}

func (v *View) Save(ctx context.Context, id domain.ItemID) error {
	if id.IsZero() {
		return domain.ErrInvalidID
	}
	return v.apply(ctx, id, true)
}

func (v *View) Remove(ctx context.Context, id domain.ItemID) error {
	if id.IsZero() {
		return domain.ErrInvalidID
	}
	return v.apply(ctx, id, false)
}

// apply sets id's membership in the cache, then in storage.
func (v *View) apply(ctx context.Context, id domain.ItemID, want bool) error {
	if !v.setCached(id, want) {
		return nil
	}

	var err error
	if want {
		err = v.store.Save(ctx, v.key, id)
	} else {
		err = v.store.Remove(ctx, v.key, id)
	}
	if err != nil {
		v.setCached(id, !want)
		return err
	}
	return nil
}

// setCached reports whether the cache changed.
func (v *View) setCached(id domain.ItemID, want bool) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := slices.Index(v.ids, id)
	switch {
	case want && i < 0:
		v.ids = append(v.ids, id)
		return true
	case !want && i >= 0:
		v.ids = slices.Delete(v.ids, i, i+1)
		return true
	}
	return false
}
