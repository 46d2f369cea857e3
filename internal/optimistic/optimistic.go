// Package optimistic lets a caller speculatively mutate one cache entry
// before a server round-trip confirms it, with a clean rollback path.
package optimistic

import (
	"sync"

	"github.com/rideops/fleetsync/internal/cache"
)

// Updater applies speculative mutations to a single cache key. Each Updater
// is bound to exactly one key for its lifetime; concurrent optimistic
// updates on different keys require separate Updaters.
//
// At most one snapshot is outstanding: a second Update before Rollback or
// Commit overwrites the held snapshot.
type Updater[T any] struct {
	store cache.Store
	key   string

	mu       sync.Mutex
	snapshot T
	hadValue bool
	held     bool
}

// NewUpdater creates an Updater bound to key.
func NewUpdater[T any](store cache.Store, key string) *Updater[T] {
	return &Updater[T]{store: store, key: key}
}

// Update snapshots the current cached value and writes fn(current) into the
// cache. fn receives the zero value of T when the key is absent.
func (u *Updater[T]) Update(fn func(T) T) {
	u.mu.Lock()
	defer u.mu.Unlock()

	var current T
	raw, ok := u.store.Get(u.key)
	if ok {
		if v, isT := raw.(T); isT {
			current = v
		}
	}

	u.snapshot = current
	u.hadValue = ok
	u.held = true

	u.store.Set(u.key, fn(current))
}

// Rollback writes the held snapshot back into the cache verbatim and clears
// it. A Rollback with no held snapshot is a no-op.
func (u *Updater[T]) Rollback() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.held {
		return
	}
	if u.hadValue {
		u.store.Set(u.key, u.snapshot)
	} else {
		// The key did not exist before the speculative write; remove exactly
		// that key. Prefix invalidation would also take siblings like
		// "order:O12" when rolling back "order:O1".
		u.store.Delete(u.key)
	}
	u.clear()
}

// Commit clears the held snapshot without touching the cache: the
// speculative value is accepted as final.
func (u *Updater[T]) Commit() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.clear()
}

func (u *Updater[T]) clear() {
	var zero T
	u.snapshot = zero
	u.hadValue = false
	u.held = false
}
