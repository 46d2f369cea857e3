package cache

import "sync"

// Store is the keyed value store the synchronization core reads and writes.
//
// The production dashboard supplies its own implementation; Memory below is
// used by syncd and by tests. Implementations must provide single-writer-
// per-key semantics: concurrent Update calls on the same key must not
// interleave.
type Store interface {
	// Get returns the value for key and whether it is present.
	Get(key string) (any, bool)

	// Set stores value under key.
	Set(key string, value any)

	// Update atomically replaces the value under key with fn(current).
	// fn receives nil when the key is absent.
	Update(key string, fn func(current any) any)

	// Delete removes exactly key, if present.
	Delete(key string)

	// Invalidate removes every key with the given prefix.
	Invalidate(prefix string)

	// Subscribe registers fn to be called with the key whenever a key with
	// the given prefix is set, updated, or invalidated. Returns an
	// unsubscribe function.
	Subscribe(prefix string, fn func(key string)) func()
}

type watcher struct {
	prefix string
	fn     func(key string)
}

// Memory is an in-memory Store implementation.
type Memory struct {
	mu       sync.RWMutex
	values   map[string]any
	watchers map[int]watcher
	nextID   int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string]any),
		watchers: make(map[int]watcher),
	}
}

// Get returns the value for key.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key and notifies watchers.
func (m *Memory) Set(key string, value any) {
	m.mu.Lock()
	m.values[key] = value
	fns := m.watchersForLocked(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

// Update replaces the value under key with fn(current).
func (m *Memory) Update(key string, fn func(current any) any) {
	m.mu.Lock()
	m.values[key] = fn(m.values[key])
	fns := m.watchersForLocked(key)
	m.mu.Unlock()

	for _, f := range fns {
		f(key)
	}
}

// Delete removes exactly key and notifies watchers when it was present.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	if _, ok := m.values[key]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.values, key)
	fns := m.watchersForLocked(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

// Invalidate removes every key with the given prefix.
func (m *Memory) Invalidate(prefix string) {
	m.mu.Lock()
	var removed []string
	for key := range m.values {
		if hasPrefix(key, prefix) {
			delete(m.values, key)
			removed = append(removed, key)
		}
	}
	type notification struct {
		key string
		fn  func(string)
	}
	var pending []notification
	for _, key := range removed {
		for _, fn := range m.watchersForLocked(key) {
			pending = append(pending, notification{key: key, fn: fn})
		}
	}
	m.mu.Unlock()

	for _, n := range pending {
		n.fn(n.key)
	}
}

// Subscribe registers a prefix watcher.
func (m *Memory) Subscribe(prefix string, fn func(key string)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = watcher{prefix: prefix, fn: fn}
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// watchersForLocked collects watcher callbacks matching key. Caller holds mu.
func (m *Memory) watchersForLocked(key string) []func(string) {
	var fns []func(string)
	for _, w := range m.watchers {
		if hasPrefix(key, w.prefix) {
			fns = append(fns, w.fn)
		}
	}
	return fns
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
