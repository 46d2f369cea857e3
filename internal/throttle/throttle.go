package throttle

import (
	"sync"
	"time"
)

// Guard bounds the rate at which high-frequency per-entity updates are
// allowed to propagate: at most one accepted update per entity per window.
// Rejected updates are dropped, not buffered.
type Guard struct {
	window     time.Duration
	staleAfter time.Duration
	maxEntries int

	mu   sync.Mutex
	last map[string]time.Time
}

// NewGuard creates a Guard. window is the minimum gap between accepted
// updates for one entity; entries idle longer than staleAfter are purged
// once the table grows past maxEntries.
func NewGuard(window, staleAfter time.Duration, maxEntries int) *Guard {
	return &Guard{
		window:     window,
		staleAfter: staleAfter,
		maxEntries: maxEntries,
		last:       make(map[string]time.Time),
	}
}

// Accept reports whether an update for entityID at now may propagate, and
// records now as the entity's last-accepted time when it may. Acceptance is
// monotonic per entity: after an accepted update at T, the next acceptance
// for that entity is at T+window or later.
func (g *Guard) Accept(entityID string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.last[entityID]; ok && now.Sub(last) < g.window {
		return false
	}

	g.last[entityID] = now
	if len(g.last) > g.maxEntries {
		g.compactLocked(now)
	}
	return true
}

// Size returns the number of tracked entities.
func (g *Guard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.last)
}

// compactLocked purges entries idle longer than staleAfter. Amortized: runs
// only when the table exceeds maxEntries. Caller holds mu.
func (g *Guard) compactLocked(now time.Time) {
	for id, last := range g.last {
		if now.Sub(last) > g.staleAfter {
			delete(g.last, id)
		}
	}
}
