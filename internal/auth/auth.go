package auth

import (
	"os"
	"sync"
)

// State is the session snapshot observed by the sync core.
type State struct {
	Authenticated bool
	Token         string
}

// Source supplies the current session state and change notifications.
// The dashboard's session store implements this; MemorySource below is the
// standalone implementation used by syncd and tests.
type Source interface {
	// State returns the current session state.
	State() State

	// Subscribe registers fn to be called on every state transition.
	// Returns an unsubscribe function.
	Subscribe(fn func(State)) func()
}

// MemorySource is a settable in-memory session source.
type MemorySource struct {
	mu        sync.Mutex
	state     State
	observers map[int]func(State)
	nextID    int
}

// NewMemorySource creates a signed-out session source.
func NewMemorySource() *MemorySource {
	return &MemorySource{observers: make(map[int]func(State))}
}

// FromEnv creates a session source seeded from an environment variable.
// An empty or unset variable yields a signed-out source.
func FromEnv(name string) *MemorySource {
	s := NewMemorySource()
	if token := os.Getenv(name); token != "" {
		s.SetToken(token)
	}
	return s
}

// State returns the current session state.
func (s *MemorySource) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetToken marks the session authenticated with the given token.
func (s *MemorySource) SetToken(token string) {
	s.transition(State{Authenticated: token != "", Token: token})
}

// Clear signs the session out.
func (s *MemorySource) Clear() {
	s.transition(State{})
}

// Subscribe registers a state observer.
func (s *MemorySource) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *MemorySource) transition(next State) {
	s.mu.Lock()
	if s.state == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	fns := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}
