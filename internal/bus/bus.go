package bus

import (
	"encoding/json"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Event is a domain event delivered to subscribers.
type Event struct {
	Type       string
	Payload    json.RawMessage
	Timestamp  string
	ReceivedAt time.Time
}

// HandlerFunc consumes an event. Handlers run synchronously on the
// dispatching goroutine, in arrival order.
type HandlerFunc func(Event)

// Registry maps event-type names to subscriber sets and fans events out.
//
// Subscriber sets have set semantics keyed by function identity: subscribing
// the same function twice to the same type yields a single registration, and
// one unsubscribe removes it entirely. Fan-out order is unspecified.
type Registry struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[uintptr]HandlerFunc
}

// NewRegistry creates an empty subscription registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger,
		subs:   make(map[string]map[uintptr]HandlerFunc),
	}
}

// Subscribe registers fn for eventType and returns an unsubscribe function.
// The unsubscribe function removes exactly that registration and is
// idempotent.
func (r *Registry) Subscribe(eventType string, fn HandlerFunc) func() {
	key := reflect.ValueOf(fn).Pointer()

	r.mu.Lock()
	set, ok := r.subs[eventType]
	if !ok {
		set = make(map[uintptr]HandlerFunc)
		r.subs[eventType] = set
	}
	set[key] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		if set, ok := r.subs[eventType]; ok {
			delete(set, key)
			if len(set) == 0 {
				delete(r.subs, eventType)
			}
		}
		r.mu.Unlock()
	}
}

// Emit synchronously delivers evt to every subscriber of evt.Type. A
// subscriber panicking is recovered and logged so remaining subscribers
// still receive the event. Emit with zero subscribers is a no-op.
func (r *Registry) Emit(evt Event) {
	// Snapshot so a handler may subscribe/unsubscribe during fan-out.
	r.mu.RLock()
	set := r.subs[evt.Type]
	fns := make([]HandlerFunc, 0, len(set))
	for _, fn := range set {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		r.call(evt, fn)
	}
}

func (r *Registry) call(evt Event, fn HandlerFunc) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("event handler panicked",
				"event_type", evt.Type,
				"panic", rec,
			)
		}
	}()
	fn(evt)
}

// SubscriberCount returns the number of registrations for eventType.
func (r *Registry) SubscriberCount(eventType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[eventType])
}
