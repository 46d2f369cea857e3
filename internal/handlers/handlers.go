package handlers

import (
	"encoding/json"
	"log/slog"

	"github.com/rideops/fleetsync/internal/bus"
	"github.com/rideops/fleetsync/internal/cache"
	"github.com/rideops/fleetsync/internal/model"
	"github.com/rideops/fleetsync/internal/notify"
	"github.com/rideops/fleetsync/internal/throttle"
)

// Subscriber registers event callbacks; the realtime Manager satisfies it.
type Subscriber interface {
	On(eventType string, fn bus.HandlerFunc) func()
}

// RegisterAll wires every domain handler to the subscriber.
func RegisterAll(sub Subscriber, store cache.Store, guard *throttle.Guard, notifier notify.Sink, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	NewOrderHandler(store, notifier, logger).Register(sub)
	NewDriverHandler(store, guard, notifier, logger).Register(sub)
	NewVehicleHandler(store, guard, notifier, logger).Register(sub)
	NewIncidentHandler(store, notifier, logger).Register(sub)
	NewStatsHandler(store, logger).Register(sub)
}

// decode unmarshals an event payload, logging and reporting failure. A
// payload that does not decode is dropped without mutating the cache.
func decode[T any](evt bus.Event, v *T, logger *slog.Logger) bool {
	if err := json.Unmarshal(evt.Payload, v); err != nil {
		logger.Warn("failed to decode event payload",
			"event_type", evt.Type,
			"error", err,
		)
		return false
	}
	return true
}

// listOf extracts a typed slice from a cached value, tolerating absent or
// foreign values.
func listOf[T any](v any) []T {
	if l, ok := v.([]T); ok {
		return l
	}
	return nil
}

// prependIfAbsent inserts record at the head of the list unless match finds
// an existing entry (duplicate guard by identity key).
func prependIfAbsent[T any](list []T, match func(T) bool, record T) []T {
	for _, item := range list {
		if match(item) {
			return list
		}
	}
	return append([]T{record}, list...)
}

// replaceMatch replaces the first matching entry with replace(entry); the
// list is returned unchanged when nothing matches.
func replaceMatch[T any](list []T, match func(T) bool, replace func(T) T) []T {
	for i, item := range list {
		if match(item) {
			out := make([]T, len(list))
			copy(out, list)
			out[i] = replace(item)
			return out
		}
	}
	return list
}

// removeMatch removes every matching entry.
func removeMatch[T any](list []T, match func(T) bool) []T {
	out := list[:0:0]
	for _, item := range list {
		if !match(item) {
			out = append(out, item)
		}
	}
	return out
}

// locationMap extracts the live-map projection from a cached value.
func locationMap(v any) map[string]model.Location {
	if m, ok := v.(map[string]model.Location); ok {
		// Copy so cached values stay immutable for readers.
		out := make(map[string]model.Location, len(m)+1)
		for k, loc := range m {
			out[k] = loc
		}
		return out
	}
	return make(map[string]model.Location)
}
