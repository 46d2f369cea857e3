// Package cache defines the shared keyed store the synchronization core
// mutates, plus an in-memory implementation used by syncd and tests.
//
// Dashboard views observe cache keys and re-render on change; the event
// handlers in internal/handlers are the writers.
package cache
