// Package handlers translates wire events into cache mutations and
// user-visible notices, one handler per domain (orders, drivers, vehicles,
// incidents, dashboard stats).
//
// Failure semantics: update-shaped events for records not present in the
// cache are no-ops rather than fabricating partial records; creation events
// always insert, guarded against duplicates by identity key.
package handlers
