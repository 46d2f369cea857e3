// Package bus implements the subscription registry that decouples the
// connection manager from domain event consumers. Events are fanned out
// synchronously; nothing is queued, and an emit with no subscribers is a
// silent no-op.
package bus
