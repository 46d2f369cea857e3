// Package realtime maintains the single duplex connection to the fleet
// platform's realtime endpoint. It owns the connection status state
// machine, reconnects with exponential backoff, routes inbound event frames
// to the subscription registry, and binds the connection lifecycle to the
// authentication session.
package realtime
