// Package auth provides the session collaborator interface: a bearer token
// plus signed-in flag, observed reactively. The connection manager reads the
// token once per connect attempt; the lifecycle binder connects on sign-in
// and disconnects on sign-out.
package auth
