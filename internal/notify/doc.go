// Package notify carries user-visible notices (toasts and audible alerts)
// out of the synchronization core. The core only calls out through the Sink
// interface; rendering and sound playback belong to the dashboard shell.
package notify
